// seed inserts development sample data for local testing: go run ./cmd/seed.
// Idempotent: skips inserts if the dev user (john@doe.com) already exists.
//
// The provision subcommand stores one factory device:
//
//	go run ./cmd/seed provision -identifier <uuid> -password <secret>
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"dispenser-identity/internal/config"
	"dispenser-identity/internal/db"
	devicedomain "dispenser-identity/internal/device/domain"
	devicerepo "dispenser-identity/internal/device/repository"
	deviceservice "dispenser-identity/internal/device/service"
	"dispenser-identity/internal/security"
	userdomain "dispenser-identity/internal/user/domain"
	userrepo "dispenser-identity/internal/user/repository"
)

const (
	devUserName         = "John"
	devUserEmail        = "john@doe.com"
	devUserPassword     = "password"
	devDeviceIdentifier = "110ec58a-a0f2-4ac4-8393-c866d813b8d1"
	devDevicePassword   = "password"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	hasher := security.NewHasher(cfg.BcryptCost, cfg.HashWorkers)

	if len(os.Args) > 1 && os.Args[1] == "provision" {
		provision(ctx, deviceservice.NewDeviceService(devicerepo.NewPostgresRepository(conn), hasher, nil), os.Args[2:])
		return
	}

	existing, err := userrepo.NewPostgresRepository(conn).GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists). Skipping.", devUserEmail)
		return
	}

	passwordHash, err := hasher.Hash(ctx, []byte(devUserPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	err = db.WithTx(ctx, conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := userrepo.NewPostgresRepository(tx).Create(ctx, &userdomain.User{
			Name:         devUserName,
			Email:        devUserEmail,
			PasswordHash: passwordHash,
			Status:       userdomain.UserStatusActive,
		}); err != nil {
			return err
		}
		devices := deviceservice.NewDeviceService(devicerepo.NewPostgresRepository(tx), hasher, nil)
		_, err := devices.Provision(ctx, devDeviceIdentifier, devDevicePassword)
		if errors.Is(err, devicedomain.ErrDuplicateIdentifier) {
			return nil
		}
		return err
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("Seed applied: user %s (password %q), device %s (password %q).",
		devUserEmail, devUserPassword, devDeviceIdentifier, devDevicePassword)
}

func provision(ctx context.Context, devices *deviceservice.DeviceService, args []string) {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	identifier := fs.String("identifier", "", "Device identifier (UUID printed on the dispenser)")
	password := fs.String("password", "", "Device password")
	_ = fs.Parse(args)

	d, err := devices.Provision(ctx, *identifier, *password)
	switch {
	case errors.Is(err, deviceservice.ErrInvalidDevice):
		log.Fatal("provision: -identifier and -password are required")
	case errors.Is(err, devicedomain.ErrDuplicateIdentifier):
		log.Fatalf("provision: device %s already exists", *identifier)
	case err != nil:
		log.Fatalf("provision: %v", err)
	}
	log.Printf("Provisioned device %s (id %d).", d.Identifier, d.ID)
}
