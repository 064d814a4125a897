// Worker deletes sessions older than SESSION_MAX_AGE every SWEEP_INTERVAL.
// GRPC_ADDR is required by config but unused (e.g. set to :0).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispenser-identity/internal/config"
	"dispenser-identity/internal/db"
	"dispenser-identity/internal/logging"
	sessionrepo "dispenser-identity/internal/session/repository"
	sessionservice "dispenser-identity/internal/session/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	maxAge := cfg.MaxSessionAge()
	if maxAge == 0 {
		logger.Error("worker: SESSION_MAX_AGE is required")
		os.Exit(1)
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	// The sweep never hashes or signs, so no hasher or token codec is needed.
	sessions := sessionservice.NewSessionService(nil, sessionrepo.NewPostgresRepository(conn), nil, nil, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := cfg.SweepEvery()
	logger.Info("worker: sweeping sessions", "max_age", maxAge.String(), "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		sweep(ctx, logger, sessions, maxAge)
		select {
		case <-ctx.Done():
			logger.Info("worker: stopped")
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, logger *slog.Logger, sessions *sessionservice.SessionService, maxAge time.Duration) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := sessions.Sweep(sweepCtx, maxAge)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("worker: sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		logger.Info("worker: sessions expired", "count", n)
	}
}
