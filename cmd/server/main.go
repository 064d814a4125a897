package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"dispenser-identity/internal/audit"
	"dispenser-identity/internal/audit/publisher"
	auditrepo "dispenser-identity/internal/audit/repository"
	"dispenser-identity/internal/config"
	"dispenser-identity/internal/db"
	devicerepo "dispenser-identity/internal/device/repository"
	healthhandler "dispenser-identity/internal/health/handler"
	linkagerepo "dispenser-identity/internal/linkage/repository"
	linkageservice "dispenser-identity/internal/linkage/service"
	"dispenser-identity/internal/logging"
	"dispenser-identity/internal/security"
	"dispenser-identity/internal/server"
	"dispenser-identity/internal/server/interceptors"
	sessionrepo "dispenser-identity/internal/session/repository"
	sessionservice "dispenser-identity/internal/session/service"
	settingrepo "dispenser-identity/internal/setting/repository"
	settingservice "dispenser-identity/internal/setting/service"
	"dispenser-identity/internal/telemetry/otel"
	userrepo "dispenser-identity/internal/user/repository"
	userservice "dispenser-identity/internal/user/service"
)

const (
	serviceName    = "dispenser-identity"
	healthInterval = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.DatabaseURL == "" {
		fatal(logger, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.Env, cfg.OTLPInsecure)
	if err != nil {
		fatal(logger, "otel", err)
	}
	providers.SetGlobal()
	outcomes, err := otel.NewOutcomeCounter(providers.MeterProvider)
	if err != nil {
		fatal(logger, "otel metrics", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		fatal(logger, "db", err)
	}
	defer conn.Close()

	signer, pub, err := security.LoadKeyPair(cfg.TokenPrivateKey, cfg.TokenPublicKey)
	if err != nil {
		fatal(logger, "token keys", err)
	}
	tokens, err := security.NewTokenCodec(signer, pub, cfg.TokenIssuer)
	if err != nil {
		fatal(logger, "token codec", err)
	}
	hasher := security.NewHasher(cfg.BcryptCost, cfg.HashWorkers)

	auditRepo := auditrepo.NewPostgresRepository(conn)
	publishers := []audit.Publisher{otel.NewAuditEmitter(providers.LoggerProvider)}
	kafkaPub := publisher.NewKafkaPublisher(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	if kafkaPub != nil {
		publishers = append(publishers, kafkaPub)
	}
	auditLogger := audit.NewLogger(auditRepo, interceptors.ClientIP, publishers...)

	users := userrepo.NewPostgresRepository(conn)
	devices := devicerepo.NewPostgresRepository(conn)
	linkages := linkagerepo.NewPostgresRepository(conn)

	var notifier userservice.Notifier
	if cfg.Env == "development" {
		notifier = userservice.LogNotifier{Logger: logger}
	}
	sessionSvc := sessionservice.NewSessionService(users, sessionrepo.NewPostgresRepository(conn), hasher, tokens, auditLogger)
	userSvc := userservice.NewUserService(users, hasher, tokens, auditLogger, notifier)
	linkageSvc := linkageservice.NewLinkageService(linkages, devices, hasher, auditLogger)
	settingSvc := settingservice.NewSettingService(linkageSvc, settingrepo.NewPostgresRepository(conn))

	checker := healthhandler.NewChecker(conn, logger)
	go checker.Run(ctx, healthInterval)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		fatal(logger, "listen", err)
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(logger, server.QuietMethods()),
			interceptors.ErrorUnary(logger, outcomes),
			interceptors.AuthUnary(sessionSvc, server.PublicMethods()),
			interceptors.AuditUnary(auditLogger, server.AuditedReads()),
		),
	)
	server.RegisterServices(s, server.Deps{
		Sessions:    sessionSvc,
		Accounts:    userSvc,
		Profiles:    userSvc,
		Linkages:    linkageSvc,
		Settings:    settingSvc,
		AuditLister: auditRepo,
		Health:      checker,
	})

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr, "env", cfg.Env)
		if err := s.Serve(lis); err != nil {
			fatal(logger, "serve", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gRPC server")
	checker.Shutdown()
	s.GracefulStop()

	time.Sleep(audit.ShutdownDrainDuration)
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Warn("close audit publisher", "error", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", "error", err)
	}
	logger.Info("gRPC server stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err)
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
