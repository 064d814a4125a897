package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// pingTimeout bounds a single readiness probe of the database.
const pingTimeout = 2 * time.Second

// Pinger is used for readiness (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker serves the standard grpc.health.v1.Health service. The overall status ("") follows
// a periodic database ping; a nil pinger reports SERVING.
type Checker struct {
	health *health.Server
	pinger Pinger
	log    *slog.Logger
}

// NewChecker returns a Checker. The status is NOT_SERVING until the first probe succeeds.
func NewChecker(pinger Pinger, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &Checker{health: hs, pinger: pinger, log: logger}
}

// Register adds the health service to s.
func (c *Checker) Register(s grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(s, c.health)
}

// Probe pings the database once and updates the serving status.
func (c *Checker) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if c.pinger != nil {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := c.pinger.PingContext(pctx); err != nil {
			c.log.WarnContext(ctx, "readiness probe failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	c.health.SetServingStatus("", st)
	return st
}

// Run probes every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.Probe(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Probe(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so load balancers drain before the server stops.
func (c *Checker) Shutdown() {
	c.health.Shutdown()
}
