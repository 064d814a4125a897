package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	mu      sync.Mutex
	pingErr error
	calls   int
}

func (m *mockPinger) PingContext(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.pingErr
}

func (m *mockPinger) set(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func check(t *testing.T, c *Checker) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return resp.GetStatus()
}

func TestChecker_FollowsPing(t *testing.T) {
	pinger := &mockPinger{}
	c := NewChecker(pinger, nil)
	if got := check(t, c); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("before first probe = %v, want NOT_SERVING", got)
	}
	if got := c.Probe(context.Background()); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("Probe = %v", got)
	}
	if got := check(t, c); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("after ok probe = %v, want SERVING", got)
	}

	pinger.set(errors.New("connection refused"))
	c.Probe(context.Background())
	if got := check(t, c); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("after failed probe = %v, want NOT_SERVING", got)
	}
}

func TestChecker_NilPinger(t *testing.T) {
	c := NewChecker(nil, nil)
	if got := c.Probe(context.Background()); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Probe = %v, want SERVING", got)
	}
}

func TestChecker_RunStopsWithContext(t *testing.T) {
	pinger := &mockPinger{}
	c := NewChecker(pinger, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	pinger.mu.Lock()
	defer pinger.mu.Unlock()
	if pinger.calls < 2 {
		t.Errorf("pings = %d, want periodic probes", pinger.calls)
	}
}

func TestChecker_Shutdown(t *testing.T) {
	c := NewChecker(nil, nil)
	c.Probe(context.Background())
	c.Shutdown()
	c.Probe(context.Background())
	if got := check(t, c); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("after Shutdown = %v, want NOT_SERVING", got)
	}
}
