package server

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "dispenser-identity/internal/health/handler"
	identityhandler "dispenser-identity/internal/identity/handler"
	linkagehandler "dispenser-identity/internal/linkage/handler"
	"dispenser-identity/internal/server/rpc"
)

// mockServiceRegistrar implements grpc.ServiceRegistrar for testing.
type mockServiceRegistrar struct {
	callCount int
	services  []string
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.callCount++
	m.services = append(m.services, desc.ServiceName)
}

type okPinger struct{}

func (okPinger) PingContext(ctx context.Context) error { return nil }

func TestRegisterServices_WithoutHealth(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	// Nil dependencies must not panic; handlers check them per call.
	RegisterServices(mockReg, Deps{})

	if mockReg.callCount != 5 {
		t.Errorf("RegisterService called %d times, want 5", mockReg.callCount)
	}
	want := []string{
		"dispenser.auth.v1.AuthService",
		"dispenser.user.v1.UserService",
		"dispenser.linkage.v1.LinkageService",
		"dispenser.setting.v1.SettingService",
		"dispenser.audit.v1.AuditService",
	}
	for i, name := range want {
		if i >= len(mockReg.services) || mockReg.services[i] != name {
			t.Errorf("service[%d] = %v, want %q", i, mockReg.services, name)
		}
	}
}

func TestRegisterServices_WithHealth(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	RegisterServices(mockReg, Deps{Health: healthhandler.NewChecker(okPinger{}, nil)})

	if mockReg.callCount != 6 {
		t.Errorf("RegisterService called %d times, want 6", mockReg.callCount)
	}
	if last := mockReg.services[len(mockReg.services)-1]; last != healthpb.Health_ServiceDesc.ServiceName {
		t.Errorf("last service = %q, want health", last)
	}
}

func TestPublicMethods(t *testing.T) {
	public := PublicMethods()
	for _, m := range []string{
		identityhandler.MethodRegister,
		identityhandler.MethodActivate,
		identityhandler.MethodLogin,
		healthpb.Health_Check_FullMethodName,
	} {
		if !public[m] {
			t.Errorf("%s should be public", m)
		}
	}
	for _, m := range []string{
		rpc.FullMethod(identityhandler.ServiceName, "Logout"),
		rpc.FullMethod(linkagehandler.ServiceName, "Link"),
		rpc.FullMethod(linkagehandler.ServiceName, "List"),
	} {
		if public[m] {
			t.Errorf("%s must require a bearer token", m)
		}
	}
}

func TestAuditedReads_AreNotPublic(t *testing.T) {
	public := PublicMethods()
	for m := range AuditedReads() {
		if public[m] {
			t.Errorf("%s is audited but public", m)
		}
	}
}
