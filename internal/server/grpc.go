package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	audithandler "dispenser-identity/internal/audit/handler"
	healthhandler "dispenser-identity/internal/health/handler"
	identityhandler "dispenser-identity/internal/identity/handler"
	linkagehandler "dispenser-identity/internal/linkage/handler"
	"dispenser-identity/internal/server/rpc"
	settinghandler "dispenser-identity/internal/setting/handler"
	userhandler "dispenser-identity/internal/user/handler"
)

// Deps holds the services behind the gRPC handlers.
type Deps struct {
	Sessions identityhandler.Sessions
	Accounts identityhandler.Accounts
	Profiles userhandler.Profiles
	Linkages linkagehandler.Linkages
	Settings settinghandler.Settings
	// AuditLister backs AuditService. If nil, List returns Unimplemented.
	AuditLister audithandler.Lister
	// Health serves grpc.health.v1.Health. If nil, the health service is not registered.
	Health *healthhandler.Checker
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - dispenser.auth.v1.AuthService       → internal/identity/handler
//   - dispenser.user.v1.UserService       → internal/user/handler
//   - dispenser.linkage.v1.LinkageService → internal/linkage/handler
//   - dispenser.setting.v1.SettingService → internal/setting/handler
//   - dispenser.audit.v1.AuditService     → internal/audit/handler
//   - grpc.health.v1.Health               → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	s.RegisterService(&identityhandler.ServiceDesc, identityhandler.NewAuthServer(deps.Sessions, deps.Accounts))
	s.RegisterService(&userhandler.ServiceDesc, userhandler.NewServer(deps.Profiles))
	s.RegisterService(&linkagehandler.ServiceDesc, linkagehandler.NewServer(deps.Linkages))
	s.RegisterService(&settinghandler.ServiceDesc, settinghandler.NewServer(deps.Settings))
	s.RegisterService(&audithandler.ServiceDesc, audithandler.NewServer(deps.AuditLister))
	if deps.Health != nil {
		deps.Health.Register(s)
	}
}

// PublicMethods are the full method names reachable without a bearer token.
func PublicMethods() map[string]bool {
	return map[string]bool{
		identityhandler.MethodRegister:       true,
		identityhandler.MethodActivate:       true,
		identityhandler.MethodLogin:          true,
		healthpb.Health_Check_FullMethodName: true,
		healthpb.Health_Watch_FullMethodName: true,
	}
}

// QuietMethods are not written to the request log.
func QuietMethods() map[string]bool {
	return map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
	}
}

// AuditedReads are read-only methods recorded by the audit interceptor. Mutations are audited by the services.
func AuditedReads() map[string]bool {
	return map[string]bool{
		rpc.FullMethod(linkagehandler.ServiceName, "List"): true,
		rpc.FullMethod(linkagehandler.ServiceName, "Get"):  true,
		rpc.FullMethod(settinghandler.ServiceName, "List"): true,
		rpc.FullMethod(audithandler.ServiceName, "List"):   true,
	}
}
