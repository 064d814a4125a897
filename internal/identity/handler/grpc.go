package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispenser-identity/internal/platform/rbac"
	"dispenser-identity/internal/server/rpc"
	sessionservice "dispenser-identity/internal/session/service"
	userdomain "dispenser-identity/internal/user/domain"
	userhandler "dispenser-identity/internal/user/handler"
	userservice "dispenser-identity/internal/user/service"
)

// ServiceName is the gRPC service served by AuthServer.
const ServiceName = "dispenser.auth.v1.AuthService"

// Full method names that bypass the session gate.
var (
	MethodRegister = rpc.FullMethod(ServiceName, "Register")
	MethodActivate = rpc.FullMethod(ServiceName, "Activate")
	MethodLogin    = rpc.FullMethod(ServiceName, "Login")
)

// Sessions is the part of the session service AuthServer uses.
type Sessions interface {
	CreateFromCredentials(ctx context.Context, email, password string) (*sessionservice.Issued, error)
	Revoke(ctx context.Context, userID, sessionID int64) error
}

// Accounts is the part of the user service AuthServer uses.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*userservice.Registration, error)
	Activate(ctx context.Context, token string) (*userdomain.User, error)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User *userhandler.User `json:"user"`
}

type ActivateRequest struct {
	Token string `json:"token"`
}

type ActivateResponse struct {
	User *userhandler.User `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string            `json:"token"`
	SessionID int64             `json:"session_id"`
	User      *userhandler.User `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

// AuthService is the server API for dispenser.auth.v1.AuthService.
type AuthService interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Activate(context.Context, *ActivateRequest) (*ActivateResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
}

// ServiceDesc describes AuthService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthService)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "Register", AuthService.Register),
		rpc.Unary(ServiceName, "Activate", AuthService.Activate),
		rpc.Unary(ServiceName, "Login", AuthService.Login),
		rpc.Unary(ServiceName, "Logout", AuthService.Logout),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/auth",
}

// AuthServer implements AuthService: registration, activation, login and logout.
type AuthServer struct {
	sessions Sessions
	accounts Accounts
}

// NewAuthServer returns a new Auth gRPC server.
func NewAuthServer(sessions Sessions, accounts Accounts) *AuthServer {
	return &AuthServer{sessions: sessions, accounts: accounts}
}

// Register creates a pending account. The activation token is delivered out of band.
func (s *AuthServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}
	reg, err := s.accounts.Register(ctx, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{User: userhandler.UserToMessage(reg.User)}, nil
}

// Activate marks the account named by an activation token active.
func (s *AuthServer) Activate(ctx context.Context, req *ActivateRequest) (*ActivateResponse, error) {
	if req.Token == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}
	u, err := s.accounts.Activate(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	return &ActivateResponse{User: userhandler.UserToMessage(u)}, nil
}

// Login exchanges email and password for a session bearer token.
func (s *AuthServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}
	issued, err := s.sessions.CreateFromCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     issued.Token,
		SessionID: issued.Session.ID,
		User:      userhandler.UserToMessage(issued.User),
	}, nil
}

// Logout revokes the session the caller authenticated with.
func (s *AuthServer) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	userID, sessionID, err := rbac.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Revoke(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return &LogoutResponse{}, nil
}
