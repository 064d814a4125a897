package handler

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispenser-identity/internal/platform/rbac"
	"dispenser-identity/internal/server/rpc"
	"dispenser-identity/internal/user/domain"
)

// ServiceName is the gRPC service served by Server.
const ServiceName = "dispenser.user.v1.UserService"

// Profiles is the user service API the handler needs.
type Profiles interface {
	Get(ctx context.Context, userID int64) (*domain.User, error)
	UpdateName(ctx context.Context, userID int64, name string) (*domain.User, error)
}

type GetProfileRequest struct{}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type ProfileResponse struct {
	User *User `json:"user"`
}

// User is the wire form of a user. The password hash never leaves the service.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UserToMessage converts a domain user to its wire form.
func UserToMessage(u *domain.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserService is the server API for dispenser.user.v1.UserService.
type UserService interface {
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
}

// ServiceDesc describes UserService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserService)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetProfile", UserService.GetProfile),
		rpc.Unary(ServiceName, "UpdateProfile", UserService.UpdateProfile),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "user/v1/user",
}

// Server implements UserService for the authenticated caller's own profile.
type Server struct {
	profiles Profiles
}

// NewServer returns a new User gRPC server.
func NewServer(profiles Profiles) *Server {
	return &Server{profiles: profiles}
}

// GetProfile returns the caller's profile.
func (s *Server) GetProfile(ctx context.Context, req *GetProfileRequest) (*ProfileResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{User: UserToMessage(u)}, nil
}

// UpdateProfile changes the caller's display name.
func (s *Server) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*ProfileResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	u, err := s.profiles.UpdateName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{User: UserToMessage(u)}, nil
}
