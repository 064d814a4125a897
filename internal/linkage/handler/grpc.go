package handler

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispenser-identity/internal/linkage/domain"
	"dispenser-identity/internal/platform/rbac"
	"dispenser-identity/internal/server/rpc"
)

// ServiceName is the gRPC service served by Server.
const ServiceName = "dispenser.linkage.v1.LinkageService"

// Linkages is the linkage service API the handler needs.
type Linkages interface {
	Link(ctx context.Context, userID int64, identifier, password, name string) (*domain.Linkage, error)
	Get(ctx context.Context, userID, linkageID int64) (*domain.Linkage, error)
	List(ctx context.Context, userID int64) ([]*domain.Linkage, error)
	Unlink(ctx context.Context, userID, linkageID int64) error
	UpdateName(ctx context.Context, userID, linkageID int64, name string) (*domain.Linkage, error)
	UpdatePassword(ctx context.Context, userID, linkageID int64, current, next string) error
}

type LinkRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Name       string `json:"name"`
}

type LinkResponse struct {
	Linkage *Linkage `json:"linkage"`
}

type GetRequest struct {
	LinkageID int64 `json:"linkage_id"`
}

type GetResponse struct {
	Linkage *Linkage `json:"linkage"`
}

type ListRequest struct{}

type ListResponse struct {
	Linkages []*Linkage `json:"linkages"`
}

type UnlinkRequest struct {
	LinkageID int64 `json:"linkage_id"`
}

type UnlinkResponse struct{}

type RenameRequest struct {
	LinkageID int64  `json:"linkage_id"`
	Name      string `json:"name"`
}

type RenameResponse struct {
	Linkage *Linkage `json:"linkage"`
}

type UpdatePasswordRequest struct {
	LinkageID       int64  `json:"linkage_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdatePasswordResponse struct{}

// Linkage is the wire form of a linkage.
type Linkage struct {
	ID        int64      `json:"id"`
	DeviceID  int64      `json:"device_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// LinkageService is the server API for dispenser.linkage.v1.LinkageService.
type LinkageService interface {
	Link(context.Context, *LinkRequest) (*LinkResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Unlink(context.Context, *UnlinkRequest) (*UnlinkResponse, error)
	Rename(context.Context, *RenameRequest) (*RenameResponse, error)
	UpdatePassword(context.Context, *UpdatePasswordRequest) (*UpdatePasswordResponse, error)
}

// ServiceDesc describes LinkageService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkageService)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "Link", LinkageService.Link),
		rpc.Unary(ServiceName, "Get", LinkageService.Get),
		rpc.Unary(ServiceName, "List", LinkageService.List),
		rpc.Unary(ServiceName, "Unlink", LinkageService.Unlink),
		rpc.Unary(ServiceName, "Rename", LinkageService.Rename),
		rpc.Unary(ServiceName, "UpdatePassword", LinkageService.UpdatePassword),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "linkage/v1/linkage",
}

// Server implements LinkageService over the linkage service. The caller's user id always comes
// from the session context, never from the request.
type Server struct {
	linkages Linkages
}

// NewServer returns a new Linkage gRPC server.
func NewServer(linkages Linkages) *Server {
	return &Server{linkages: linkages}
}

// Link pairs the caller with a device by its identifier and password.
func (s *Server) Link(ctx context.Context, req *LinkRequest) (*LinkResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if req.Identifier == "" || req.Password == "" || name == "" {
		return nil, status.Error(codes.InvalidArgument, "identifier, password and name are required")
	}
	l, err := s.linkages.Link(ctx, userID, req.Identifier, req.Password, name)
	if err != nil {
		return nil, err
	}
	return &LinkResponse{Linkage: linkageToMessage(l)}, nil
}

// Get returns one of the caller's linkages.
func (s *Server) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	l, err := s.linkages.Get(ctx, userID, req.LinkageID)
	if err != nil {
		return nil, err
	}
	return &GetResponse{Linkage: linkageToMessage(l)}, nil
}

// List returns the caller's linkages.
func (s *Server) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.linkages.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*Linkage, 0, len(list))
	for _, l := range list {
		out = append(out, linkageToMessage(l))
	}
	return &ListResponse{Linkages: out}, nil
}

// Unlink removes one of the caller's linkages.
func (s *Server) Unlink(ctx context.Context, req *UnlinkRequest) (*UnlinkResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.linkages.Unlink(ctx, userID, req.LinkageID); err != nil {
		return nil, err
	}
	return &UnlinkResponse{}, nil
}

// Rename changes the caller's display name for a linkage.
func (s *Server) Rename(ctx context.Context, req *RenameRequest) (*RenameResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	l, err := s.linkages.UpdateName(ctx, userID, req.LinkageID, name)
	if err != nil {
		return nil, err
	}
	return &RenameResponse{Linkage: linkageToMessage(l)}, nil
}

// UpdatePassword rotates the device password behind one of the caller's linkages.
func (s *Server) UpdatePassword(ctx context.Context, req *UpdatePasswordRequest) (*UpdatePasswordResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return nil, status.Error(codes.InvalidArgument, "current_password and new_password are required")
	}
	if err := s.linkages.UpdatePassword(ctx, userID, req.LinkageID, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}
	return &UpdatePasswordResponse{}, nil
}

func linkageToMessage(l *domain.Linkage) *Linkage {
	if l == nil {
		return nil
	}
	return &Linkage{
		ID:        l.ID,
		DeviceID:  l.DeviceID,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
