package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"dispenser-identity/internal/platform/rbac"
	"dispenser-identity/internal/server/rpc"
	"dispenser-identity/internal/setting/domain"
)

// ServiceName is the gRPC service served by Server.
const ServiceName = "dispenser.setting.v1.SettingService"

// Settings is the setting service API the handler needs.
type Settings interface {
	Create(ctx context.Context, userID, linkageID int64, hour, minute int) (*domain.Setting, error)
	List(ctx context.Context, userID, linkageID int64) ([]*domain.Setting, error)
	Activate(ctx context.Context, userID, linkageID, settingID int64) (*domain.Setting, error)
	Deactivate(ctx context.Context, userID, linkageID, settingID int64) (*domain.Setting, error)
	Delete(ctx context.Context, userID, linkageID, settingID int64) error
}

type CreateRequest struct {
	LinkageID int64 `json:"linkage_id"`
	Hour      int   `json:"hour"`
	Minute    int   `json:"minute"`
}

type ListRequest struct {
	LinkageID int64 `json:"linkage_id"`
}

type ListResponse struct {
	Settings []*Setting `json:"settings"`
}

// SettingRequest addresses one setting of a linkage.
type SettingRequest struct {
	LinkageID int64 `json:"linkage_id"`
	SettingID int64 `json:"setting_id"`
}

type SettingResponse struct {
	Setting *Setting `json:"setting"`
}

type DeleteResponse struct{}

// Setting is the wire form of a setting.
type Setting struct {
	ID        int64      `json:"id"`
	LinkageID int64      `json:"linkage_id"`
	Hour      int        `json:"hour"`
	Minute    int        `json:"minute"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SettingService is the server API for dispenser.setting.v1.SettingService.
type SettingService interface {
	Create(context.Context, *CreateRequest) (*SettingResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Activate(context.Context, *SettingRequest) (*SettingResponse, error)
	Deactivate(context.Context, *SettingRequest) (*SettingResponse, error)
	Delete(context.Context, *SettingRequest) (*DeleteResponse, error)
}

// ServiceDesc describes SettingService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SettingService)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "Create", SettingService.Create),
		rpc.Unary(ServiceName, "List", SettingService.List),
		rpc.Unary(ServiceName, "Activate", SettingService.Activate),
		rpc.Unary(ServiceName, "Deactivate", SettingService.Deactivate),
		rpc.Unary(ServiceName, "Delete", SettingService.Delete),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "setting/v1/setting",
}

// Server implements SettingService over the setting service.
type Server struct {
	settings Settings
}

// NewServer returns a new Setting gRPC server.
func NewServer(settings Settings) *Server {
	return &Server{settings: settings}
}

// Create adds an inactive schedule entry to one of the caller's linkages.
func (s *Server) Create(ctx context.Context, req *CreateRequest) (*SettingResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	setting, err := s.settings.Create(ctx, userID, req.LinkageID, req.Hour, req.Minute)
	if err != nil {
		return nil, err
	}
	return &SettingResponse{Setting: settingToMessage(setting)}, nil
}

// List returns the schedule of one of the caller's linkages.
func (s *Server) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.settings.List(ctx, userID, req.LinkageID)
	if err != nil {
		return nil, err
	}
	out := make([]*Setting, 0, len(list))
	for _, st := range list {
		out = append(out, settingToMessage(st))
	}
	return &ListResponse{Settings: out}, nil
}

func (s *Server) Activate(ctx context.Context, req *SettingRequest) (*SettingResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	setting, err := s.settings.Activate(ctx, userID, req.LinkageID, req.SettingID)
	if err != nil {
		return nil, err
	}
	return &SettingResponse{Setting: settingToMessage(setting)}, nil
}

func (s *Server) Deactivate(ctx context.Context, req *SettingRequest) (*SettingResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	setting, err := s.settings.Deactivate(ctx, userID, req.LinkageID, req.SettingID)
	if err != nil {
		return nil, err
	}
	return &SettingResponse{Setting: settingToMessage(setting)}, nil
}

func (s *Server) Delete(ctx context.Context, req *SettingRequest) (*DeleteResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Delete(ctx, userID, req.LinkageID, req.SettingID); err != nil {
		return nil, err
	}
	return &DeleteResponse{}, nil
}

func settingToMessage(s *domain.Setting) *Setting {
	if s == nil {
		return nil
	}
	return &Setting{
		ID:        s.ID,
		LinkageID: s.LinkageID,
		Hour:      s.Hour,
		Minute:    s.Minute,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
