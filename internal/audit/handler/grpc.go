package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispenser-identity/internal/audit/domain"
	"dispenser-identity/internal/platform/rbac"
	"dispenser-identity/internal/server/rpc"
)

// ServiceName is the gRPC service served by Server.
const ServiceName = "dispenser.audit.v1.AuditService"

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Lister reads a user's audit trail, newest first.
type Lister interface {
	ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*domain.AuditLog, error)
}

type ListRequest struct {
	PageSize int32 `json:"page_size"`
	Offset   int32 `json:"offset"`
}

type ListResponse struct {
	Entries    []*Entry `json:"entries"`
	NextOffset int32    `json:"next_offset,omitempty"`
}

// Entry is the wire form of an audit log entry.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditService is the server API for dispenser.audit.v1.AuditService.
type AuditService interface {
	List(context.Context, *ListRequest) (*ListResponse, error)
}

// ServiceDesc describes AuditService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuditService)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "List", AuditService.List),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "audit/v1/audit",
}

// Server implements AuditService: a user can page through their own audit trail.
type Server struct {
	repo Lister
}

// NewServer returns a new Audit gRPC server. Pass nil repo for stub (Unimplemented).
func NewServer(repo Lister) *Server {
	return &Server{repo: repo}
}

// List returns a page of the caller's audit entries. NextOffset is set when a full page was returned.
func (s *Server) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if s.repo == nil {
		return nil, status.Error(codes.Unimplemented, "method List not implemented")
	}
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Offset < 0 {
		return nil, status.Error(codes.InvalidArgument, "offset must not be negative")
	}
	limit := req.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	list, err := s.repo.ListByUser(ctx, userID, limit, req.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(list))
	for _, a := range list {
		out = append(out, &Entry{
			ID:        a.ID,
			Action:    a.Action,
			Resource:  a.Resource,
			IP:        a.IP,
			Metadata:  a.Metadata,
			CreatedAt: a.CreatedAt,
		})
	}
	resp := &ListResponse{Entries: out}
	if int32(len(list)) == limit {
		resp.NextOffset = req.Offset + limit
	}
	return resp, nil
}
