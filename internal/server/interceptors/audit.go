package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"dispenser-identity/internal/audit"
)

// AuditUnary returns a unary server interceptor that records an audit entry after each successful
// call to one of auditMethods. Services already audit their own state changes; this covers reads
// (listing linkages, settings or the audit trail) that otherwise leave no record.
// Action and resource are derived from the method name. Only authenticated calls are recorded.
func AuditUnary(logger audit.AuditLogger, auditMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if logger == nil || err != nil || !auditMethods[info.FullMethod] {
			return resp, err
		}
		userID, ok := GetUserID(ctx)
		if !ok {
			return resp, err
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		logger.LogEvent(ctx, userID, ar.Action, ar.Resource, "")
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
