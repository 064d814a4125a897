package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	sessiondomain "dispenser-identity/internal/session/domain"
	userdomain "dispenser-identity/internal/user/domain"
)

// ErrTokenNotFound is returned for protected methods when no bearer token is present.
// It is decided before any token decoding happens.
var ErrTokenNotFound = errors.New("authorization token not found")

const bearerPrefix = "bearer "

// SessionResolver resolves a bearer token to its user and session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*userdomain.User, *sessiondomain.Session, error)
}

// AuthUnary returns a unary server interceptor that resolves the Bearer token from gRPC metadata
// and stores the caller's identity in the context for protected RPCs.
// publicMethods is the set of full method names that do not require a Bearer token
// (e.g. AuthService Register, Activate, Login; grpc.health.v1.Health/Check).
// Resolver errors are returned unchanged; ErrorUnary maps them to status codes.
func AuthUnary(resolver SessionResolver, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		token := extractBearer(ctx)
		if token == "" {
			return nil, ErrTokenNotFound
		}
		user, session, err := resolver.ResolveSession(ctx, token)
		if err != nil {
			return nil, err
		}
		ctx = WithIdentity(ctx, user.ID, session.ID, user)
		return handler(ctx, req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
