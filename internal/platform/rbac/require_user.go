package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispenser-identity/internal/server/interceptors"
)

// RequireUser ensures the caller is authenticated and returns their user id.
// Ownership of individual resources is checked by the services, which filter by this id.
func RequireUser(ctx context.Context) (int64, error) {
	userID, ok := interceptors.GetUserID(ctx)
	if !ok {
		return 0, status.Error(codes.Unauthenticated, "user context required")
	}
	return userID, nil
}

// RequireSession is RequireUser plus the id of the session the caller authenticated with.
func RequireSession(ctx context.Context) (userID, sessionID int64, err error) {
	userID, err = RequireUser(ctx)
	if err != nil {
		return 0, 0, err
	}
	sessionID, ok := interceptors.GetSessionID(ctx)
	if !ok {
		return 0, 0, status.Error(codes.Unauthenticated, "session context required")
	}
	return userID, sessionID, nil
}
