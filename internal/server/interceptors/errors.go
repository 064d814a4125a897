package interceptors

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	devicedomain "dispenser-identity/internal/device/domain"
	deviceservice "dispenser-identity/internal/device/service"
	linkageservice "dispenser-identity/internal/linkage/service"
	"dispenser-identity/internal/security"
	sessionservice "dispenser-identity/internal/session/service"
	settingdomain "dispenser-identity/internal/setting/domain"
	settingservice "dispenser-identity/internal/setting/service"
	userdomain "dispenser-identity/internal/user/domain"
	userservice "dispenser-identity/internal/user/service"
)

// Outcome labels for requests that did not end in a named error.
const (
	OutcomeOK       = "ok"
	OutcomeStatus   = "status"
	OutcomeCanceled = "canceled"
	OutcomeInternal = "internal"
)

// OutcomeRecorder counts request outcomes per method. telemetry/otel.OutcomeCounter implements it.
type OutcomeRecorder interface {
	Add(ctx context.Context, method, outcome string)
}

type namedError struct {
	err     error
	code    codes.Code
	outcome string
}

// namedErrors is the complete table of service errors a client may see.
var namedErrors = []namedError{
	{security.ErrInvalidCredentials, codes.Unauthenticated, "invalid_credentials"},
	{sessionservice.ErrInactiveUser, codes.FailedPrecondition, "inactive_user"},
	{sessionservice.ErrInvalidToken, codes.Unauthenticated, "invalid_token"},
	{sessionservice.ErrExpiredSession, codes.Unauthenticated, "expired_session"},
	{ErrTokenNotFound, codes.Unauthenticated, "token_not_found"},
	{linkageservice.ErrAlreadyLinked, codes.AlreadyExists, "already_linked"},
	{linkageservice.ErrLinkageNotFound, codes.NotFound, "linkage_not_found"},
	{linkageservice.ErrIncorrectPassword, codes.PermissionDenied, "incorrect_password"},
	{devicedomain.ErrDuplicateIdentifier, codes.AlreadyExists, "duplicate_identifier"},
	{userdomain.ErrDuplicateEmail, codes.AlreadyExists, "duplicate_email"},
	{settingservice.ErrSettingNotFound, codes.NotFound, "setting_not_found"},
	{settingservice.ErrSettingAlreadyActive, codes.FailedPrecondition, "setting_already_active"},
	{settingservice.ErrSettingAlreadyInactive, codes.FailedPrecondition, "setting_already_inactive"},
	{settingservice.ErrDeleteActiveSetting, codes.FailedPrecondition, "delete_active_setting"},
	{settingdomain.ErrInvalidTime, codes.InvalidArgument, "invalid_time"},
	{userservice.ErrInvalidToken, codes.InvalidArgument, "invalid_activation_token"},
	{userservice.ErrUserNotFound, codes.NotFound, "user_not_found"},
	{deviceservice.ErrInvalidDevice, codes.InvalidArgument, "invalid_device"},
}

// ToStatus returns the outcome label err is counted under and the gRPC status error sent to the client.
// Named errors keep their own message; anything unrecognised becomes Internal "internal error"
// so that no internal detail reaches the client.
func ToStatus(err error) (string, error) {
	if err == nil {
		return OutcomeOK, nil
	}
	for _, n := range namedErrors {
		if errors.Is(err, n.err) {
			return n.outcome, status.Error(n.code, n.err.Error())
		}
	}
	if _, ok := status.FromError(err); ok {
		return OutcomeStatus, err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled, status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled, status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	return OutcomeInternal, status.Error(codes.Internal, "internal error")
}

// ErrorUnary returns a unary server interceptor that maps handler and gate errors to gRPC status
// codes. Unclassified faults are logged with the method and caller. recorder may be nil.
func ErrorUnary(logger *slog.Logger, recorder OutcomeRecorder) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		outcome, mapped := ToStatus(err)
		if outcome == OutcomeInternal {
			userID, _ := GetUserID(ctx)
			logger.ErrorContext(ctx, "unhandled error",
				"method", info.FullMethod,
				"user_id", userID,
				"error", err,
			)
		}
		if recorder != nil {
			recorder.Add(ctx, info.FullMethod, outcome)
		}
		if mapped != nil {
			return nil, mapped
		}
		return resp, nil
	}
}
