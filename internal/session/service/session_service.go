package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dispenser-identity/internal/audit"
	auditdomain "dispenser-identity/internal/audit/domain"
	"dispenser-identity/internal/security"
	sessiondomain "dispenser-identity/internal/session/domain"
	userdomain "dispenser-identity/internal/user/domain"
)

// Sentinel errors for the session service; the gRPC error interceptor maps them to codes.
var (
	ErrInactiveUser   = errors.New("user is not active")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredSession = errors.New("session expired")
)

// Issued is the result of a successful login.
type Issued struct {
	Session *sessiondomain.Session
	User    *userdomain.User
	Token   string
}

// UserRepo is the minimal user repository needed by the session service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// SessionRepo is the minimal session repository needed by the session service.
type SessionRepo interface {
	Create(ctx context.Context, userID int64) (*sessiondomain.Session, error)
	GetByID(ctx context.Context, id int64) (*sessiondomain.Session, error)
	Delete(ctx context.Context, id int64) error
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionService issues sessions from user credentials and resolves bearer tokens back to users.
type SessionService struct {
	userRepo    UserRepo
	sessionRepo SessionRepo
	hasher      *security.Hasher
	tokens      *security.TokenCodec
	audit       audit.AuditLogger
	now         func() time.Time
}

// NewSessionService returns a SessionService with the given dependencies. auditLogger may be nil.
func NewSessionService(
	userRepo UserRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenCodec,
	auditLogger audit.AuditLogger,
) *SessionService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &SessionService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		tokens:      tokens,
		audit:       auditLogger,
		now:         time.Now,
	}
}

// CreateFromCredentials logs a user in. An unknown email and a wrong password both fail with
// security.ErrInvalidCredentials after the same amount of hashing work. Account status is
// checked only once the password has verified.
func (s *SessionService) CreateFromCredentials(ctx context.Context, email, password string) (*Issued, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if err := s.hasher.VerifyAbsent(ctx, []byte(password)); err != nil {
			return nil, err
		}
		s.audit.LogEvent(ctx, 0, auditdomain.ActionLoginFailure, "session", "")
		return nil, security.ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(ctx, []byte(password), user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify user %d: %w", user.ID, err)
	}
	if !ok {
		s.audit.LogEvent(ctx, user.ID, auditdomain.ActionLoginFailure, "session", "")
		return nil, security.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrInactiveUser
	}

	session, err := s.sessionRepo.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Encode(map[string]any{security.ClaimSessionID: session.ID}, security.TokenTypeAuth)
	if err != nil {
		return nil, fmt.Errorf("encode session token: %w", err)
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionLoginSuccess, "session", sessionMetadata(session.ID))
	return &Issued{Session: session, User: user, Token: token}, nil
}

// Resolve returns the user a bearer token authenticates.
func (s *SessionService) Resolve(ctx context.Context, token string) (*userdomain.User, error) {
	user, _, err := s.ResolveSession(ctx, token)
	return user, err
}

// ResolveSession returns the user and session a bearer token authenticates.
// Undecodable tokens, non-auth tokens and tokens without a session id are ErrInvalidToken;
// a deleted session, or a session whose user no longer exists, is ErrExpiredSession.
func (s *SessionService) ResolveSession(ctx context.Context, token string) (*userdomain.User, *sessiondomain.Session, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	if security.TypeOf(claims) != security.TokenTypeAuth {
		return nil, nil, ErrInvalidToken
	}
	sid, ok := security.IntClaim(claims, security.ClaimSessionID)
	if !ok {
		return nil, nil, ErrInvalidToken
	}
	session, err := s.sessionRepo.GetByID(ctx, sid)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrExpiredSession
	}
	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrExpiredSession
	}
	return user, session, nil
}

// Revoke deletes the session so every token naming it resolves to ErrExpiredSession.
func (s *SessionService) Revoke(ctx context.Context, userID, sessionID int64) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionLogout, "session", sessionMetadata(sessionID))
	return nil
}

// Sweep deletes sessions older than maxAge and returns how many were removed.
// A non-positive maxAge disables expiry.
func (s *SessionService) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	return s.sessionRepo.DeleteCreatedBefore(ctx, s.now().UTC().Add(-maxAge))
}

func sessionMetadata(id int64) string {
	return `{"session_id":` + strconv.FormatInt(id, 10) + `}`
}
