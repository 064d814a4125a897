package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"dispenser-identity/internal/audit"
	auditdomain "dispenser-identity/internal/audit/domain"
	"dispenser-identity/internal/security"
	"dispenser-identity/internal/user/domain"
)

// ErrInvalidToken is returned by Activate for tokens that are malformed, not activation tokens,
// or name no existing user.
var ErrInvalidToken = errors.New("invalid activation token")

// Registration is the outcome of Register. Delivering ActivationToken (by email) is the caller's job.
type Registration struct {
	User            *domain.User
	ActivationToken string
}

// ErrUserNotFound is returned by profile operations when the user row is gone.
var ErrUserNotFound = errors.New("user not found")

// UserRepo is the minimal user repository needed by the user service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	SetStatus(ctx context.Context, id int64, status domain.UserStatus) error
}

// Notifier delivers activation tokens to new users (email in production). Delivery failures
// are logged; the registration itself stands.
type Notifier interface {
	SendActivation(ctx context.Context, u *domain.User, token string) error
}

// UserService implements account registration, activation and profile updates.
type UserService struct {
	repo     UserRepo
	hasher   *security.Hasher
	tokens   *security.TokenCodec
	audit    audit.AuditLogger
	notifier Notifier
	now      func() time.Time
}

// NewUserService returns a UserService with the given dependencies. auditLogger and notifier may be nil.
func NewUserService(repo UserRepo, hasher *security.Hasher, tokens *security.TokenCodec, auditLogger audit.AuditLogger, notifier Notifier) *UserService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		audit:    auditLogger,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates a pending user and returns an activation token for it.
// A taken email fails with domain.ErrDuplicateEmail.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*Registration, error) {
	hash, err := s.hasher.Hash(ctx, []byte(password))
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusPending,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	token, err := s.tokens.Encode(map[string]any{security.ClaimUserID: u.ID}, security.TokenTypeActivation)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, u.ID, auditdomain.ActionRegister, "user", "")
	if s.notifier != nil {
		if err := s.notifier.SendActivation(ctx, u, token); err != nil {
			slog.WarnContext(ctx, "activation delivery failed", "user_id", u.ID, "error", err)
		}
	}
	return &Registration{User: u, ActivationToken: token}, nil
}

// Activate marks the user named by an activation token active. Auth tokens are rejected.
// Activating an already active user succeeds without writing.
func (s *UserService) Activate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil || security.TypeOf(claims) != security.TokenTypeActivation {
		return nil, ErrInvalidToken
	}
	uid, ok := security.IntClaim(claims, security.ClaimUserID)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidToken
	}
	if u.IsActive() {
		return u, nil
	}
	if err := s.repo.SetStatus(ctx, u.ID, domain.UserStatusActive); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, u.ID, auditdomain.ActionActivate, "user", `{"user_id":`+strconv.FormatInt(u.ID, 10)+`}`)
	activated := *u
	activated.Status = domain.UserStatusActive
	return &activated, nil
}

// Get returns the user's profile.
func (s *UserService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateName changes the user's display name.
func (s *UserService) UpdateName(ctx context.Context, userID int64, name string) (*domain.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated := *u
	updated.Name = name
	now := s.now().UTC()
	updated.UpdatedAt = &now
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// LogNotifier writes activation tokens to the log instead of sending them. Development only.
type LogNotifier struct {
	Logger *slog.Logger
}

// SendActivation logs the token at debug level.
func (n LogNotifier) SendActivation(ctx context.Context, u *domain.User, token string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "activation token issued", "user_id", u.ID, "email", u.Email, "token", token)
	return nil
}
