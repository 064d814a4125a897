package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dispenser-identity/internal/audit"
	auditdomain "dispenser-identity/internal/audit/domain"
	devicedomain "dispenser-identity/internal/device/domain"
	"dispenser-identity/internal/linkage/domain"
	"dispenser-identity/internal/security"
)

// Sentinel errors for the linkage service; the gRPC error interceptor maps them to codes.
var (
	ErrAlreadyLinked     = errors.New("device already linked to this user")
	ErrLinkageNotFound   = errors.New("linkage not found")
	ErrIncorrectPassword = errors.New("incorrect current password")
)

// DeviceRepo is the minimal device repository needed by the linkage service.
type DeviceRepo interface {
	GetByID(ctx context.Context, id int64) (*devicedomain.Device, error)
	GetByIdentifier(ctx context.Context, identifier string) (*devicedomain.Device, error)
	UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error)
}

// LinkageRepo is the minimal linkage repository needed by the linkage service.
type LinkageRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Linkage, error)
	GetByUserAndDevice(ctx context.Context, userID, deviceID int64) (*domain.Linkage, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Linkage, error)
	Create(ctx context.Context, l *domain.Linkage) error
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// LinkageService links users to devices by device credential and manages the resulting linkages.
// Every operation on an existing linkage is gated on the caller owning it.
type LinkageService struct {
	linkageRepo LinkageRepo
	deviceRepo  DeviceRepo
	hasher      *security.Hasher
	audit       audit.AuditLogger
	now         func() time.Time
}

// NewLinkageService returns a LinkageService with the given dependencies. auditLogger may be nil.
func NewLinkageService(linkageRepo LinkageRepo, deviceRepo DeviceRepo, hasher *security.Hasher, auditLogger audit.AuditLogger) *LinkageService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &LinkageService{
		linkageRepo: linkageRepo,
		deviceRepo:  deviceRepo,
		hasher:      hasher,
		audit:       auditLogger,
		now:         time.Now,
	}
}

// Link pairs userID with the device identified by identifier once password verifies.
// Checks run in a fixed order: device existence, credential, then uniqueness. An unknown
// identifier and a wrong password both fail with security.ErrInvalidCredentials.
func (s *LinkageService) Link(ctx context.Context, userID int64, identifier, password, name string) (*domain.Linkage, error) {
	device, err := s.deviceRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if device == nil {
		if err := s.hasher.VerifyAbsent(ctx, []byte(password)); err != nil {
			return nil, err
		}
		s.audit.LogEvent(ctx, userID, auditdomain.ActionLinkFailure, "linkage", "")
		return nil, security.ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(ctx, []byte(password), device.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify device %d: %w", device.ID, err)
	}
	if !ok {
		s.audit.LogEvent(ctx, userID, auditdomain.ActionLinkFailure, "linkage", deviceMetadata(device.ID))
		return nil, security.ErrInvalidCredentials
	}

	existing, err := s.linkageRepo.GetByUserAndDevice(ctx, userID, device.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyLinked
	}
	l := &domain.Linkage{
		UserID:   userID,
		DeviceID: device.ID,
		Name:     name,
	}
	if err := s.linkageRepo.Create(ctx, l); err != nil {
		// The unique index is the arbiter when two links for the same pair race past the check above.
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, ErrAlreadyLinked
		}
		return nil, err
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionLink, "linkage", linkageMetadata(l.ID))
	return l, nil
}

// Get returns the linkage if userID owns it. Absent and foreign linkages are both ErrLinkageNotFound.
func (s *LinkageService) Get(ctx context.Context, userID, linkageID int64) (*domain.Linkage, error) {
	l, err := s.linkageRepo.GetByID(ctx, linkageID)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(userID) {
		return nil, ErrLinkageNotFound
	}
	return l, nil
}

// List returns the caller's linkages.
func (s *LinkageService) List(ctx context.Context, userID int64) ([]*domain.Linkage, error) {
	return s.linkageRepo.ListByUser(ctx, userID)
}

// Unlink deletes a linkage owned by userID. The device and other users' linkages are untouched.
func (s *LinkageService) Unlink(ctx context.Context, userID, linkageID int64) error {
	l, err := s.Get(ctx, userID, linkageID)
	if err != nil {
		return err
	}
	if err := s.linkageRepo.Delete(ctx, l.ID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionUnlink, "linkage", linkageMetadata(l.ID))
	return nil
}

// UpdateName sets the caller's display name for a linkage they own.
func (s *LinkageService) UpdateName(ctx context.Context, userID, linkageID int64, name string) (*domain.Linkage, error) {
	l, err := s.Get(ctx, userID, linkageID)
	if err != nil {
		return nil, err
	}
	if err := s.linkageRepo.UpdateName(ctx, l.ID, name); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionRename, "linkage", linkageMetadata(l.ID))
	updated := *l
	updated.Name = name
	now := s.now().UTC()
	updated.UpdatedAt = &now
	return &updated, nil
}

// UpdatePassword rotates the device password behind a linkage the caller owns. current must
// verify against the device's stored hash; the device row is shared, so the new password
// applies to every linkage of that device. The stored hash is swapped only if it is still the
// one current was verified against, so two concurrent rotations cannot both succeed.
func (s *LinkageService) UpdatePassword(ctx context.Context, userID, linkageID int64, current, next string) error {
	l, err := s.Get(ctx, userID, linkageID)
	if err != nil {
		return err
	}
	device, err := s.deviceRepo.GetByID(ctx, l.DeviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return ErrLinkageNotFound
	}
	ok, err := s.hasher.Verify(ctx, []byte(current), device.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify device %d: %w", device.ID, err)
	}
	if !ok {
		s.audit.LogEvent(ctx, userID, auditdomain.ActionPasswordFailure, "linkage", linkageMetadata(l.ID))
		return ErrIncorrectPassword
	}
	newHash, err := s.hasher.Hash(ctx, []byte(next))
	if err != nil {
		return err
	}
	swapped, err := s.deviceRepo.UpdatePasswordHash(ctx, device.ID, device.PasswordHash, newHash)
	if err != nil {
		return err
	}
	if !swapped {
		return ErrIncorrectPassword
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionPasswordRotated, "linkage", linkageMetadata(l.ID))
	return nil
}

func linkageMetadata(id int64) string {
	return `{"linkage_id":` + strconv.FormatInt(id, 10) + `}`
}

func deviceMetadata(id int64) string {
	return `{"device_id":` + strconv.FormatInt(id, 10) + `}`
}
