package service

import (
	"context"
	"errors"

	linkagedomain "dispenser-identity/internal/linkage/domain"
	"dispenser-identity/internal/setting/domain"
)

// Sentinel errors for the setting service; the gRPC error interceptor maps them to codes.
var (
	ErrSettingNotFound        = errors.New("setting not found")
	ErrSettingAlreadyActive   = errors.New("setting already active")
	ErrSettingAlreadyInactive = errors.New("setting already inactive")
	ErrDeleteActiveSetting    = errors.New("active setting cannot be deleted")
)

// LinkageGetter returns a linkage only when userID owns it. The linkage service satisfies it
// and reports foreign or missing linkages with its own not-found error.
type LinkageGetter interface {
	Get(ctx context.Context, userID, linkageID int64) (*linkagedomain.Linkage, error)
}

// SettingRepo is the minimal setting repository needed by the setting service.
type SettingRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Setting, error)
	ListByLinkage(ctx context.Context, linkageID int64) ([]*domain.Setting, error)
	Create(ctx context.Context, s *domain.Setting) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// SettingService manages dispensing schedule entries on linkages. Every call checks linkage
// ownership first, then that the setting belongs to that linkage, then the active flag.
type SettingService struct {
	linkages LinkageGetter
	repo     SettingRepo
}

// NewSettingService returns a SettingService with the given dependencies.
func NewSettingService(linkages LinkageGetter, repo SettingRepo) *SettingService {
	return &SettingService{linkages: linkages, repo: repo}
}

// Create adds an inactive setting at hour:minute to a linkage the caller owns.
func (s *SettingService) Create(ctx context.Context, userID, linkageID int64, hour, minute int) (*domain.Setting, error) {
	l, err := s.linkages.Get(ctx, userID, linkageID)
	if err != nil {
		return nil, err
	}
	setting := &domain.Setting{LinkageID: l.ID, Hour: hour, Minute: minute}
	if err := setting.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// List returns the settings of a linkage the caller owns.
func (s *SettingService) List(ctx context.Context, userID, linkageID int64) ([]*domain.Setting, error) {
	l, err := s.linkages.Get(ctx, userID, linkageID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByLinkage(ctx, l.ID)
}

// Activate turns an inactive setting on.
func (s *SettingService) Activate(ctx context.Context, userID, linkageID, settingID int64) (*domain.Setting, error) {
	setting, err := s.get(ctx, userID, linkageID, settingID)
	if err != nil {
		return nil, err
	}
	if setting.Active {
		return nil, ErrSettingAlreadyActive
	}
	return s.setActive(ctx, setting, true)
}

// Deactivate turns an active setting off.
func (s *SettingService) Deactivate(ctx context.Context, userID, linkageID, settingID int64) (*domain.Setting, error) {
	setting, err := s.get(ctx, userID, linkageID, settingID)
	if err != nil {
		return nil, err
	}
	if !setting.Active {
		return nil, ErrSettingAlreadyInactive
	}
	return s.setActive(ctx, setting, false)
}

// Delete removes an inactive setting. Active settings must be deactivated first.
func (s *SettingService) Delete(ctx context.Context, userID, linkageID, settingID int64) error {
	setting, err := s.get(ctx, userID, linkageID, settingID)
	if err != nil {
		return err
	}
	if setting.Active {
		return ErrDeleteActiveSetting
	}
	return s.repo.Delete(ctx, setting.ID)
}

func (s *SettingService) get(ctx context.Context, userID, linkageID, settingID int64) (*domain.Setting, error) {
	l, err := s.linkages.Get(ctx, userID, linkageID)
	if err != nil {
		return nil, err
	}
	setting, err := s.repo.GetByID(ctx, settingID)
	if err != nil {
		return nil, err
	}
	if setting == nil || setting.LinkageID != l.ID {
		return nil, ErrSettingNotFound
	}
	return setting, nil
}

func (s *SettingService) setActive(ctx context.Context, setting *domain.Setting, active bool) (*domain.Setting, error) {
	if err := s.repo.SetActive(ctx, setting.ID, active); err != nil {
		return nil, err
	}
	updated := *setting
	updated.Active = active
	return &updated, nil
}
