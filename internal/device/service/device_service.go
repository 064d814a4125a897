package service

import (
	"context"
	"errors"
	"strconv"

	"dispenser-identity/internal/audit"
	auditdomain "dispenser-identity/internal/audit/domain"
	"dispenser-identity/internal/device/domain"
	"dispenser-identity/internal/security"
)

// ErrInvalidDevice is returned by Provision when the identifier or password is empty.
var ErrInvalidDevice = errors.New("device identifier and password are required")

// DeviceRepo is the minimal device repository needed for provisioning.
type DeviceRepo interface {
	Create(ctx context.Context, d *domain.Device) error
}

// DeviceService provisions devices at the factory side. Users never create devices; they link to them.
type DeviceService struct {
	repo   DeviceRepo
	hasher *security.Hasher
	audit  audit.AuditLogger
}

// NewDeviceService returns a DeviceService. auditLogger may be nil.
func NewDeviceService(repo DeviceRepo, hasher *security.Hasher, auditLogger audit.AuditLogger) *DeviceService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &DeviceService{repo: repo, hasher: hasher, audit: auditLogger}
}

// Provision stores a new device with a hashed password. A taken identifier fails with
// domain.ErrDuplicateIdentifier.
func (s *DeviceService) Provision(ctx context.Context, identifier, password string) (*domain.Device, error) {
	if identifier == "" || password == "" {
		return nil, ErrInvalidDevice
	}
	hash, err := s.hasher.Hash(ctx, []byte(password))
	if err != nil {
		return nil, err
	}
	d := &domain.Device{Identifier: identifier, PasswordHash: hash}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, 0, auditdomain.ActionProvision, "device", `{"device_id":`+strconv.FormatInt(d.ID, 10)+`}`)
	return d, nil
}
