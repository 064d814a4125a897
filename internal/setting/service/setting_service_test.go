package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	linkagedomain "dispenser-identity/internal/linkage/domain"
	"dispenser-identity/internal/setting/domain"
)

var errLinkageNotFound = errors.New("linkage not found")

type memLinkages map[int64]*linkagedomain.Linkage

func (m memLinkages) Get(ctx context.Context, userID, linkageID int64) (*linkagedomain.Linkage, error) {
	l := m[linkageID]
	if !l.OwnedBy(userID) {
		return nil, errLinkageNotFound
	}
	return l, nil
}

type memSettingRepo struct {
	mu       sync.Mutex
	next     int64
	settings map[int64]*domain.Setting
}

func (r *memSettingRepo) GetByID(ctx context.Context, id int64) (*domain.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSettingRepo) ListByLinkage(ctx context.Context, linkageID int64) ([]*domain.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Setting
	for id := int64(1); id <= r.next; id++ {
		if s, ok := r.settings[id]; ok && s.LinkageID == linkageID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memSettingRepo) Create(ctx context.Context, s *domain.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	s.ID = r.next
	cp := *s
	r.settings[s.ID] = &cp
	return nil
}

func (r *memSettingRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settings[id]; ok {
		s.Active = active
	}
	return nil
}

func (r *memSettingRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.settings, id)
	return nil
}

func newTestService() (*SettingService, *memSettingRepo) {
	linkages := memLinkages{
		1: {ID: 1, UserID: 1, DeviceID: 1, Name: "Grandpa"},
		2: {ID: 2, UserID: 2, DeviceID: 1, Name: "Dad"},
	}
	repo := &memSettingRepo{settings: map[int64]*domain.Setting{}}
	return NewSettingService(linkages, repo), repo
}

func TestSettingLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	s, err := svc.Create(ctx, 1, 1, 8, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Active {
		t.Error("new settings must start inactive")
	}
	if _, err := svc.Deactivate(ctx, 1, 1, s.ID); !errors.Is(err, ErrSettingAlreadyInactive) {
		t.Errorf("Deactivate inactive: err = %v, want ErrSettingAlreadyInactive", err)
	}
	active, err := svc.Activate(ctx, 1, 1, s.ID)
	if err != nil || !active.Active {
		t.Fatalf("Activate = (%+v, %v)", active, err)
	}
	if _, err := svc.Activate(ctx, 1, 1, s.ID); !errors.Is(err, ErrSettingAlreadyActive) {
		t.Errorf("Activate active: err = %v, want ErrSettingAlreadyActive", err)
	}
	if err := svc.Delete(ctx, 1, 1, s.ID); !errors.Is(err, ErrDeleteActiveSetting) {
		t.Errorf("Delete active: err = %v, want ErrDeleteActiveSetting", err)
	}
	if _, err := svc.Deactivate(ctx, 1, 1, s.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := svc.Delete(ctx, 1, 1, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, 1, 1, s.ID); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("Delete twice: err = %v, want ErrSettingNotFound", err)
	}
}

func TestSetting_OwnershipBeforeExistenceBeforeState(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mine, err := svc.Create(ctx, 1, 1, 7, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Activate(ctx, 1, 1, mine.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	theirs, err := svc.Create(ctx, 2, 2, 9, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Foreign linkage: not found even though the setting exists and is active.
	if err := svc.Delete(ctx, 2, 1, mine.ID); !errors.Is(err, errLinkageNotFound) {
		t.Errorf("foreign linkage: err = %v, want linkage not found", err)
	}
	if _, err := svc.Create(ctx, 2, 1, 7, 0); !errors.Is(err, errLinkageNotFound) {
		t.Errorf("create on foreign linkage: err = %v, want linkage not found", err)
	}
	if _, err := svc.List(ctx, 1, 2); !errors.Is(err, errLinkageNotFound) {
		t.Errorf("list foreign linkage: err = %v, want linkage not found", err)
	}
	// Own linkage, setting of another linkage: not found before any state conflict.
	if _, err := svc.Deactivate(ctx, 1, 1, theirs.ID); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("setting of another linkage: err = %v, want ErrSettingNotFound", err)
	}
	if _, err := svc.Activate(ctx, 1, 1, 999); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("missing setting: err = %v, want ErrSettingNotFound", err)
	}
}

func TestSetting_CreateValidatesTime(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, 1, 1, 24, 0); !errors.Is(err, domain.ErrInvalidTime) {
		t.Errorf("err = %v, want ErrInvalidTime", err)
	}
	if len(repo.settings) != 0 {
		t.Error("invalid setting must not be stored")
	}
}

func TestSetting_List(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, hm := range [][2]int{{8, 0}, {12, 30}, {20, 15}} {
		if _, err := svc.Create(ctx, 1, 1, hm[0], hm[1]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := svc.Create(ctx, 2, 2, 6, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := svc.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for _, s := range list {
		if s.LinkageID != 1 {
			t.Errorf("setting %d belongs to linkage %d", s.ID, s.LinkageID)
		}
	}
}
