package handler

import (
	"context"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispenser-identity/internal/linkage/domain"
	linkageservice "dispenser-identity/internal/linkage/service"
	"dispenser-identity/internal/server/interceptors"
)

// fakeLinkages records the user id each call was made with.
type fakeLinkages struct {
	lastUser int64
	lastName string
	rotated  bool
}

func (f *fakeLinkages) Link(ctx context.Context, userID int64, identifier, password, name string) (*domain.Linkage, error) {
	f.lastUser, f.lastName = userID, name
	return &domain.Linkage{ID: 1, UserID: userID, DeviceID: 3, Name: name}, nil
}

func (f *fakeLinkages) Get(ctx context.Context, userID, linkageID int64) (*domain.Linkage, error) {
	f.lastUser = userID
	if linkageID != 1 {
		return nil, linkageservice.ErrLinkageNotFound
	}
	return &domain.Linkage{ID: 1, UserID: userID, DeviceID: 3, Name: "Grandpa"}, nil
}

func (f *fakeLinkages) List(ctx context.Context, userID int64) ([]*domain.Linkage, error) {
	f.lastUser = userID
	return []*domain.Linkage{{ID: 1, UserID: userID}, {ID: 2, UserID: userID}}, nil
}

func (f *fakeLinkages) Unlink(ctx context.Context, userID, linkageID int64) error {
	f.lastUser = userID
	return nil
}

func (f *fakeLinkages) UpdateName(ctx context.Context, userID, linkageID int64, name string) (*domain.Linkage, error) {
	f.lastUser, f.lastName = userID, name
	return &domain.Linkage{ID: linkageID, UserID: userID, Name: name}, nil
}

func (f *fakeLinkages) UpdatePassword(ctx context.Context, userID, linkageID int64, current, next string) error {
	f.lastUser = userID
	f.rotated = true
	return nil
}

func authed(userID int64) context.Context {
	return interceptors.WithIdentity(context.Background(), userID, 1, nil)
}

func TestServer_RequiresUser(t *testing.T) {
	srv := NewServer(&fakeLinkages{})
	ctx := context.Background()
	calls := map[string]func() error{
		"Link":           func() error { _, err := srv.Link(ctx, &LinkRequest{}); return err },
		"Get":            func() error { _, err := srv.Get(ctx, &GetRequest{}); return err },
		"List":           func() error { _, err := srv.List(ctx, &ListRequest{}); return err },
		"Unlink":         func() error { _, err := srv.Unlink(ctx, &UnlinkRequest{}); return err },
		"Rename":         func() error { _, err := srv.Rename(ctx, &RenameRequest{}); return err },
		"UpdatePassword": func() error { _, err := srv.UpdatePassword(ctx, &UpdatePasswordRequest{}); return err },
	}
	for name, call := range calls {
		if code := status.Code(call()); code != codes.Unauthenticated {
			t.Errorf("%s: code = %v, want Unauthenticated", name, code)
		}
	}
}

func TestServer_UsesContextUser(t *testing.T) {
	fake := &fakeLinkages{}
	srv := NewServer(fake)

	resp, err := srv.Link(authed(7), &LinkRequest{Identifier: "dev", Password: "pw", Name: "  Grandpa "})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if fake.lastUser != 7 || fake.lastName != "Grandpa" || resp.Linkage.DeviceID != 3 {
		t.Errorf("user = %d, name = %q, resp = %+v", fake.lastUser, fake.lastName, resp.Linkage)
	}

	list, err := srv.List(authed(8), &ListRequest{})
	if err != nil || len(list.Linkages) != 2 || fake.lastUser != 8 {
		t.Errorf("List = (%+v, %v), user = %d", list, err, fake.lastUser)
	}

	if _, err := srv.UpdatePassword(authed(9), &UpdatePasswordRequest{LinkageID: 1, CurrentPassword: "a", NewPassword: "b"}); err != nil || !fake.rotated {
		t.Errorf("UpdatePassword err = %v, rotated = %v", err, fake.rotated)
	}
}

func TestServer_Validation(t *testing.T) {
	srv := NewServer(&fakeLinkages{})
	ctx := authed(1)
	if _, err := srv.Link(ctx, &LinkRequest{Identifier: "dev", Password: "pw", Name: "   "}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("blank name: code = %v", status.Code(err))
	}
	if _, err := srv.Rename(ctx, &RenameRequest{LinkageID: 1}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("rename without name: code = %v", status.Code(err))
	}
	if _, err := srv.UpdatePassword(ctx, &UpdatePasswordRequest{LinkageID: 1, NewPassword: "x"}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("missing current password: code = %v", status.Code(err))
	}
}

func TestServer_ServiceErrorsPassThrough(t *testing.T) {
	srv := NewServer(&fakeLinkages{})
	if _, err := srv.Get(authed(1), &GetRequest{LinkageID: 2}); err != linkageservice.ErrLinkageNotFound {
		t.Errorf("err = %v, want ErrLinkageNotFound for the error interceptor to map", err)
	}
}
