package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"vprove/internal/directory/store"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
	"vprove/pkg/platform/audit"
	auditpublisher "vprove/pkg/platform/audit/publisher"
	auditmemory "vprove/pkg/platform/audit/store/memory"
)

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

type fixture struct {
	svc   *Service
	store *store.InMemory
	audit *auditmemory.Store
	admin id.AccountID
	dirID id.DirectoryID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dirStore := store.NewInMemory()
	auditStore := auditmemory.New()
	svc := New(dirStore, WithAuditPublisher(auditpublisher.NewPublisher(auditStore)))
	admin := newAccount()

	dirID, err := NewFactory(dirStore, nil).Spawn(context.Background(), "Acme", admin)
	if err != nil {
		t.Fatalf("unexpected error spawning directory: %v", err)
	}
	return &fixture{svc: svc, store: dirStore, audit: auditStore, admin: admin, dirID: dirID}
}

func TestSpawnInitializesDirectory(t *testing.T) {
	f := newFixture(t)

	dir, err := f.svc.Directory(context.Background(), f.dirID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dir.Initialized || dir.Admin != f.admin || dir.Name != "Acme" {
		t.Fatalf("unexpected directory state: %+v", dir)
	}
}

func TestInitializeIsOneTime(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Initialize(context.Background(), f.dirID, "Other", newAccount())
	if !dErrors.HasCode(err, dErrors.CodeConflict) {
		t.Fatalf("expected conflict on re-initialization, got %v", err)
	}

	// The original admin and name survive.
	dir, err := f.svc.Directory(context.Background(), f.dirID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Admin != f.admin || dir.Name != "Acme" {
		t.Fatalf("expected directory state untouched, got %+v", dir)
	}
}

func TestInitializeMissingDirectory(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Initialize(context.Background(), id.NewDirectoryID(), "Ghost", newAccount())
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegisterMember(t *testing.T) {
	f := newFixture(t)
	member := newAccount()

	memberID, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, member, "engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memberID != 1 {
		t.Fatalf("expected first member id 1, got %d", memberID)
	}

	rec, err := f.svc.Member(context.Background(), f.dirID, member)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Role != "engineer" || rec.ID != 1 {
		t.Fatalf("unexpected member record: %+v", rec)
	}
}

func TestRegisterMemberAdminOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RegisterMember(context.Background(), f.dirID, newAccount(), newAccount(), "engineer")
	if !dErrors.HasCode(err, dErrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}
	_, err = f.svc.RegisterMember(context.Background(), f.dirID, id.AccountID{}, newAccount(), "engineer")
	if !dErrors.HasCode(err, dErrors.CodeForbidden) {
		t.Fatalf("expected forbidden for anonymous caller, got %v", err)
	}
}

func TestRegisterMemberDuplicate(t *testing.T) {
	f := newFixture(t)
	member := newAccount()

	if _, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, member, "engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, member, "manager")
	if !dErrors.HasCode(err, dErrors.CodeConflict) {
		t.Fatalf("expected conflict for live duplicate, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	member := newAccount()

	if _, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, member, "engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.RemoveMember(context.Background(), f.dirID, f.admin, member); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A removed member reads back as the absent sentinel.
	rec, err := f.svc.Member(context.Background(), f.dirID, member)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Live() || rec.Role != "" || rec.ID != 0 {
		t.Fatalf("expected the zero record after removal, got %+v", rec)
	}

	// Removing twice is an error.
	err = f.svc.RemoveMember(context.Background(), f.dirID, f.admin, member)
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found on double removal, got %v", err)
	}
}

func TestRemoveNeverRegisteredMember(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RemoveMember(context.Background(), f.dirID, f.admin, newAccount())
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemberIDsNeverReused(t *testing.T) {
	f := newFixture(t)
	first := newAccount()
	second := newAccount()

	if _, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, first, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, second, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.RemoveMember(context.Background(), f.dirID, f.admin, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Re-registering draws a fresh id above every id ever issued.
	memberID, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, first, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memberID != 3 {
		t.Fatalf("expected member id 3, got %d", memberID)
	}
}

func TestMemberIDsScopedPerDirectory(t *testing.T) {
	f := newFixture(t)

	otherAdmin := newAccount()
	otherDir, err := NewFactory(f.store, nil).Spawn(context.Background(), "Globex", otherAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, newAccount(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	memberID, err := f.svc.RegisterMember(context.Background(), otherDir, otherAdmin, newAccount(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memberID != 1 {
		t.Fatalf("expected counters independent per directory, got %d", memberID)
	}
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	member := newAccount()

	if _, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, member, "engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.UpdateRole(context.Background(), f.dirID, newAccount(), member, "manager"); !dErrors.HasCode(err, dErrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-admin")
	}

	if err := f.svc.UpdateRole(context.Background(), f.dirID, f.admin, member, "manager"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := f.svc.Member(context.Background(), f.dirID, member)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Role != "manager" || rec.ID != 1 {
		t.Fatalf("expected role updated in place, got %+v", rec)
	}

	// Updating an absent member fails.
	if err := f.svc.UpdateRole(context.Background(), f.dirID, f.admin, newAccount(), "manager"); !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found for absent member")
	}
}

func TestMemberMissingDirectory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Member(context.Background(), id.NewDirectoryID(), newAccount())
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found for missing directory, got %v", err)
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	f := newFixture(t)
	member := newAccount()

	if _, err := f.svc.RegisterMember(context.Background(), f.dirID, f.admin, member, "engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.UpdateRole(context.Background(), f.dirID, f.admin, member, "manager"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.RemoveMember(context.Background(), f.dirID, f.admin, member); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := f.audit.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []string{
		string(audit.EventMemberAdded),
		string(audit.EventRoleUpdated),
		string(audit.EventMemberRemoved),
	}
	for i, action := range want {
		if events[i].Action != action {
			t.Fatalf("expected event %d to be %s, got %s", i, action, events[i].Action)
		}
	}
	if events[0].Member != 1 || events[0].Actor != f.admin {
		t.Fatalf("unexpected member_added payload: %+v", events[0])
	}
	if events[2].Member != 1 {
		t.Fatalf("expected removal to carry the prior member id, got %+v", events[2])
	}
}
