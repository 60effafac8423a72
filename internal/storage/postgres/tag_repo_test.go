package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/tenant"
)

func TestTagCreate_StampsBoundTenant(t *testing.T) {
	db := testGorm(t)
	ctx, tenantID := testTenant(t, db, "acme")
	repo := NewTagRepository(db, nil)

	tag := &domain.Tag{Name: "inbox", IsInbox: true}
	if err := repo.Create(ctx, tag); err != nil {
		t.Fatalf("create: %v", err)
	}
	if tag.TenantID != tenantID {
		t.Errorf("tag stamped with %s, want %s", tag.TenantID, tenantID)
	}
	if tag.ID == uuid.Nil {
		t.Error("tag ID not assigned")
	}
}

func TestTagCreate_NoTenantBound(t *testing.T) {
	db := testGorm(t)
	repo := NewTagRepository(db, nil)

	err := repo.Create(context.Background(), &domain.Tag{Name: "orphan"})
	if !errors.Is(err, domain.ErrMissingTenant) {
		t.Fatalf("create without tenant: got %v, want ErrMissingTenant", err)
	}
}

func TestTagCreate_PreStampedMismatchRejected(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	repo := NewTagRepository(db, nil)

	tag := &domain.Tag{Name: "smuggled", TenantID: uuid.New()}
	err := repo.Create(ctx, tag)
	if !errors.Is(err, domain.ErrRelationshipViolation) {
		t.Fatalf("mismatched pre-stamp: got %v, want ErrRelationshipViolation", err)
	}
}

func TestTagReads_FailClosedWithoutTenant(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	repo := NewTagRepository(db, nil)
	tag := mustCreateTag(t, repo, ctx, "invoices")

	unbound := context.Background()

	if _, err := repo.Get(unbound, tag.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unbound get: got %v, want ErrNotFound", err)
	}
	tags, err := repo.List(unbound)
	if err != nil {
		t.Fatalf("unbound list: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("unbound list returned %d tags, want 0", len(tags))
	}
	n, err := repo.Count(unbound)
	if err != nil {
		t.Fatalf("unbound count: %v", err)
	}
	if n != 0 {
		t.Errorf("unbound count = %d, want 0", n)
	}
	ok, err := repo.Exists(unbound, tag.ID)
	if err != nil {
		t.Fatalf("unbound exists: %v", err)
	}
	if ok {
		t.Error("unbound exists = true, want false")
	}
}

func TestTagWrites_RequireTenant(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	repo := NewTagRepository(db, nil)
	tag := mustCreateTag(t, repo, ctx, "invoices")

	unbound := context.Background()
	if err := repo.Update(unbound, tag); !errors.Is(err, domain.ErrMissingTenant) {
		t.Errorf("unbound update: got %v, want ErrMissingTenant", err)
	}
	if err := repo.Delete(unbound, tag.ID); !errors.Is(err, domain.ErrMissingTenant) {
		t.Errorf("unbound delete: got %v, want ErrMissingTenant", err)
	}
}

// Two tenants each own a tag named "Invoices". Creation must not collide,
// lookups must resolve to the caller's own row, and a rename on one side must
// leave the other side untouched.
func TestTagIsolation_SameNameAcrossTenants(t *testing.T) {
	db := testGorm(t)
	ctxA, tenantA := testTenant(t, db, "acme")
	ctxB, tenantB := testTenant(t, db, "globex")
	repo := NewTagRepository(db, nil)

	tagA := mustCreateTag(t, repo, ctxA, "Invoices")
	tagB := mustCreateTag(t, repo, ctxB, "Invoices")

	if tagA.ID == tagB.ID {
		t.Fatal("both tenants received the same tag row")
	}

	gotA, err := repo.GetByName(ctxA, "Invoices")
	if err != nil {
		t.Fatalf("tenant A lookup: %v", err)
	}
	if gotA.ID != tagA.ID || gotA.TenantID != tenantA {
		t.Errorf("tenant A resolved tag %s (tenant %s), want own tag %s", gotA.ID, gotA.TenantID, tagA.ID)
	}
	gotB, err := repo.GetByName(ctxB, "Invoices")
	if err != nil {
		t.Fatalf("tenant B lookup: %v", err)
	}
	if gotB.ID != tagB.ID || gotB.TenantID != tenantB {
		t.Errorf("tenant B resolved tag %s (tenant %s), want own tag %s", gotB.ID, gotB.TenantID, tagB.ID)
	}

	gotA.Name = "Rechnungen"
	if err := repo.Update(ctxA, gotA); err != nil {
		t.Fatalf("tenant A rename: %v", err)
	}
	after, err := repo.GetByName(ctxB, "Invoices")
	if err != nil {
		t.Fatalf("tenant B lookup after A's rename: %v", err)
	}
	if after.Name != "Invoices" {
		t.Errorf("tenant B's tag renamed to %q by tenant A", after.Name)
	}
}

func TestTagGet_OtherTenantLooksNonexistent(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	repo := NewTagRepository(db, nil)
	tagA := mustCreateTag(t, repo, ctxA, "confidential")

	_, errForeign := repo.Get(ctxB, tagA.ID)
	_, errMissing := repo.Get(ctxB, uuid.New())

	if !errors.Is(errForeign, domain.ErrNotFound) {
		t.Fatalf("foreign get: got %v, want ErrNotFound", errForeign)
	}
	// A cross-tenant row must be indistinguishable from one that does not
	// exist, or the error itself becomes an existence oracle.
	if errForeign.Error() != errMissing.Error() {
		t.Errorf("foreign error %q differs from missing error %q", errForeign, errMissing)
	}
}

func TestTagList_ScopedPerTenant(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	repo := NewTagRepository(db, nil)

	mustCreateTag(t, repo, ctxA, "alpha")
	mustCreateTag(t, repo, ctxA, "beta")
	mustCreateTag(t, repo, ctxB, "gamma")

	tagsA, err := repo.List(ctxA)
	if err != nil {
		t.Fatalf("list A: %v", err)
	}
	if len(tagsA) != 2 {
		t.Errorf("tenant A sees %d tags, want 2", len(tagsA))
	}
	tagsB, err := repo.List(ctxB)
	if err != nil {
		t.Fatalf("list B: %v", err)
	}
	if len(tagsB) != 1 || tagsB[0].Name != "gamma" {
		t.Errorf("tenant B sees %v, want just gamma", tagsB)
	}
}

// Rebinding the same context chain to a different tenant needs no release
// step: the later binding simply shadows the earlier one.
func TestTagScope_FollowsContextRebind(t *testing.T) {
	db := testGorm(t)
	_, tenantA := testTenant(t, db, "acme")
	_, tenantB := testTenant(t, db, "globex")
	repo := NewTagRepository(db, nil)

	ctx := tenant.WithTenant(context.Background(), tenantA)
	mustCreateTag(t, repo, ctx, "first")

	ctx = tenant.WithTenant(ctx, tenantB)
	mustCreateTag(t, repo, ctx, "second")

	tags, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "second" {
		t.Fatalf("rebound context sees %v, want just second", tags)
	}
	if tags[0].TenantID != tenantB {
		t.Errorf("second tag stamped with %s, want %s", tags[0].TenantID, tenantB)
	}
}

func TestTagUpdate_ForeignRowNotFound(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	repo := NewTagRepository(db, nil)
	tagA := mustCreateTag(t, repo, ctxA, "invoices")

	foreign := *tagA
	foreign.Name = "hijacked"
	if err := repo.Update(ctxB, &foreign); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign update: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctxB, tagA.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign delete: got %v, want ErrNotFound", err)
	}

	kept, err := repo.Get(ctxA, tagA.ID)
	if err != nil {
		t.Fatalf("owner get after foreign attempts: %v", err)
	}
	if kept.Name != "invoices" {
		t.Errorf("tag name = %q after foreign update attempt, want invoices", kept.Name)
	}
}

func TestTagDelete_RemovesEdges(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	tags := NewTagRepository(db, nil)
	docs := NewDocumentRepository(db, nil)

	tag := mustCreateTag(t, tags, ctx, "invoices")
	doc := mustCreateDocument(t, docs, ctx, &domain.Document{Title: "march invoice"})
	if err := docs.AttachTag(ctx, doc.ID, tag.ID); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := tags.Delete(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	remaining, err := docs.TagsFor(ctx, doc.ID)
	if err != nil {
		t.Fatalf("tags for doc: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("document still carries %d tags after tag deletion", len(remaining))
	}
}
