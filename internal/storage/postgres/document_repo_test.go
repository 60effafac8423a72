package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/docshelfhq/docshelf/internal/domain"
)

func TestDocumentCreate_StampsBoundTenant(t *testing.T) {
	db := testGorm(t)
	ctx, tenantID := testTenant(t, db, "acme")
	repo := NewDocumentRepository(db, nil)

	doc := mustCreateDocument(t, repo, ctx, &domain.Document{Title: "contract"})
	if doc.TenantID != tenantID {
		t.Errorf("document stamped with %s, want %s", doc.TenantID, tenantID)
	}
}

func TestDocumentReads_FailClosedWithoutTenant(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	repo := NewDocumentRepository(db, nil)
	doc := mustCreateDocument(t, repo, ctx, &domain.Document{Title: "contract"})

	unbound := context.Background()
	if _, err := repo.Get(unbound, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unbound get: got %v, want ErrNotFound", err)
	}
	docs, err := repo.List(unbound, domain.DocumentFilter{})
	if err != nil {
		t.Fatalf("unbound list: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("unbound list returned %d documents, want 0", len(docs))
	}
	if err := repo.Create(unbound, &domain.Document{Title: "orphan"}); !errors.Is(err, domain.ErrMissingTenant) {
		t.Errorf("unbound create: got %v, want ErrMissingTenant", err)
	}
}

func TestDocumentList_FilterWithinTenant(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	repo := NewDocumentRepository(db, nil)

	mustCreateDocument(t, repo, ctxA, &domain.Document{Title: "electricity invoice"})
	mustCreateDocument(t, repo, ctxA, &domain.Document{Title: "lease contract"})
	mustCreateDocument(t, repo, ctxB, &domain.Document{Title: "water invoice"})

	docs, err := repo.List(ctxA, domain.DocumentFilter{TitleContains: "invoice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "electricity invoice" {
		t.Fatalf("filter crossed tenants: got %v", docs)
	}
}

func TestDocumentCreate_ForeignCorrespondentRejected(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	docs := NewDocumentRepository(db, nil)
	correspondents := NewCorrespondentRepository(db, nil)

	foreign := &domain.Correspondent{Name: "Initech"}
	if err := correspondents.Create(ctxB, foreign); err != nil {
		t.Fatalf("creating correspondent: %v", err)
	}

	err := docs.Create(ctxA, &domain.Document{
		Title:           "misdirected invoice",
		Checksum:        uuid.New().String(),
		CorrespondentID: &foreign.ID,
	})
	if !errors.Is(err, domain.ErrRelationshipViolation) {
		t.Fatalf("foreign correspondent ref: got %v, want ErrRelationshipViolation", err)
	}

	// Nothing may have been written.
	n, err := docs.Count(ctxA)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rejected create left %d documents behind", n)
	}
}

func TestDocumentUpdate_ForeignDocumentTypeRejected(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	docs := NewDocumentRepository(db, nil)
	types := NewDocumentTypeRepository(db, nil)

	foreign := &domain.DocumentType{Name: "Invoice"}
	if err := types.Create(ctxB, foreign); err != nil {
		t.Fatalf("creating document type: %v", err)
	}
	doc := mustCreateDocument(t, docs, ctxA, &domain.Document{Title: "contract"})

	doc.DocumentTypeID = &foreign.ID
	err := docs.Update(ctxA, doc)
	if !errors.Is(err, domain.ErrRelationshipViolation) {
		t.Fatalf("foreign type ref on update: got %v, want ErrRelationshipViolation", err)
	}
}

func TestAttachTag_CrossTenantRejected(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	docs := NewDocumentRepository(db, nil)
	tags := NewTagRepository(db, nil)

	doc := mustCreateDocument(t, docs, ctxA, &domain.Document{Title: "contract"})
	foreignTag := mustCreateTag(t, tags, ctxB, "urgent")

	// The caller owns the document but not the tag: the far endpoint is the
	// violation.
	err := docs.AttachTag(ctxA, doc.ID, foreignTag.ID)
	if !errors.Is(err, domain.ErrRelationshipViolation) {
		t.Fatalf("attach foreign tag: got %v, want ErrRelationshipViolation", err)
	}

	// The caller owns the tag but cannot even see the document: plain not
	// found, no hint that the document exists elsewhere.
	err = docs.AttachTag(ctxB, doc.ID, foreignTag.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("attach to foreign document: got %v, want ErrNotFound", err)
	}
}

func TestAttachDetachTag_WithinTenant(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	docs := NewDocumentRepository(db, nil)
	tags := NewTagRepository(db, nil)

	doc := mustCreateDocument(t, docs, ctx, &domain.Document{Title: "contract"})
	tag := mustCreateTag(t, tags, ctx, "legal")

	if err := docs.AttachTag(ctx, doc.ID, tag.ID); err != nil {
		t.Fatalf("attach: %v", err)
	}
	// Attaching twice is a no-op, not an error.
	if err := docs.AttachTag(ctx, doc.ID, tag.ID); err != nil {
		t.Fatalf("re-attach: %v", err)
	}

	got, err := docs.TagsFor(ctx, doc.ID)
	if err != nil {
		t.Fatalf("tags for: %v", err)
	}
	if len(got) != 1 || got[0].ID != tag.ID {
		t.Fatalf("tags for doc = %v, want just %s", got, tag.ID)
	}

	byTag, err := docs.ListByTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != doc.ID {
		t.Fatalf("list by tag = %v, want just %s", byTag, doc.ID)
	}

	if err := docs.DetachTag(ctx, doc.ID, tag.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if err := docs.DetachTag(ctx, doc.ID, tag.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("re-detach: got %v, want ErrNotFound", err)
	}
}

func TestTagsFor_ForeignDocumentNotFound(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	docs := NewDocumentRepository(db, nil)
	tags := NewTagRepository(db, nil)

	doc := mustCreateDocument(t, docs, ctxA, &domain.Document{Title: "contract"})
	tag := mustCreateTag(t, tags, ctxA, "legal")
	if err := docs.AttachTag(ctxA, doc.ID, tag.ID); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if _, err := docs.TagsFor(ctxB, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign tags-for: got %v, want ErrNotFound", err)
	}
}

func TestListByCorrespondent_Scoped(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	docs := NewDocumentRepository(db, nil)
	correspondents := NewCorrespondentRepository(db, nil)

	c := &domain.Correspondent{Name: "Initech"}
	if err := correspondents.Create(ctx, c); err != nil {
		t.Fatalf("creating correspondent: %v", err)
	}
	mustCreateDocument(t, docs, ctx, &domain.Document{Title: "invoice 1", CorrespondentID: &c.ID})
	mustCreateDocument(t, docs, ctx, &domain.Document{Title: "unrelated"})

	got, err := docs.ListByCorrespondent(ctx, c.ID)
	if err != nil {
		t.Fatalf("list by correspondent: %v", err)
	}
	if len(got) != 1 || got[0].Title != "invoice 1" {
		t.Fatalf("list by correspondent = %v, want just invoice 1", got)
	}
}

func TestDocumentChecksum_UniquePerTenantOnly(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	repo := NewDocumentRepository(db, nil)

	const sum = "9f86d081884c7d659a2feaa0c55ad015"
	mustCreateDocument(t, repo, ctxA, &domain.Document{Title: "original", Checksum: sum})

	// Same checksum in another tenant is a different document.
	if err := repo.Create(ctxB, &domain.Document{Title: "their copy", Checksum: sum}); err != nil {
		t.Fatalf("same checksum, other tenant: %v", err)
	}
	// Same checksum in the same tenant is a duplicate upload.
	err := repo.Create(ctxA, &domain.Document{Title: "duplicate", Checksum: sum})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate checksum: got %v, want ErrAlreadyExists", err)
	}
}
