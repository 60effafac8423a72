package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/docshelfhq/docshelf/internal/domain"
)

func TestSavedViewRoundTrip(t *testing.T) {
	db := testGorm(t)
	ctx, tenantID := testTenant(t, db, "acme")
	repo := NewSavedViewRepository(db, nil)

	view := &domain.SavedView{
		Owner:           "user-7",
		Name:            "open invoices",
		ShowOnDashboard: true,
		SortField:       "created_at",
		SortReverse:     true,
		FilterRules:     map[string]string{"tag": "invoices", "title": "open"},
	}
	if err := repo.Create(ctx, view); err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.TenantID != tenantID {
		t.Errorf("view stamped with %s, want %s", view.TenantID, tenantID)
	}

	got, err := repo.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FilterRules["tag"] != "invoices" || got.FilterRules["title"] != "open" {
		t.Errorf("filter rules = %v, want original map", got.FilterRules)
	}
	if !got.SortReverse || got.SortField != "created_at" {
		t.Errorf("sort = %s/%v, want created_at reversed", got.SortField, got.SortReverse)
	}
}

func TestSavedViewListForOwner(t *testing.T) {
	db := testGorm(t)
	ctxA, _ := testTenant(t, db, "acme")
	ctxB, _ := testTenant(t, db, "globex")
	repo := NewSavedViewRepository(db, nil)

	for _, v := range []*domain.SavedView{
		{Owner: "user-7", Name: "inbox"},
		{Owner: "user-7", Name: "recent"},
		{Owner: "user-9", Name: "inbox"},
	} {
		if err := repo.Create(ctxA, v); err != nil {
			t.Fatalf("create %s/%s: %v", v.Owner, v.Name, err)
		}
	}
	// Same owner ID in another tenant is a different user.
	if err := repo.Create(ctxB, &domain.SavedView{Owner: "user-7", Name: "inbox"}); err != nil {
		t.Fatalf("create in B: %v", err)
	}

	views, err := repo.ListForOwner(ctxA, "user-7")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("owner sees %d views, want 2", len(views))
	}

	empty, err := repo.ListForOwner(context.Background(), "user-7")
	if err != nil {
		t.Fatalf("unbound list: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unbound list returned %d views, want 0", len(empty))
	}
}

func TestSavedViewUpdateDelete(t *testing.T) {
	db := testGorm(t)
	ctx, _ := testTenant(t, db, "acme")
	repo := NewSavedViewRepository(db, nil)

	view := &domain.SavedView{Owner: "user-7", Name: "inbox", FilterRules: map[string]string{"tag": "inbox"}}
	if err := repo.Create(ctx, view); err != nil {
		t.Fatalf("create: %v", err)
	}

	view.Name = "triage"
	view.FilterRules = map[string]string{"tag": "triage"}
	if err := repo.Update(ctx, view); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "triage" || got.FilterRules["tag"] != "triage" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := repo.Delete(ctx, view.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, view.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
}
