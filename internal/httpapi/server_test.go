package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/storage/sqlite"
	"github.com/docshelfhq/docshelf/internal/tenant"
	"github.com/docshelfhq/docshelf/internal/workspace"
)

func TestTenantSlug(t *testing.T) {
	tests := []struct {
		name   string
		header string
		host   string
		want   string
	}{
		{name: "header wins", header: "acme", host: "other.docshelf.example", want: "acme"},
		{name: "subdomain fallback", host: "acme.docshelf.example", want: "acme"},
		{name: "subdomain with port", host: "acme.docshelf.example:8080", want: "acme"},
		{name: "bare host has no tenant", host: "docshelf.example", want: ""},
		{name: "localhost has no tenant", host: "localhost:8080", want: ""},
		{name: "empty", host: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/tags", nil)
			r.Host = tt.host
			if tt.header != "" {
				r.Header.Set("X-Tenant", tt.header)
			}
			if got := tenantSlug(r); got != tt.want {
				t.Errorf("tenantSlug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToDocument(t *testing.T) {
	coID := uuid.New()

	d, err := toDocument(&DocumentRequest{
		Title:           "Electric bill",
		Checksum:        "abc123",
		CorrespondentID: coID.String(),
	})
	if err != nil {
		t.Fatalf("toDocument() error = %v", err)
	}
	if d.Title != "Electric bill" {
		t.Errorf("Title = %q", d.Title)
	}
	if d.CorrespondentID == nil || *d.CorrespondentID != coID {
		t.Errorf("CorrespondentID = %v, want %s", d.CorrespondentID, coID)
	}
	if d.DocumentTypeID != nil {
		t.Errorf("DocumentTypeID = %v, want nil", d.DocumentTypeID)
	}
}

func TestToDocument_InvalidReference(t *testing.T) {
	if _, err := toDocument(&DocumentRequest{Title: "x", Checksum: "y", DocumentTypeID: "not-a-uuid"}); err == nil {
		t.Fatal("expected error for malformed document type ID")
	}
}

func TestToDocumentResponse_OptionalReferences(t *testing.T) {
	doc := &domain.Document{ID: uuid.New(), Title: "Receipt", Checksum: "c"}
	resp := toDocumentResponse(doc)
	if resp.CorrespondentID != "" || resp.DocumentTypeID != "" {
		t.Errorf("expected empty reference IDs, got %q / %q", resp.CorrespondentID, resp.DocumentTypeID)
	}

	typeID := uuid.New()
	doc.DocumentTypeID = &typeID
	resp = toDocumentResponse(doc)
	if resp.DocumentTypeID != typeID.String() {
		t.Errorf("DocumentTypeID = %q, want %q", resp.DocumentTypeID, typeID)
	}
}

func TestPurgeTenantData_RemovesRowsAndArtifacts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatalf("creating workspace: %v", err)
	}

	tn := &domain.Tenant{Name: "Acme", Active: true}
	if err := store.Tenants().Create(ctx, tn); err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
	tctx := tenant.WithTenant(ctx, tn.ID)
	if err := store.Documents().Create(tctx, &domain.Document{Title: "doomed"}); err != nil {
		t.Fatalf("creating document: %v", err)
	}
	artifact := ws.ArtifactPathFor(tn.ID, "classifier.json")
	if err := os.WriteFile(artifact, []byte("{}"), 0640); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}

	s := NewServer(Config{Workspace: ws}, store, nil, nil, logger)
	if err := s.purgeTenantData(ctx, tn.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}

	if n, _ := store.Documents().Count(tctx); n != 0 {
		t.Errorf("purged tenant still has %d documents", n)
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Errorf("artifact survived purge: stat err = %v", err)
	}
}
