package maintenance

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/docshelfhq/docshelf/internal/config"
	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/storage"
	"github.com/docshelfhq/docshelf/internal/storage/sqlite"
	"github.com/docshelfhq/docshelf/internal/tenant"
	"github.com/docshelfhq/docshelf/internal/workspace"
)

func testRunner(t *testing.T) (*Runner, storage.Store, *workspace.Workspace) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatalf("creating workspace: %v", err)
	}

	r := New(store, ws, nil, logger, &config.MaintenanceConfig{})
	return r, store, ws
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	r, _, _ := testRunner(t)
	r.cfg = &config.MaintenanceConfig{PurgeSchedule: "not a schedule"}

	if _, err := r.Start(context.Background()); err == nil {
		t.Fatal("expected error for malformed schedule")
	}
}

func TestStartStop(t *testing.T) {
	r, _, _ := testRunner(t)

	cancel, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()
}

func TestClassifierRefresh_WritesPerTenantArtifacts(t *testing.T) {
	r, store, ws := testRunner(t)
	ctx := context.Background()

	tnA := &domain.Tenant{Name: "Acme", Active: true}
	tnB := &domain.Tenant{Name: "Globex", Active: true}
	for _, tn := range []*domain.Tenant{tnA, tnB} {
		if err := store.Tenants().Create(ctx, tn); err != nil {
			t.Fatalf("creating tenant: %v", err)
		}
	}

	ctxA := tenant.WithTenant(ctx, tnA.ID)
	if err := store.Tags().Create(ctxA, &domain.Tag{Name: "Invoices"}); err != nil {
		t.Fatalf("creating tag: %v", err)
	}
	if err := store.Correspondents().Create(ctxA, &domain.Correspondent{Name: "Utility Co", Match: "utility", MatchingAlgorithm: "any"}); err != nil {
		t.Fatalf("creating correspondent: %v", err)
	}

	r.runClassifierRefresh(ctx)

	var artA ClassifierArtifact
	data, err := os.ReadFile(ws.ArtifactPathFor(tnA.ID, ClassifierArtifactName))
	if err != nil {
		t.Fatalf("reading artifact for first tenant: %v", err)
	}
	if err := json.Unmarshal(data, &artA); err != nil {
		t.Fatalf("decoding artifact: %v", err)
	}
	if len(artA.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(artA.Rules))
	}

	// The second tenant has no rules, and crucially none of the first
	// tenant's.
	var artB ClassifierArtifact
	data, err = os.ReadFile(ws.ArtifactPathFor(tnB.ID, ClassifierArtifactName))
	if err != nil {
		t.Fatalf("reading artifact for second tenant: %v", err)
	}
	if err := json.Unmarshal(data, &artB); err != nil {
		t.Fatalf("decoding artifact: %v", err)
	}
	if len(artB.Rules) != 0 {
		t.Fatalf("expected empty rule set for second tenant, got %d", len(artB.Rules))
	}
}

func TestClassifierRefresh_SkipsInactiveTenants(t *testing.T) {
	r, store, ws := testRunner(t)
	ctx := context.Background()

	tn := &domain.Tenant{Name: "Dormant", Active: true}
	if err := store.Tenants().Create(ctx, tn); err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
	if err := store.Tenants().SetActive(ctx, tn.ID, false); err != nil {
		t.Fatalf("deactivating tenant: %v", err)
	}

	r.runClassifierRefresh(ctx)

	if _, err := os.Stat(ws.ArtifactPathFor(tn.ID, ClassifierArtifactName)); !os.IsNotExist(err) {
		t.Fatalf("expected no artifact for inactive tenant, stat err = %v", err)
	}
}

func TestRunPurge(t *testing.T) {
	r, store, _ := testRunner(t)
	ctx := context.Background()

	tn := &domain.Tenant{Name: "Acme", Active: true}
	if err := store.Tenants().Create(ctx, tn); err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
	scoped := tenant.WithTenant(ctx, tn.ID)
	tag := &domain.Tag{Name: "Old"}
	if err := store.Tags().Create(scoped, tag); err != nil {
		t.Fatalf("creating tag: %v", err)
	}
	if err := store.Tags().Delete(scoped, tag.ID); err != nil {
		t.Fatalf("deleting tag: %v", err)
	}

	// Retention of zero days makes the just-deleted row eligible on the next
	// sweep boundary; the sweep itself must not error either way.
	r.runPurge(ctx)
}
