package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/docshelfhq/docshelf/internal/tenant"
)

func TestNew(t *testing.T) {
	tmp := t.TempDir()
	root := filepath.Join(tmp, "workspace")

	ws, err := New(root)
	if err != nil {
		t.Fatalf("New(%q): %v", root, err)
	}
	if ws.Root != root {
		t.Errorf("Root = %q, want %q", ws.Root, root)
	}

	// Root directory should exist.
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root dir not created: %v", err)
	}
}

func TestDirectoryAccessors(t *testing.T) {
	tmp := t.TempDir()
	ws, err := New(filepath.Join(tmp, "ws"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fn   func() string
		want string
	}{
		{"DataDir", ws.DataDir, "data"},
		{"LogsDir", ws.LogsDir, "logs"},
		{"TenantsDir", ws.TenantsDir, "tenants"},
		{"SharedDir", ws.SharedDir, "shared"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.fn()
			expected := filepath.Join(ws.Root, tc.want)
			if got != expected {
				t.Errorf("%s() = %q, want %q", tc.name, got, expected)
			}
			// Directory should exist.
			if _, err := os.Stat(got); err != nil {
				t.Errorf("directory not created: %v", err)
			}
		})
	}
}

func TestArtifactPath_DistinctPerTenant(t *testing.T) {
	tmp := t.TempDir()
	ws, err := New(filepath.Join(tmp, "ws"))
	if err != nil {
		t.Fatal(err)
	}

	tenantA := uuid.New()
	tenantB := uuid.New()

	pathA := ws.ArtifactPathFor(tenantA, "classifier.model")
	pathB := ws.ArtifactPathFor(tenantB, "classifier.model")

	if pathA == pathB {
		t.Fatalf("same artifact path for two tenants: %q", pathA)
	}
	// The trees themselves must not overlap: neither path may live under the
	// other tenant's directory.
	if strings.HasPrefix(pathA, ws.TenantDir(tenantB)) || strings.HasPrefix(pathB, ws.TenantDir(tenantA)) {
		t.Errorf("tenant trees overlap: %q vs %q", pathA, pathB)
	}

	// Same inputs, same path.
	if again := ws.ArtifactPathFor(tenantA, "classifier.model"); again != pathA {
		t.Errorf("artifact path not deterministic: %q then %q", pathA, again)
	}
}

func TestArtifactPath_ResolvesBoundTenant(t *testing.T) {
	tmp := t.TempDir()
	ws, err := New(filepath.Join(tmp, "ws"))
	if err != nil {
		t.Fatal(err)
	}

	tenantID := uuid.New()
	ctx := tenant.WithTenant(context.Background(), tenantID)

	got := ws.ArtifactPath(ctx, "classifier.model")
	want := ws.ArtifactPathFor(tenantID, "classifier.model")
	if got != want {
		t.Errorf("ArtifactPath = %q, want %q", got, want)
	}
}

func TestArtifactPath_SharedFallbackWithoutTenant(t *testing.T) {
	tmp := t.TempDir()
	ws, err := New(filepath.Join(tmp, "ws"))
	if err != nil {
		t.Fatal(err)
	}

	got := ws.ArtifactPath(context.Background(), "classifier.model")
	want := filepath.Join(ws.Root, "shared", "classifier.model")
	if got != want {
		t.Errorf("fallback path = %q, want %q", got, want)
	}
}

func TestArtifactWrite_NeverTouchesOtherTenant(t *testing.T) {
	tmp := t.TempDir()
	ws, err := New(filepath.Join(tmp, "ws"))
	if err != nil {
		t.Fatal(err)
	}

	tenantA := uuid.New()
	tenantB := uuid.New()
	dirB := ws.TenantDir(tenantB)

	if err := os.WriteFile(ws.ArtifactPathFor(tenantA, "classifier.model"), []byte("weights"), 0640); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}

	entries, err := os.ReadDir(dirB)
	if err != nil {
		t.Fatalf("reading tenant B dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("tenant A's write created %d entries under tenant B", len(entries))
	}
}

func TestArtifactName_Sanitized(t *testing.T) {
	tmp := t.TempDir()
	ws, err := New(filepath.Join(tmp, "ws"))
	if err != nil {
		t.Fatal(err)
	}

	tenantID := uuid.New()
	got := ws.ArtifactPathFor(tenantID, "../escape/model")
	if !strings.HasPrefix(got, ws.TenantDir(tenantID)) {
		t.Errorf("traversal name escaped tenant dir: %q", got)
	}
}

func TestRemoveTenantDir(t *testing.T) {
	tmp := t.TempDir()
	ws, err := New(filepath.Join(tmp, "ws"))
	if err != nil {
		t.Fatal(err)
	}

	tenantID := uuid.New()
	path := ws.ArtifactPathFor(tenantID, "classifier.model")
	if err := os.WriteFile(path, []byte("weights"), 0640); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}

	if err := ws.RemoveTenantDir(tenantID); err != nil {
		t.Fatalf("removing tenant dir: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); !os.IsNotExist(err) {
		t.Errorf("tenant dir still present after removal")
	}

	// The accessor recreates it cleanly afterwards.
	if _, err := os.Stat(ws.TenantDir(tenantID)); err != nil {
		t.Errorf("tenant dir not recreated: %v", err)
	}
}
