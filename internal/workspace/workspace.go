// Package workspace manages the Docshelf runtime directory structure.
// All runtime state (database file, logs, per-tenant derived artifacts)
// is consolidated under a single workspace root, making Docshelf portable.
//
// Default workspace: ~/.docshelf/workspace (configurable via config or
// DOCSHELF_WORKSPACE env var).
//
// Derived artifacts (classifier models, thumbnails, export bundles) are
// partitioned per tenant under <root>/tenants/tenant_<id>/. The only place a
// shared path is ever handed out is ArtifactPath with no resolvable tenant,
// which serves pre-tenancy installations running in single-tenant mode.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/docshelfhq/docshelf/internal/tenant"
)

// Default workspace location relative to user home directory.
const defaultRelativePath = ".docshelf/workspace"

// Workspace manages all Docshelf runtime directories and derived paths.
type Workspace struct {
	Root string

	mu      sync.Mutex
	created map[string]bool // tracks which directories have been ensured
}

// New creates a Workspace rooted at the given path.
// It resolves ~ to the user's home directory and creates the root directory
// with appropriate permissions if it does not exist.
func New(root string) (*Workspace, error) {
	resolved, err := resolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root %q: %w", root, err)
	}

	w := &Workspace{
		Root:    resolved,
		created: make(map[string]bool),
	}

	if err := w.ensureDir(resolved, 0750); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}

	return w, nil
}

// Default creates a Workspace at ~/.docshelf/workspace.
func Default() (*Workspace, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	return New(filepath.Join(home, defaultRelativePath))
}

// --- Top-level directory accessors ---

// DataDir returns <root>/data/. Holds the SQLite database in dev mode.
func (w *Workspace) DataDir() string {
	return w.dir("data")
}

// LogsDir returns <root>/logs/. Application log files.
func (w *Workspace) LogsDir() string {
	return w.dir("logs")
}

// TenantsDir returns <root>/tenants/. Parent of every tenant's artifact tree.
func (w *Workspace) TenantsDir() string {
	return w.dir("tenants")
}

// SharedDir returns <root>/shared/. The legacy single-tenant artifact
// location; only ArtifactPath hands it out, and only when no tenant is
// resolvable.
func (w *Workspace) SharedDir() string {
	return w.dir("shared")
}

// --- Derived paths ---

// ConfigPath returns <root>/config.yaml.
func (w *Workspace) ConfigPath() string {
	return filepath.Join(w.Root, "config.yaml")
}

// DatabasePath returns <root>/data/docshelf.db.
func (w *Workspace) DatabasePath() string {
	return filepath.Join(w.DataDir(), "docshelf.db")
}

// --- Tenant-scoped paths ---

// TenantDir returns <root>/tenants/tenant_<id>/. The directory name encodes
// the tenant UUID, so two tenants can never map to the same tree.
func (w *Workspace) TenantDir(tenantID uuid.UUID) string {
	p := filepath.Join(w.TenantsDir(), "tenant_"+tenantID.String())
	_ = w.ensureDir(p, 0750)
	return p
}

// ArtifactPathFor returns the path of a named derived artifact inside the
// tenant's directory.
func (w *Workspace) ArtifactPathFor(tenantID uuid.UUID, name string) string {
	return filepath.Join(w.TenantDir(tenantID), sanitizeName(name))
}

// ArtifactPath resolves a derived-artifact path from the tenant bound to ctx.
// With no tenant bound it falls back to the shared legacy location. This is
// the single sanctioned fallback site; storage access never degrades this
// way.
func (w *Workspace) ArtifactPath(ctx context.Context, name string) string {
	if id, ok := tenant.FromContext(ctx); ok {
		return w.ArtifactPathFor(id, name)
	}
	return filepath.Join(w.SharedDir(), sanitizeName(name))
}

// --- Cleanup ---

// RemoveTenantDir deletes a tenant's entire artifact tree. Used by tenant
// purge.
func (w *Workspace) RemoveTenantDir(tenantID uuid.UUID) error {
	p := filepath.Join(w.Root, "tenants", "tenant_"+tenantID.String())
	w.mu.Lock()
	delete(w.created, p)
	w.mu.Unlock()
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("removing tenant dir %s: %w", p, err)
	}
	return nil
}

// EnsureAll creates all standard workspace directories.
// Call this during first startup.
func (w *Workspace) EnsureAll() error {
	dirs := []string{
		w.DataDir(),
		w.LogsDir(),
		w.TenantsDir(),
		w.SharedDir(),
	}
	for _, d := range dirs {
		if err := w.ensureDir(d, 0750); err != nil {
			return err
		}
	}
	return nil
}

// --- Internal helpers ---

// dir returns an absolute path under the workspace root and ensures the directory exists.
func (w *Workspace) dir(name string) string {
	p := filepath.Join(w.Root, name)
	_ = w.ensureDir(p, 0750)
	return p
}

// ensureDir creates a directory if it doesn't already exist.
// Uses a cache to avoid redundant stat/mkdir calls.
func (w *Workspace) ensureDir(path string, perm os.FileMode) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.created[path] {
		return nil
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	w.created[path] = true
	return nil
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// sanitizeName replaces path separator characters to prevent directory traversal.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "_"
	}
	return name
}
