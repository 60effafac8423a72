// Package storage defines the unified Store interface that abstracts all persistence operations.
// Two backends are provided: SQLite (zero-config, single-tenant development)
// and PostgreSQL (production, with row-level security enforcement).
//
// Every accessor except Tenants and Admin is tenant-scoped: queries are
// intersected with the tenant bound to the caller's context, and an unbound
// context yields empty results, never cross-tenant data. Admin is the single,
// explicitly named bypass for provisioning and maintenance code.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// Store is the unified persistence interface for Docshelf.
type Store interface {
	// Tenant-scoped accessors. All operations consult the tenant bound to
	// the context; see the individual interfaces for the fail-closed rules.
	Documents() DocumentStore
	Tags() TagStore
	Correspondents() CorrespondentStore
	DocumentTypes() DocumentTypeStore
	SavedViews() SavedViewStore

	// Tenants manages the global tenant registry (provisioning only).
	Tenants() TenantStore

	// Admin is the unscoped bypass. Call sites are expected to be
	// administrative: migrations, cross-tenant reporting, maintenance.
	Admin() AdminStore

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error

	// Driver returns the storage driver name ("sqlite" or "postgres").
	Driver() string
}

// TenantStore manages tenant identity records. These are global rows, not
// themselves partitioned; creation happens at provisioning time.
type TenantStore interface {
	Create(ctx context.Context, t *domain.Tenant) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// Delete removes a tenant record. It fails with ErrTenantHasData while
	// any partitioned row still references the tenant; use Admin().PurgeTenant
	// to cascade first.
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentStore is the scoped accessor for documents.
//
// Create stamps the document with the tenant bound to the context and fails
// with ErrMissingTenant when none is bound. Get/List/Count/Exists intersect
// with the bound tenant and fail closed (empty, zero, false) when none is
// bound. A row owned by another tenant is reported as ErrNotFound.
type DocumentStore interface {
	Create(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	Update(ctx context.Context, d *domain.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Tag edges. Both endpoints must be visible under the bound tenant;
	// a link across tenants is rejected before anything is written.
	AttachTag(ctx context.Context, docID, tagID uuid.UUID) error
	DetachTag(ctx context.Context, docID, tagID uuid.UUID) error

	// Reverse traversals. These re-apply tenant scoping on the far side of
	// the join rather than trusting the edge rows.
	TagsFor(ctx context.Context, docID uuid.UUID) ([]domain.Tag, error)
	ListByTag(ctx context.Context, tagID uuid.UUID) ([]domain.Document, error)
	ListByCorrespondent(ctx context.Context, correspondentID uuid.UUID) ([]domain.Document, error)
}

// TagStore is the scoped accessor for tags.
type TagStore interface {
	Create(ctx context.Context, t *domain.Tag) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Tag, error)
	GetByName(ctx context.Context, name string) (*domain.Tag, error)
	List(ctx context.Context) ([]domain.Tag, error)
	Update(ctx context.Context, t *domain.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CorrespondentStore is the scoped accessor for correspondents.
type CorrespondentStore interface {
	Create(ctx context.Context, c *domain.Correspondent) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Correspondent, error)
	List(ctx context.Context) ([]domain.Correspondent, error)
	Update(ctx context.Context, c *domain.Correspondent) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// DocumentTypeStore is the scoped accessor for document types.
type DocumentTypeStore interface {
	Create(ctx context.Context, dt *domain.DocumentType) error
	Get(ctx context.Context, id uuid.UUID) (*domain.DocumentType, error)
	List(ctx context.Context) ([]domain.DocumentType, error)
	Update(ctx context.Context, dt *domain.DocumentType) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// SavedViewStore is the scoped accessor for saved views.
type SavedViewStore interface {
	Create(ctx context.Context, v *domain.SavedView) error
	Get(ctx context.Context, id uuid.UUID) (*domain.SavedView, error)
	ListForOwner(ctx context.Context, owner string) ([]domain.SavedView, error)
	Update(ctx context.Context, v *domain.SavedView) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminStore reads and mutates rows across all tenants. It exists so that
// privileged code paths are grep-able call sites, never a default.
type AdminStore interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	CountDocuments(ctx context.Context) (int64, error)
	CountTags(ctx context.Context) (int64, error)
	// DocumentCountsByTenant supports cross-tenant reporting.
	DocumentCountsByTenant(ctx context.Context) (map[uuid.UUID]int64, error)
	// PurgeDeleted hard-deletes soft-deleted rows older than the cutoff,
	// across all tenants. Returns the number of rows removed.
	PurgeDeleted(ctx context.Context, olderThan time.Time) (int64, error)
	// PurgeTenant cascade-deletes every partitioned row owned by the tenant.
	PurgeTenant(ctx context.Context, tenantID uuid.UUID) error
}

// DriverSQLite is the SQLite driver name.
const DriverSQLite = "sqlite"

// DriverPostgres is the PostgreSQL driver name.
const DriverPostgres = "postgres"
