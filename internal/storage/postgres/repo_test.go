package postgres

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/tenant"
)

// testGorm opens a throwaway SQLite database with the full schema. The
// repositories apply the same application-level scoping on every dialect, so
// everything except the RLS policies themselves is testable here; the
// policies are covered by the integration tests against real PostgreSQL.
func testGorm(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(AllModels()...); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

// testTenant provisions a tenant and returns a context bound to it.
func testTenant(t *testing.T, db *gorm.DB, name string) (context.Context, uuid.UUID) {
	t.Helper()
	repo := NewTenantRepository(db, nil)
	tn := &domain.Tenant{Name: name, Active: true}
	if err := repo.Create(context.Background(), tn); err != nil {
		t.Fatalf("creating tenant %s: %v", name, err)
	}
	return tenant.WithTenant(context.Background(), tn.ID), tn.ID
}

func mustCreateTag(t *testing.T, repo *TagRepository, ctx context.Context, name string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Name: name}
	if err := repo.Create(ctx, tag); err != nil {
		t.Fatalf("creating tag %s: %v", name, err)
	}
	return tag
}

func mustCreateDocument(t *testing.T, repo *DocumentRepository, ctx context.Context, d *domain.Document) *domain.Document {
	t.Helper()
	if d.Checksum == "" {
		d.Checksum = uuid.New().String()
	}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("creating document %q: %v", d.Title, err)
	}
	return d
}
