//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/tenant"
)

func testPostgres(t *testing.T) *DB {
	t.Helper()
	// The DSN role must be an ordinary user. A superuser (or BYPASSRLS role)
	// is exempt from row-level security and the policy assertions below
	// would report false leaks.
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping integration test")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, err := Open(Config{DSN: dsn}, logger)
	if err != nil {
		t.Fatalf("opening postgres: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testPostgresTenant provisions a tenant, registers a purge on cleanup, and
// returns a context bound to it.
func testPostgresTenant(t *testing.T, db *DB) (context.Context, uuid.UUID) {
	t.Helper()
	tenants := NewTenantRepository(db.GormDB(), nil)
	tn := &domain.Tenant{Name: fmt.Sprintf("it-%s", uuid.New().String()[:8]), Active: true}
	if err := tenants.Create(context.Background(), tn); err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
	t.Cleanup(func() {
		admin := NewAdminRepository(db.GormDB(), nil)
		_ = admin.PurgeTenant(context.Background(), tn.ID)
		_ = tenants.Delete(context.Background(), tn.ID)
	})
	return tenant.WithTenant(context.Background(), tn.ID), tn.ID
}

// Every partitioned table must have row-level security enabled AND forced,
// with exactly one policy, named tenant_isolation. Forcing matters: without
// it the table owner bypasses the policy silently.
func TestRLS_SchemaPosture(t *testing.T) {
	db := testPostgres(t)
	gdb := db.GormDB()

	for _, table := range TenantTableNames() {
		var sec struct {
			RowSecurity   bool
			ForceSecurity bool
		}
		err := gdb.Raw(
			"SELECT relrowsecurity AS row_security, relforcerowsecurity AS force_security FROM pg_class WHERE relname = ?",
			table,
		).Scan(&sec).Error
		if err != nil {
			t.Fatalf("%s: querying pg_class: %v", table, err)
		}
		if !sec.RowSecurity {
			t.Errorf("%s: row level security not enabled", table)
		}
		if !sec.ForceSecurity {
			t.Errorf("%s: row level security not forced", table)
		}

		var policies []string
		err = gdb.Raw(
			"SELECT policyname FROM pg_policies WHERE schemaname = current_schema() AND tablename = ?",
			table,
		).Scan(&policies).Error
		if err != nil {
			t.Fatalf("%s: querying pg_policies: %v", table, err)
		}
		if len(policies) != 1 || policies[0] != "tenant_isolation" {
			t.Errorf("%s: policies = %v, want exactly [tenant_isolation]", table, policies)
		}
	}
}

// A raw query on a connection with no tenant session variable must see zero
// rows, even though rows exist. This is the storage layer failing closed
// independently of any application filter.
func TestRLS_RawQueryFailsClosed(t *testing.T) {
	db := testPostgres(t)
	ctx, tenantID := testPostgresTenant(t, db)

	tags := NewTagRepository(db.GormDB(), nil)
	tag := &domain.Tag{Name: "invoices"}
	if err := tags.Create(ctx, tag); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := db.GormDB().Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Raw("SELECT COUNT(*) FROM tags WHERE tenant_id = ?", tenantID).Scan(&n).Error; err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("unbound raw query saw %d rows, want 0", n)
		}

		// Bind the session variable and the same query sees the row.
		if err := tx.Exec("SELECT set_config('app.current_tenant_id', ?, true)", tenantID.String()).Error; err != nil {
			return err
		}
		if err := tx.Raw("SELECT COUNT(*) FROM tags WHERE tenant_id = ?", tenantID).Scan(&n).Error; err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("bound raw query saw %d rows, want 1", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

// The bound tenant must not see another tenant's rows even with raw SQL that
// names the other tenant explicitly.
func TestRLS_BoundTenantCannotReachAcross(t *testing.T) {
	db := testPostgres(t)
	ctxA, tenantA := testPostgresTenant(t, db)
	ctxB, tenantB := testPostgresTenant(t, db)

	tags := NewTagRepository(db.GormDB(), nil)
	if err := tags.Create(ctxA, &domain.Tag{Name: "ours"}); err != nil {
		t.Fatalf("create A: %v", err)
	}
	if err := tags.Create(ctxB, &domain.Tag{Name: "theirs"}); err != nil {
		t.Fatalf("create B: %v", err)
	}

	err := db.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.current_tenant_id', ?, true)", tenantA.String()).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Raw("SELECT COUNT(*) FROM tags WHERE tenant_id = ?", tenantB).Scan(&n).Error; err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("tenant A's session saw %d of tenant B's rows", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

// The bypass variable lifts the policy for the transaction that sets it —
// and only that transaction.
func TestRLS_BypassIsTransactionLocal(t *testing.T) {
	db := testPostgres(t)
	ctx, _ := testPostgresTenant(t, db)

	tags := NewTagRepository(db.GormDB(), nil)
	if err := tags.Create(ctx, &domain.Tag{Name: "visible-to-admin"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	gdb := db.GormDB()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.tenant_bypass', 'on', true)").Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Raw("SELECT COUNT(*) FROM tags").Scan(&n).Error; err != nil {
			return err
		}
		if n < 1 {
			t.Errorf("bypass transaction saw %d rows, want at least 1", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("bypass transaction: %v", err)
	}

	// A later transaction on the pool must not inherit the bypass.
	err = gdb.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Raw("SELECT COUNT(*) FROM tags").Scan(&n).Error; err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("bypass leaked across transactions: saw %d rows", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("follow-up transaction: %v", err)
	}
}

// The composite foreign keys on document_tags make an edge row whose tenant
// disagrees with its endpoints unrepresentable, even under bypass.
func TestCompositeEdgeKeys_RejectCrossTenantEdge(t *testing.T) {
	db := testPostgres(t)
	ctxA, _ := testPostgresTenant(t, db)
	ctxB, tenantB := testPostgresTenant(t, db)

	docs := NewDocumentRepository(db.GormDB(), nil)
	tags := NewTagRepository(db.GormDB(), nil)

	doc := &domain.Document{Title: "contract", Checksum: uuid.New().String()}
	if err := docs.Create(ctxA, doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}
	tag := &domain.Tag{Name: "urgent"}
	if err := tags.Create(ctxB, tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	err := db.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.tenant_bypass', 'on', true)").Error; err != nil {
			return err
		}
		return tx.Exec(
			"INSERT INTO document_tags (document_id, tag_id, tenant_id, created_at) VALUES (?, ?, ?, now())",
			doc.ID, tag.ID, tenantB,
		).Error
	})
	if err == nil {
		t.Fatal("cross-tenant edge insert succeeded, want foreign key violation")
	}
}
