package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/tenant"
)

// Session variables consumed by the row-level-security policies. Both are
// bound transaction-locally: they die with the transaction, never with the
// pooled connection.
const (
	// sessionTenantVar holds the tenant the current transaction acts for.
	// An unset or empty value matches no rows — the storage layer fails
	// closed exactly like the application-layer scope.
	sessionTenantVar = "app.current_tenant_id"

	// sessionBypassVar marks a transaction as administrative. Only the
	// admin repository and the tenant registry ever set it.
	sessionBypassVar = "app.tenant_bypass"
)

// tenantModels is the single source of truth for the partitioned schema.
// AutoMigrate, the RLS migration, and the schema assertions in the
// integration tests all iterate this list, so an application filter and a
// storage policy cannot drift apart for any listed model. Order matters:
// referenced tables come before referencing ones.
var tenantModels = []interface{}{
	&CorrespondentModel{},
	&DocumentTypeModel{},
	&TagModel{},
	&DocumentModel{},
	&DocumentTagModel{},
	&SavedViewModel{},
}

// AllModels returns every model the schema migration covers, the global
// tenants table first. Shared with the SQLite backend so both migrations
// produce the same schema.
func AllModels() []interface{} {
	return append([]interface{}{&TenantModel{}}, tenantModels...)
}

// TenantTableNames returns the table names of every tenant-partitioned model.
// Exposed for the schema tests and operational checklists.
func TenantTableNames() []string {
	names := make([]string, 0, len(tenantModels))
	for _, m := range tenantModels {
		names = append(names, m.(interface{ TableName() string }).TableName())
	}
	return names
}

// bindTenantSession binds the RLS session variable on tx to the tenant in
// ctx. With no tenant bound the variable is cleared, which makes every
// policy predicate false. No-op on non-postgres dialects (SQLite has no RLS;
// the application-layer scope is the only guard there).
func bindTenantSession(ctx context.Context, tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	value := ""
	if id, ok := tenant.FromContext(ctx); ok {
		value = id.String()
	}
	if err := tx.Exec("SELECT set_config(?, ?, true)", sessionTenantVar, value).Error; err != nil {
		return fmt.Errorf("binding tenant session variable: %w", err)
	}
	return nil
}

// bindBypassSession marks tx as administrative for the duration of the
// transaction, exempting it from the tenant policies. The storage-layer
// twin of Store.Admin(): bypass is always an explicit call, never a default.
func bindBypassSession(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("SELECT set_config(?, 'on', true)", sessionBypassVar).Error; err != nil {
		return fmt.Errorf("binding bypass session variable: %w", err)
	}
	return nil
}

// rlsPredicate is the policy expression shared by USING and WITH CHECK.
// NULLIF maps an unset or empty session variable to NULL, and a NULL
// comparison matches nothing: zero rows, the fail-closed default.
const rlsPredicate = `tenant_id = NULLIF(current_setting('` + sessionTenantVar + `', true), '')::uuid` +
	` OR current_setting('` + sessionBypassVar + `', true) = 'on'`

// applyRowLevelSecurity enables and forces RLS on every tenant-partitioned
// table and installs exactly one isolation policy per table. FORCE makes the
// table owner subject to the policy too, so even raw queries on a privileged
// connection cannot cross tenants without the explicit bypass variable.
// Idempotent: safe to run on every startup migration.
func applyRowLevelSecurity(db *gorm.DB) error {
	for _, table := range TenantTableNames() {
		stmts := []string{
			fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", table),
			fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY", table),
			fmt.Sprintf("DROP POLICY IF EXISTS tenant_isolation ON %s", table),
			fmt.Sprintf("CREATE POLICY tenant_isolation ON %s USING (%s) WITH CHECK (%s)",
				table, rlsPredicate, rlsPredicate),
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("applying RLS to %s: %w", table, err)
			}
		}
	}
	return applyCompositeEdgeKeys(db)
}

// applyCompositeEdgeKeys adds (tenant_id, id) composite foreign keys from the
// document_tags join table to both endpoints. With these in place a join row
// whose tenant disagrees with either endpoint is unrepresentable — the schema
// itself rejects cross-tenant edges, independently of application checks and
// RLS.
func applyCompositeEdgeKeys(db *gorm.DB) error {
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_tenant_pk ON documents (tenant_id, id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_tenant_pk ON tags (tenant_id, id)",
		"ALTER TABLE document_tags DROP CONSTRAINT IF EXISTS fk_document_tags_document",
		`ALTER TABLE document_tags ADD CONSTRAINT fk_document_tags_document
			FOREIGN KEY (tenant_id, document_id) REFERENCES documents (tenant_id, id) ON DELETE CASCADE`,
		"ALTER TABLE document_tags DROP CONSTRAINT IF EXISTS fk_document_tags_tag",
		`ALTER TABLE document_tags ADD CONSTRAINT fk_document_tags_tag
			FOREIGN KEY (tenant_id, tag_id) REFERENCES tags (tenant_id, id) ON DELETE CASCADE`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("applying composite edge keys: %w", err)
		}
	}
	return nil
}
