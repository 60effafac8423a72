package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/tenant"
)

// QueryMetrics records access-layer outcomes. Satisfied by
// observability.MetricsCollector; nil disables recording.
type QueryMetrics interface {
	RecordQuery(table, op, outcome string)
	RecordUnscopedQuery(table, op string)
	RecordFailClosed(table, op string)
}

// scoped narrows tx to the tenant bound in ctx. With no binding the predicate
// is constant false: a missing context means no permission, not no restriction.
func scoped(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if id, ok := tenant.FromContext(ctx); ok {
		return tx.Where("tenant_id = ?", id)
	}
	return tx.Where("1 = 0")
}

// scopedTable is scoped with an explicit table qualifier, for joins where a
// bare tenant_id column would be ambiguous.
func scopedTable(ctx context.Context, tx *gorm.DB, table string) *gorm.DB {
	if id, ok := tenant.FromContext(ctx); ok {
		return tx.Where(table+".tenant_id = ?", id)
	}
	return tx.Where("1 = 0")
}

// requireTenant returns the tenant bound to ctx, or ErrMissingTenant.
// Write paths call it so that tenant data can never be created unowned.
func requireTenant(ctx context.Context) (uuid.UUID, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok {
		return uuid.Nil, domain.ErrMissingTenant
	}
	return id, nil
}

// scopedRepo holds the plumbing shared by all tenant-partitioned
// repositories: the GORM handle, the metrics hook, and the transaction
// wrapper that rebinds the RLS session variable.
type scopedRepo struct {
	db      *gorm.DB
	metrics QueryMetrics
	table   string
}

// run executes fn inside a transaction with the row-level-security session
// variable bound to the tenant in ctx. The binding is transaction-local
// (set_config with is_local = true), so the pooled connection returns to the
// pool unbound and the next checkout must rebind — connection reuse can never
// inherit a tenant.
func (r scopedRepo) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	if _, ok := tenant.FromContext(ctx); !ok {
		r.failClosed(op)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bindTenantSession(ctx, tx); err != nil {
			return err
		}
		return fn(tx)
	})
	r.record(op, err)
	return err
}

func (r scopedRepo) record(op string, err error) {
	if r.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.metrics.RecordQuery(r.table, op, outcome)
}

func (r scopedRepo) failClosed(op string) {
	if r.metrics != nil {
		r.metrics.RecordFailClosed(r.table, op)
	}
}
