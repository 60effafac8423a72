package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// AdminRepository implements storage.AdminStore. Every transaction here runs
// with the bypass flag bound, so the row-level security policy lets it see all
// tenants' rows. Nothing routes through it implicitly.
type AdminRepository struct {
	db      *gorm.DB
	metrics QueryMetrics
}

// NewAdminRepository creates an AdminRepository. metrics may be nil.
func NewAdminRepository(db *gorm.DB, metrics QueryMetrics) *AdminRepository {
	return &AdminRepository{db: db, metrics: metrics}
}

func (r *AdminRepository) run(ctx context.Context, table, op string, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bindBypassSession(tx); err != nil {
			return err
		}
		return fn(tx)
	})
	if r.metrics != nil {
		r.metrics.RecordUnscopedQuery(table, op)
	}
	return err
}

func (r *AdminRepository) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var models []DocumentModel
	err := r.run(ctx, "documents", "list", func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Document, len(models))
	for i := range models {
		out[i] = *toDocumentDomain(&models[i])
	}
	return out, nil
}

func (r *AdminRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var models []TagModel
	err := r.run(ctx, "tags", "list", func(tx *gorm.DB) error {
		return tx.Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Tag, len(models))
	for i := range models {
		out[i] = *toTagDomain(&models[i])
	}
	return out, nil
}

func (r *AdminRepository) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := r.run(ctx, "documents", "count", func(tx *gorm.DB) error {
		return tx.Model(&DocumentModel{}).Count(&n).Error
	})
	return n, err
}

func (r *AdminRepository) CountTags(ctx context.Context) (int64, error) {
	var n int64
	err := r.run(ctx, "tags", "count", func(tx *gorm.DB) error {
		return tx.Model(&TagModel{}).Count(&n).Error
	})
	return n, err
}

func (r *AdminRepository) DocumentCountsByTenant(ctx context.Context) (map[uuid.UUID]int64, error) {
	type row struct {
		TenantID uuid.UUID
		N        int64
	}
	var rows []row
	err := r.run(ctx, "documents", "counts_by_tenant", func(tx *gorm.DB) error {
		return tx.Model(&DocumentModel{}).
			Select("tenant_id, COUNT(*) AS n").
			Group("tenant_id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.TenantID] = r.N
	}
	return out, nil
}

// softDeleteModels are the partitioned models that carry a deleted_at column.
var softDeleteModels = []interface{}{
	&DocumentModel{},
	&TagModel{},
	&CorrespondentModel{},
	&DocumentTypeModel{},
}

// PurgeDeleted hard-deletes soft-deleted rows older than the cutoff.
func (r *AdminRepository) PurgeDeleted(ctx context.Context, olderThan time.Time) (int64, error) {
	var total int64
	err := r.run(ctx, "all", "purge_deleted", func(tx *gorm.DB) error {
		for _, model := range softDeleteModels {
			res := tx.Unscoped().
				Where("deleted_at IS NOT NULL AND deleted_at < ?", olderThan).
				Delete(model)
			if res.Error != nil {
				return res.Error
			}
			total += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// PurgeTenant removes every partitioned row owned by the tenant, edge tables
// first so foreign keys never block the sweep.
func (r *AdminRepository) PurgeTenant(ctx context.Context, tenantID uuid.UUID) error {
	order := []interface{}{
		&DocumentTagModel{},
		&DocumentModel{},
		&SavedViewModel{},
		&TagModel{},
		&CorrespondentModel{},
		&DocumentTypeModel{},
	}
	return r.run(ctx, "all", "purge_tenant", func(tx *gorm.DB) error {
		for _, model := range order {
			if err := tx.Unscoped().Where("tenant_id = ?", tenantID).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
