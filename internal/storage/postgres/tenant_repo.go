package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// TenantRepository implements storage.TenantStore. The tenants table is not
// itself partitioned, but its transactions still run with the bypass flag set
// so dependent-row checks can see every tenant's data.
type TenantRepository struct {
	db      *gorm.DB
	metrics QueryMetrics
}

// NewTenantRepository creates a TenantRepository. metrics may be nil.
func NewTenantRepository(db *gorm.DB, metrics QueryMetrics) *TenantRepository {
	return &TenantRepository{db: db, metrics: metrics}
}

func (r *TenantRepository) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bindBypassSession(tx); err != nil {
			return err
		}
		return fn(tx)
	})
	if r.metrics != nil {
		r.metrics.RecordUnscopedQuery("tenants", op)
	}
	return err
}

func (r *TenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Slug == "" {
		t.Slug = ToSlug(t.Name)
	}
	now := time.Now().UTC()
	model := TenantModel{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Active:    t.Active,
		Region:    t.Region,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.run(ctx, "create", func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return mapError(err)
	}
	*t = *toTenantDomain(&model)
	return nil
}

func (r *TenantRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var model TenantModel
	err := r.run(ctx, "get", func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toTenantDomain(&model), nil
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var model TenantModel
	err := r.run(ctx, "get_by_slug", func(tx *gorm.DB) error {
		return tx.First(&model, "slug = ?", slug).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toTenantDomain(&model), nil
}

func (r *TenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	var models []TenantModel
	err := r.run(ctx, "list", func(tx *gorm.DB) error {
		return tx.Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Tenant, len(models))
	for i := range models {
		out[i] = *toTenantDomain(&models[i])
	}
	return out, nil
}

func (r *TenantRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	err := r.run(ctx, "set_active", func(tx *gorm.DB) error {
		res := tx.Model(&TenantModel{}).Where("id = ?", id).
			Updates(map[string]interface{}{"active": active, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return mapError(err)
}

// Delete removes the tenant record. Every partitioned table is checked for
// surviving rows first, soft-deleted ones included; the caller must purge
// via the admin accessor before a tenant can go away.
func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		for _, model := range tenantModels {
			var n int64
			if err := tx.Unscoped().Model(model).Where("tenant_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %d rows remain", domain.ErrTenantHasData, n)
			}
		}
		res := tx.Where("id = ?", id).Delete(&TenantModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return mapError(err)
}

// ToSlug normalizes a tenant name into a URL-safe slug.
func ToSlug(name string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
