package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// SavedViewRepository implements storage.SavedViewStore.
type SavedViewRepository struct {
	scopedRepo
}

// NewSavedViewRepository creates a SavedViewRepository. metrics may be nil.
func NewSavedViewRepository(db *gorm.DB, metrics QueryMetrics) *SavedViewRepository {
	return &SavedViewRepository{scopedRepo{db: db, metrics: metrics, table: "saved_views"}}
}

func (r *SavedViewRepository) Create(ctx context.Context, v *domain.SavedView) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		r.failClosed("create")
		return err
	}
	if v.TenantID != uuid.Nil && v.TenantID != tenantID {
		return domain.ErrRelationshipViolation
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now().UTC()
	model := toSavedViewModel(v)
	model.TenantID = tenantID
	model.CreatedAt = now
	model.UpdatedAt = now
	err = r.run(ctx, "create", func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return mapError(err)
	}
	*v = *toSavedViewDomain(&model)
	return nil
}

func (r *SavedViewRepository) Get(ctx context.Context, id uuid.UUID) (*domain.SavedView, error) {
	var model SavedViewModel
	err := r.run(ctx, "get", func(tx *gorm.DB) error {
		return scoped(ctx, tx).First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toSavedViewDomain(&model), nil
}

func (r *SavedViewRepository) ListForOwner(ctx context.Context, owner string) ([]domain.SavedView, error) {
	var models []SavedViewModel
	err := r.run(ctx, "list", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Where("owner = ?", owner).Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.SavedView, 0, len(models))
	for i := range models {
		out = append(out, *toSavedViewDomain(&models[i]))
	}
	return out, nil
}

func (r *SavedViewRepository) Update(ctx context.Context, v *domain.SavedView) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("update")
		return err
	}
	model := toSavedViewModel(v)
	err := r.run(ctx, "update", func(tx *gorm.DB) error {
		res := scoped(ctx, tx).Model(&SavedViewModel{}).
			Where("id = ?", v.ID).
			Select("name", "show_on_dashboard", "sort_field", "sort_reverse", "filter_rules", "updated_at").
			Updates(map[string]interface{}{
				"name":              model.Name,
				"show_on_dashboard": model.ShowOnDashboard,
				"sort_field":        model.SortField,
				"sort_reverse":      model.SortReverse,
				"filter_rules":      model.FilterRules,
				"updated_at":        time.Now().UTC(),
			})
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

func (r *SavedViewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("delete")
		return err
	}
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		res := scoped(ctx, tx).Where("id = ?", id).Delete(&SavedViewModel{})
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
