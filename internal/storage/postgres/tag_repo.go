package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// TagRepository implements storage.TagStore with tenant scoping.
type TagRepository struct {
	scopedRepo
}

// NewTagRepository creates a TagRepository. metrics may be nil.
func NewTagRepository(db *gorm.DB, metrics QueryMetrics) *TagRepository {
	return &TagRepository{scopedRepo{db: db, metrics: metrics, table: "tags"}}
}

func (r *TagRepository) Create(ctx context.Context, t *domain.Tag) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		r.failClosed("create")
		return err
	}
	if t.TenantID != uuid.Nil && t.TenantID != tenantID {
		return domain.ErrRelationshipViolation
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	model := TagModel{
		ID:        t.ID,
		TenantID:  tenantID,
		Name:      t.Name,
		Color:     t.Color,
		IsInbox:   t.IsInbox,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = r.run(ctx, "create", func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return mapError(err)
	}
	*t = *toTagDomain(&model)
	return nil
}

func (r *TagRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	var model TagModel
	err := r.run(ctx, "get", func(tx *gorm.DB) error {
		return scoped(ctx, tx).First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toTagDomain(&model), nil
}

func (r *TagRepository) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	var model TagModel
	err := r.run(ctx, "get_by_name", func(tx *gorm.DB) error {
		return scoped(ctx, tx).First(&model, "name = ?", name).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toTagDomain(&model), nil
}

func (r *TagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	var models []TagModel
	err := r.run(ctx, "list", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	tags := make([]domain.Tag, len(models))
	for i := range models {
		tags[i] = *toTagDomain(&models[i])
	}
	return tags, nil
}

func (r *TagRepository) Update(ctx context.Context, t *domain.Tag) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("update")
		return err
	}
	err := r.run(ctx, "update", func(tx *gorm.DB) error {
		res := scoped(ctx, tx).Model(&TagModel{}).
			Where("id = ?", t.ID).
			Select("name", "color", "is_inbox", "updated_at").
			Updates(TagModel{Name: t.Name, Color: t.Color, IsInbox: t.IsInbox, UpdatedAt: time.Now().UTC()})
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

func (r *TagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("delete")
		return err
	}
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		// Drop the document edges first, then soft-delete the tag.
		if err := scoped(ctx, tx).Where("tag_id = ?", id).Delete(&DocumentTagModel{}).Error; err != nil {
			return err
		}
		res := scoped(ctx, tx).Where("id = ?", id).Delete(&TagModel{})
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

func (r *TagRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.run(ctx, "count", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Model(&TagModel{}).Count(&n).Error
	})
	return n, err
}

func (r *TagRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.run(ctx, "exists", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Model(&TagModel{}).Where("id = ?", id).Count(&n).Error
	})
	return n > 0, err
}
