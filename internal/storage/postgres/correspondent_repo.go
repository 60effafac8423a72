package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// CorrespondentRepository implements storage.CorrespondentStore.
type CorrespondentRepository struct {
	scopedRepo
}

// NewCorrespondentRepository creates a CorrespondentRepository. metrics may be nil.
func NewCorrespondentRepository(db *gorm.DB, metrics QueryMetrics) *CorrespondentRepository {
	return &CorrespondentRepository{scopedRepo{db: db, metrics: metrics, table: "correspondents"}}
}

func (r *CorrespondentRepository) Create(ctx context.Context, c *domain.Correspondent) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		r.failClosed("create")
		return err
	}
	if c.TenantID != uuid.Nil && c.TenantID != tenantID {
		return domain.ErrRelationshipViolation
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	model := CorrespondentModel{
		ID:                c.ID,
		TenantID:          tenantID,
		Name:              c.Name,
		Match:             c.Match,
		MatchingAlgorithm: c.MatchingAlgorithm,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = r.run(ctx, "create", func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return mapError(err)
	}
	*c = *toCorrespondentDomain(&model)
	return nil
}

func (r *CorrespondentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Correspondent, error) {
	var model CorrespondentModel
	err := r.run(ctx, "get", func(tx *gorm.DB) error {
		return scoped(ctx, tx).First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toCorrespondentDomain(&model), nil
}

func (r *CorrespondentRepository) List(ctx context.Context) ([]domain.Correspondent, error) {
	var models []CorrespondentModel
	err := r.run(ctx, "list", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Correspondent, len(models))
	for i := range models {
		out[i] = *toCorrespondentDomain(&models[i])
	}
	return out, nil
}

func (r *CorrespondentRepository) Update(ctx context.Context, c *domain.Correspondent) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("update")
		return err
	}
	err := r.run(ctx, "update", func(tx *gorm.DB) error {
		res := scoped(ctx, tx).Model(&CorrespondentModel{}).
			Where("id = ?", c.ID).
			Select("name", "match", "matching_algorithm", "updated_at").
			Updates(CorrespondentModel{
				Name:              c.Name,
				Match:             c.Match,
				MatchingAlgorithm: c.MatchingAlgorithm,
				UpdatedAt:         time.Now().UTC(),
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

func (r *CorrespondentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("delete")
		return err
	}
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		// Documents keep existing; they just lose the assignment.
		if err := scoped(ctx, tx).Model(&DocumentModel{}).
			Where("correspondent_id = ?", id).
			Update("correspondent_id", nil).Error; err != nil {
			return err
		}
		res := scoped(ctx, tx).Where("id = ?", id).Delete(&CorrespondentModel{})
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

func (r *CorrespondentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.run(ctx, "count", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Model(&CorrespondentModel{}).Count(&n).Error
	})
	return n, err
}
