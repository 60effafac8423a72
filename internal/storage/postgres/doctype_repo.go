package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// DocumentTypeRepository implements storage.DocumentTypeStore.
type DocumentTypeRepository struct {
	scopedRepo
}

// NewDocumentTypeRepository creates a DocumentTypeRepository. metrics may be nil.
func NewDocumentTypeRepository(db *gorm.DB, metrics QueryMetrics) *DocumentTypeRepository {
	return &DocumentTypeRepository{scopedRepo{db: db, metrics: metrics, table: "document_types"}}
}

func (r *DocumentTypeRepository) Create(ctx context.Context, dt *domain.DocumentType) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		r.failClosed("create")
		return err
	}
	if dt.TenantID != uuid.Nil && dt.TenantID != tenantID {
		return domain.ErrRelationshipViolation
	}
	if dt.ID == uuid.Nil {
		dt.ID = uuid.New()
	}
	now := time.Now().UTC()
	model := DocumentTypeModel{
		ID:                dt.ID,
		TenantID:          tenantID,
		Name:              dt.Name,
		Match:             dt.Match,
		MatchingAlgorithm: dt.MatchingAlgorithm,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = r.run(ctx, "create", func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return mapError(err)
	}
	*dt = *toDocumentTypeDomain(&model)
	return nil
}

func (r *DocumentTypeRepository) Get(ctx context.Context, id uuid.UUID) (*domain.DocumentType, error) {
	var model DocumentTypeModel
	err := r.run(ctx, "get", func(tx *gorm.DB) error {
		return scoped(ctx, tx).First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toDocumentTypeDomain(&model), nil
}

func (r *DocumentTypeRepository) List(ctx context.Context) ([]domain.DocumentType, error) {
	var models []DocumentTypeModel
	err := r.run(ctx, "list", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.DocumentType, len(models))
	for i := range models {
		out[i] = *toDocumentTypeDomain(&models[i])
	}
	return out, nil
}

func (r *DocumentTypeRepository) Update(ctx context.Context, dt *domain.DocumentType) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("update")
		return err
	}
	err := r.run(ctx, "update", func(tx *gorm.DB) error {
		res := scoped(ctx, tx).Model(&DocumentTypeModel{}).
			Where("id = ?", dt.ID).
			Select("name", "match", "matching_algorithm", "updated_at").
			Updates(DocumentTypeModel{
				Name:              dt.Name,
				Match:             dt.Match,
				MatchingAlgorithm: dt.MatchingAlgorithm,
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

func (r *DocumentTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("delete")
		return err
	}
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		if err := scoped(ctx, tx).Model(&DocumentModel{}).
			Where("document_type_id = ?", id).
			Update("document_type_id", nil).Error; err != nil {
			return err
		}
		res := scoped(ctx, tx).Where("id = ?", id).Delete(&DocumentTypeModel{})
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

func (r *DocumentTypeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.run(ctx, "count", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Model(&DocumentTypeModel{}).Count(&n).Error
	})
	return n, err
}
