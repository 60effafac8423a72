package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// DocumentRepository implements storage.DocumentStore with tenant scoping.
//
// Every traversal in here re-applies the tenant scope on the far side of a
// join. The document_tags edge table is never trusted on its own: a forged
// edge row cannot widen a result set beyond the bound tenant.
type DocumentRepository struct {
	scopedRepo
}

// NewDocumentRepository creates a DocumentRepository. metrics may be nil.
func NewDocumentRepository(db *gorm.DB, metrics QueryMetrics) *DocumentRepository {
	return &DocumentRepository{scopedRepo{db: db, metrics: metrics, table: "documents"}}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		r.failClosed("create")
		return err
	}
	if d.TenantID != uuid.Nil && d.TenantID != tenantID {
		return domain.ErrRelationshipViolation
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	model := DocumentModel{
		ID:              d.ID,
		TenantID:        tenantID,
		Title:           d.Title,
		Content:         d.Content,
		Checksum:        d.Checksum,
		StoragePath:     d.StoragePath,
		MimeType:        d.MimeType,
		CorrespondentID: d.CorrespondentID,
		DocumentTypeID:  d.DocumentTypeID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = r.run(ctx, "create", func(tx *gorm.DB) error {
		if err := checkDocumentRefs(ctx, tx, d.CorrespondentID, d.DocumentTypeID); err != nil {
			return err
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return mapError(err)
	}
	*d = *toDocumentDomain(&model)
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var model DocumentModel
	err := r.run(ctx, "get", func(tx *gorm.DB) error {
		return scoped(ctx, tx).First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toDocumentDomain(&model), nil
}

func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var models []DocumentModel
	err := r.run(ctx, "list", func(tx *gorm.DB) error {
		q := scoped(ctx, tx).Model(&DocumentModel{})
		if filter.TitleContains != "" {
			q = q.Where("title LIKE ?", "%"+filter.TitleContains+"%")
		}
		if filter.CorrespondentID != nil {
			q = q.Where("correspondent_id = ?", *filter.CorrespondentID)
		}
		if filter.DocumentTypeID != nil {
			q = q.Where("document_type_id = ?", *filter.DocumentTypeID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		return q.Order("created_at DESC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(models))
	for i := range models {
		docs[i] = *toDocumentDomain(&models[i])
	}
	return docs, nil
}

func (r *DocumentRepository) Update(ctx context.Context, d *domain.Document) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("update")
		return err
	}
	err := r.run(ctx, "update", func(tx *gorm.DB) error {
		if err := checkDocumentRefs(ctx, tx, d.CorrespondentID, d.DocumentTypeID); err != nil {
			return err
		}
		res := scoped(ctx, tx).Model(&DocumentModel{}).
			Where("id = ?", d.ID).
			Select("title", "content", "storage_path", "mime_type",
				"correspondent_id", "document_type_id", "updated_at").
			Updates(DocumentModel{
				Title:           d.Title,
				Content:         d.Content,
				StoragePath:     d.StoragePath,
				MimeType:        d.MimeType,
				CorrespondentID: d.CorrespondentID,
				DocumentTypeID:  d.DocumentTypeID,
				UpdatedAt:       time.Now().UTC(),
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

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("delete")
		return err
	}
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		if err := scoped(ctx, tx).Where("document_id = ?", id).Delete(&DocumentTagModel{}).Error; err != nil {
			return err
		}
		res := scoped(ctx, tx).Where("id = ?", id).Delete(&DocumentModel{})
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

func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.run(ctx, "count", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Model(&DocumentModel{}).Count(&n).Error
	})
	return n, err
}

func (r *DocumentRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.run(ctx, "exists", func(tx *gorm.DB) error {
		return scoped(ctx, tx).Model(&DocumentModel{}).Where("id = ?", id).Count(&n).Error
	})
	return n > 0, err
}

// AttachTag links a tag to a document. The document must be visible under
// the bound tenant (ErrNotFound otherwise); a tag that is not, whether foreign
// or nonexistent, is a relationship violation.
// Nothing is written unless both checks pass, and the composite foreign keys
// installed by the migration back the same rule in the schema.
func (r *DocumentRepository) AttachTag(ctx context.Context, docID, tagID uuid.UUID) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		r.failClosed("attach_tag")
		return err
	}
	err = r.run(ctx, "attach_tag", func(tx *gorm.DB) error {
		var n int64
		if err := scoped(ctx, tx).Model(&DocumentModel{}).Where("id = ?", docID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		if err := scoped(ctx, tx).Model(&TagModel{}).Where("id = ?", tagID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrRelationshipViolation
		}
		edge := DocumentTagModel{
			DocumentID: docID,
			TagID:      tagID,
			TenantID:   tenantID,
			CreatedAt:  time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
	})
	return mapError(err)
}

func (r *DocumentRepository) DetachTag(ctx context.Context, docID, tagID uuid.UUID) error {
	if _, err := requireTenant(ctx); err != nil {
		r.failClosed("detach_tag")
		return err
	}
	err := r.run(ctx, "detach_tag", func(tx *gorm.DB) error {
		res := scoped(ctx, tx).
			Where("document_id = ? AND tag_id = ?", docID, tagID).
			Delete(&DocumentTagModel{})
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

// TagsFor returns the tags attached to a document. Scoping is re-applied on
// the tags side of the join, not inherited from the edge rows.
func (r *DocumentRepository) TagsFor(ctx context.Context, docID uuid.UUID) ([]domain.Tag, error) {
	var models []TagModel
	err := r.run(ctx, "tags_for", func(tx *gorm.DB) error {
		var n int64
		if err := scoped(ctx, tx).Model(&DocumentModel{}).Where("id = ?", docID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return scopedTable(ctx, tx, "tags").Model(&TagModel{}).
			Joins("JOIN document_tags ON document_tags.tag_id = tags.id").
			Where("document_tags.document_id = ?", docID).
			Where("document_tags.tenant_id = tags.tenant_id").
			Order("tags.name ASC").
			Find(&models).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	tags := make([]domain.Tag, len(models))
	for i := range models {
		tags[i] = *toTagDomain(&models[i])
	}
	return tags, nil
}

// ListByTag returns the documents carrying a tag — the reverse traversal of
// TagsFor, with the same re-scoping on the documents side.
func (r *DocumentRepository) ListByTag(ctx context.Context, tagID uuid.UUID) ([]domain.Document, error) {
	var models []DocumentModel
	err := r.run(ctx, "list_by_tag", func(tx *gorm.DB) error {
		var n int64
		if err := scoped(ctx, tx).Model(&TagModel{}).Where("id = ?", tagID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return scopedTable(ctx, tx, "documents").Model(&DocumentModel{}).
			Joins("JOIN document_tags ON document_tags.document_id = documents.id").
			Where("document_tags.tag_id = ?", tagID).
			Where("document_tags.tenant_id = documents.tenant_id").
			Order("documents.created_at DESC").
			Find(&models).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	docs := make([]domain.Document, len(models))
	for i := range models {
		docs[i] = *toDocumentDomain(&models[i])
	}
	return docs, nil
}

func (r *DocumentRepository) ListByCorrespondent(ctx context.Context, correspondentID uuid.UUID) ([]domain.Document, error) {
	var models []DocumentModel
	err := r.run(ctx, "list_by_correspondent", func(tx *gorm.DB) error {
		var n int64
		if err := scoped(ctx, tx).Model(&CorrespondentModel{}).Where("id = ?", correspondentID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return scoped(ctx, tx).
			Where("correspondent_id = ?", correspondentID).
			Order("created_at DESC").
			Find(&models).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	docs := make([]domain.Document, len(models))
	for i := range models {
		docs[i] = *toDocumentDomain(&models[i])
	}
	return docs, nil
}

// checkDocumentRefs verifies that any referenced correspondent or document
// type is visible under the bound tenant. An invisible reference, foreign or
// nonexistent, is a relationship violation reported before any write.
func checkDocumentRefs(ctx context.Context, tx *gorm.DB, correspondentID, documentTypeID *uuid.UUID) error {
	if correspondentID != nil {
		var n int64
		if err := scoped(ctx, tx).Model(&CorrespondentModel{}).Where("id = ?", *correspondentID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrRelationshipViolation
		}
	}
	if documentTypeID != nil {
		var n int64
		if err := scoped(ctx, tx).Model(&DocumentTypeModel{}).Where("id = ?", *documentTypeID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrRelationshipViolation
		}
	}
	return nil
}
