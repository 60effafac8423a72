package postgres

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantModel maps to the "tenants" table. Tenants are global identity
// records — the only table in the schema that is not itself partitioned.
type TenantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;uniqueIndex"`
	Slug      string    `gorm:"not null;uniqueIndex"`
	Active    bool      `gorm:"not null;default:true"`
	Region    string    `gorm:"not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (TenantModel) TableName() string { return "tenants" }

// CorrespondentModel maps to the "correspondents" table.
type CorrespondentModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_correspondents_tenant_name"`
	Name              string    `gorm:"not null;uniqueIndex:idx_correspondents_tenant_name"`
	Match             string    `gorm:"not null;default:''"`
	MatchingAlgorithm string    `gorm:"not null;default:'auto'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (CorrespondentModel) TableName() string { return "correspondents" }

// DocumentTypeModel maps to the "document_types" table.
type DocumentTypeModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_document_types_tenant_name"`
	Name              string    `gorm:"not null;uniqueIndex:idx_document_types_tenant_name"`
	Match             string    `gorm:"not null;default:''"`
	MatchingAlgorithm string    `gorm:"not null;default:'auto'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (DocumentTypeModel) TableName() string { return "document_types" }

// TagModel maps to the "tags" table. Tag names are unique per tenant, not
// globally — two tenants may each own an "Invoices" tag.
type TagModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tags_tenant_name"`
	Name      string    `gorm:"not null;uniqueIndex:idx_tags_tenant_name"`
	Color     string    `gorm:"not null;default:'#a6cee3'"`
	IsInbox   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (TagModel) TableName() string { return "tags" }

// DocumentModel maps to the "documents" table.
type DocumentModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_documents_tenant_checksum;index"`
	Title           string     `gorm:"not null"`
	Content         string     `gorm:"type:text;not null;default:''"`
	Checksum        string     `gorm:"not null;uniqueIndex:idx_documents_tenant_checksum"`
	StoragePath     string     `gorm:"not null;default:''"`
	MimeType        string     `gorm:"not null;default:''"`
	CorrespondentID *uuid.UUID `gorm:"type:uuid;index"`
	DocumentTypeID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (DocumentModel) TableName() string { return "documents" }

// DocumentTagModel maps to the "document_tags" join table. The row carries
// its own tenant_id so the RLS policy covers the edge as well as the
// endpoints, and so the composite foreign keys added by the migration make a
// cross-tenant edge unrepresentable.
type DocumentTagModel struct {
	DocumentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time
}

func (DocumentTagModel) TableName() string { return "document_tags" }

// JSONB is a json.RawMessage for GORM JSONB columns (TEXT under SQLite).
type JSONB json.RawMessage

// SavedViewModel maps to the "saved_views" table.
type SavedViewModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_views_tenant_owner_name"`
	Owner           string    `gorm:"not null;uniqueIndex:idx_saved_views_tenant_owner_name"`
	Name            string    `gorm:"not null;uniqueIndex:idx_saved_views_tenant_owner_name"`
	ShowOnDashboard bool      `gorm:"not null;default:false"`
	SortField       string    `gorm:"not null;default:'created_at'"`
	SortReverse     bool      `gorm:"not null;default:false"`
	FilterRules     JSONB     `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (SavedViewModel) TableName() string { return "saved_views" }
