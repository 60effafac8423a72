// Package domain defines cross-cutting entity types used across the system.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated customer organization. Every partitioned row in the
// system belongs to exactly one tenant; tenants themselves are global records
// managed by provisioning.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Slug      string // Routing key, e.g. the subdomain the tenant is served under.
	Active    bool
	Region    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Correspondent is a party documents are received from or sent to.
type Correspondent struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Name              string
	Match             string
	MatchingAlgorithm string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DocumentType classifies documents (invoice, contract, receipt, ...).
type DocumentType struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Name              string
	Match             string
	MatchingAlgorithm string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Tag is a user-defined label attached to documents.
type Tag struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Color     string
	IsInbox   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document is the central record of the platform. Content holds the extracted
// text; the binary itself lives outside the database and is referenced by
// StoragePath.
type Document struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Title           string
	Content         string
	Checksum        string // SHA-256 of the original file, unique per tenant.
	StoragePath     string
	MimeType        string
	CorrespondentID *uuid.UUID
	DocumentTypeID  *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SavedView is a stored document filter owned by a user within a tenant.
type SavedView struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Owner           string // External user ID within the tenant.
	Name            string
	ShowOnDashboard bool
	SortField       string
	SortReverse     bool
	FilterRules     map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DocumentFilter narrows document listings. All fields are optional; zero
// values mean "no constraint". Tenant scoping is never expressed here — it
// comes from the bound context.
type DocumentFilter struct {
	TitleContains   string
	CorrespondentID *uuid.UUID
	DocumentTypeID  *uuid.UUID
	Limit           int
	Offset          int
}
