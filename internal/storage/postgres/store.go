package postgres

import (
	"context"
	"sync"

	"github.com/docshelfhq/docshelf/internal/storage"
)

// Store implements storage.Store backed by PostgreSQL with row-level
// security enforced on every partitioned table.
type Store struct {
	db      *DB
	metrics QueryMetrics

	// Sub-store instances (created lazily on first access).
	mu             sync.Mutex
	documents      storage.DocumentStore
	tags           storage.TagStore
	correspondents storage.CorrespondentStore
	documentTypes  storage.DocumentTypeStore
	savedViews     storage.SavedViewStore
	tenants        storage.TenantStore
	admin          storage.AdminStore
}

// NewStore wraps an open DB as a storage.Store. metrics may be nil.
func NewStore(db *DB, metrics QueryMetrics) *Store {
	return &Store{db: db, metrics: metrics}
}

// Migrate creates the schema and installs the isolation policies.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns "postgres".
func (s *Store) Driver() string {
	return storage.DriverPostgres
}

func (s *Store) Documents() storage.DocumentStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documents == nil {
		s.documents = NewDocumentRepository(s.db.GormDB(), s.metrics)
	}
	return s.documents
}

func (s *Store) Tags() storage.TagStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags == nil {
		s.tags = NewTagRepository(s.db.GormDB(), s.metrics)
	}
	return s.tags
}

func (s *Store) Correspondents() storage.CorrespondentStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.correspondents == nil {
		s.correspondents = NewCorrespondentRepository(s.db.GormDB(), s.metrics)
	}
	return s.correspondents
}

func (s *Store) DocumentTypes() storage.DocumentTypeStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documentTypes == nil {
		s.documentTypes = NewDocumentTypeRepository(s.db.GormDB(), s.metrics)
	}
	return s.documentTypes
}

func (s *Store) SavedViews() storage.SavedViewStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.savedViews == nil {
		s.savedViews = NewSavedViewRepository(s.db.GormDB(), s.metrics)
	}
	return s.savedViews
}

func (s *Store) Tenants() storage.TenantStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenants == nil {
		s.tenants = NewTenantRepository(s.db.GormDB(), s.metrics)
	}
	return s.tenants
}

func (s *Store) Admin() storage.AdminStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admin == nil {
		s.admin = NewAdminRepository(s.db.GormDB(), s.metrics)
	}
	return s.admin
}
