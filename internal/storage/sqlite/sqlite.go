// Package sqlite implements the unified Store interface using SQLite via GORM.
// Uses modernc.org/sqlite (pure Go, no CGO) through the glebarez/sqlite GORM driver.
//
// This backend exists for zero-config development and for tests. It runs the
// same repositories and the same application-level tenant scoping as the
// PostgreSQL backend; what it cannot provide is row-level security, so the
// database itself is not a second line of defense here. Production deployments
// use PostgreSQL.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docshelfhq/docshelf/internal/storage"
	pgstore "github.com/docshelfhq/docshelf/internal/storage/postgres"
)

// Config holds SQLite-specific configuration.
type Config struct {
	Path        string // Database file path.
	JournalMode string // WAL mode by default.
}

// Store implements storage.Store backed by SQLite.
type Store struct {
	db      *gorm.DB
	logger  *slog.Logger
	path    string
	metrics pgstore.QueryMetrics

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

// Open creates a new SQLite-backed Store. metrics may be nil.
func Open(cfg Config, slogger *slog.Logger, metrics pgstore.QueryMetrics) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Ensure parent directory exists.
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	journalMode := cfg.JournalMode
	if journalMode == "" {
		journalMode = "wal"
	}

	// Build DSN with pragmas.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(%s)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", cfg.Path, journalMode)

	gormLogger := logger.New(
		slogAdapter{slogger},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	s := &Store{
		db:      db,
		logger:  slogger,
		path:    cfg.Path,
		metrics: metrics,
	}

	slogger.Info("sqlite store opened", slog.String("path", cfg.Path), slog.String("journal_mode", journalMode))
	return s, nil
}

// Migrate runs GORM AutoMigrate to create/update tables.
// Uses the same models as the PostgreSQL backend. Row-level security
// statements are skipped; SQLite has no equivalent.
func (s *Store) Migrate(_ context.Context) error {
	return s.db.AutoMigrate(pgstore.AllModels()...)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Driver returns "sqlite".
func (s *Store) Driver() string {
	return storage.DriverSQLite
}

// GormDB returns the underlying GORM DB for sub-store construction.
func (s *Store) GormDB() *gorm.DB {
	return s.db
}

// --- Sub-store accessors ---
// All sub-stores reuse the PostgreSQL repository implementations since they
// operate on the same GORM models and carry the tenant scope in application
// code. GORM's SQLite dialect handles the SQL differences transparently.

func (s *Store) Documents() storage.DocumentStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documents == nil {
		s.documents = pgstore.NewDocumentRepository(s.db, s.metrics)
	}
	return s.documents
}

func (s *Store) Tags() storage.TagStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags == nil {
		s.tags = pgstore.NewTagRepository(s.db, s.metrics)
	}
	return s.tags
}

func (s *Store) Correspondents() storage.CorrespondentStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.correspondents == nil {
		s.correspondents = pgstore.NewCorrespondentRepository(s.db, s.metrics)
	}
	return s.correspondents
}

func (s *Store) DocumentTypes() storage.DocumentTypeStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documentTypes == nil {
		s.documentTypes = pgstore.NewDocumentTypeRepository(s.db, s.metrics)
	}
	return s.documentTypes
}

func (s *Store) SavedViews() storage.SavedViewStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.savedViews == nil {
		s.savedViews = pgstore.NewSavedViewRepository(s.db, s.metrics)
	}
	return s.savedViews
}

func (s *Store) Tenants() storage.TenantStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenants == nil {
		s.tenants = pgstore.NewTenantRepository(s.db, s.metrics)
	}
	return s.tenants
}

func (s *Store) Admin() storage.AdminStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admin == nil {
		s.admin = pgstore.NewAdminRepository(s.db, s.metrics)
	}
	return s.admin
}

// slogAdapter wraps *slog.Logger for GORM's logger.Writer interface.
type slogAdapter struct {
	l *slog.Logger
}

func (s slogAdapter) Printf(format string, args ...any) {
	s.l.Warn(fmt.Sprintf(format, args...))
}
