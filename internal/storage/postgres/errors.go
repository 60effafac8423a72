package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// Postgres error codes the access layer folds into the domain taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError folds driver-level errors into the domain error taxonomy. A
// foreign-key violation on the composite edge keys means a write tried to
// link rows of different tenants, so it surfaces as a relationship violation
// rather than a generic database error.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrAlreadyExists
		case pgForeignKeyViolation:
			return domain.ErrRelationshipViolation
		}
	}
	// The SQLite dev backend reports constraint failures as plain strings.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrAlreadyExists
	}
	return err
}
