package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/yourorg/greenthumb/internal/domain"
)

// PostgreSQL error codes the repositories translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqStringTooLong       = "22001"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// translate maps driver errors onto the domain taxonomy. what names the
// entity for messages, e.g. "plant 4".
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf("%s", what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s already taken", domain.ErrConflict, constraintField(pqErr.Constraint))
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s references a missing record", domain.ErrNotFound, what)
		case pqStringTooLong:
			return fmt.Errorf("%w: %s has a value that is too long", domain.ErrValidation, what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// constraintField turns "users_email_key" into "email".
func constraintField(constraint string) string {
	field := strings.TrimSuffix(constraint, "_key")
	if i := strings.Index(field, "_"); i >= 0 {
		field = field[i+1:]
	}
	if field == "" {
		return "value"
	}
	return field
}

// expectOne converts an UPDATE or DELETE that touched no row into ErrNotFound.
func expectOne(res sql.Result, what string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("%s", what)
	}
	return nil
}
