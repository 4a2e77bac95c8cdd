package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate signals a unique-constraint violation. Callers treat it as
// the "already exists" answer instead of racing a lookup-before-insert.
var ErrDuplicate = errors.New("duplicate row")

// DuplicateError carries which field collided so handlers can name it.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "duplicate row"
	}
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// mapUniqueViolation converts a 23505 into a *DuplicateError, naming the
// field from the constraint. Other errors pass through unchanged.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	return &DuplicateError{Field: duplicateField(pgErr.ConstraintName)}
}

func duplicateField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "phone"):
		return "phone"
	case strings.Contains(constraint, "username"):
		return "username"
	case constraint == "idx_tokens_one_active_per_guest",
		strings.Contains(constraint, "checkins"):
		return "guest"
	case strings.Contains(constraint, "token"):
		return "token"
	default:
		return ""
	}
}
