package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrDuplicate is a unique constraint violation.
	ErrDuplicate = errors.New("duplicate value")
	// ErrDanglingReference is a foreign key pointing at a missing row.
	ErrDanglingReference = errors.New("dangling reference")
)

// ConstraintError is an integrity violation reported by the store.
// Constraint holds the constraint name (postgres) or the offending columns
// (sqlite); it is empty when the store does not report either.
type ConstraintError struct {
	Err        error
	Constraint string
	cause      error
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Constraint
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Cause returns the driver error.
func (e *ConstraintError) Cause() error {
	return e.cause
}

// Mentions reports whether the violated constraint refers to name.
func (e *ConstraintError) Mentions(name string) bool {
	return e.Constraint != "" && strings.Contains(strings.ToLower(e.Constraint), name)
}

// AsConstraintError returns the integrity violation wrapped in err, if any.
func AsConstraintError(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateError classifies driver errors; anything else is wrapped with op.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Err: ErrDuplicate, Constraint: pgErr.ConstraintName, cause: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Err: ErrDanglingReference, Constraint: pgErr.ConstraintName, cause: err}
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &ConstraintError{Err: ErrDuplicate, Constraint: sqliteColumns(liteErr.Error()), cause: err}
		case sqlite3.ErrConstraintForeignKey:
			return &ConstraintError{Err: ErrDanglingReference, Constraint: sqliteColumns(liteErr.Error()), cause: err}
		}
	}

	return pkgerrors.Wrap(err, op)
}

// sqliteColumns extracts "products.name" from "UNIQUE constraint failed: products.name".
func sqliteColumns(msg string) string {
	_, cols, ok := strings.Cut(msg, "constraint failed:")
	if !ok {
		return ""
	}
	return strings.TrimSpace(cols)
}
