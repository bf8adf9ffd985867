package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repositories report missing rows and unique index hits with these so
// services can tell them apart from storage failures.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// SQLSTATE codes the repositories translate into domain errors.
const (
	codeUniqueViolation = "23505"
	codeInvalidText     = "22P02"
)

// IsNoRows reports whether err means a single-row query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err came from a unique index.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsInvalidText reports whether Postgres rejected a value's text form, such
// as a malformed UUID.
func IsInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeInvalidText
}

// Classify maps driver errors onto ErrNotFound and ErrDuplicate and wraps
// everything else with op.
func Classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsNoRows(err):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
