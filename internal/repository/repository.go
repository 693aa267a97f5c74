// Package repository holds the PostgreSQL access for invitations and relationships.
// Status changes are compare-and-swap updates: they report whether the row was still in
// the expected state instead of overwriting it.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateCode = errors.New("invitation code already in use")
	ErrConflict      = errors.New("conflicting active relationship")
)

const (
	uniqueViolation  = "23505"
	// pendingCodeIndex keeps codes unique among pending invitations.
	pendingCodeIndex = "idx_invitations_pending_code"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
