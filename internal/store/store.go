// Package store is the Postgres data access layer for the storefront. Queries
// are hand written against pgx and grouped by the feature that owns them.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrReference is returned when a write points at a missing parent row.
	ErrReference = errors.New("store: missing reference")
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store executes storefront queries.
type Store struct {
	db DBTX
}

// New returns a Store backed by db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReference, pgErr.ConstraintName)
		case pgerrcode.InvalidTextRepresentation:
			// malformed uuid literals address nothing
			return ErrNotFound
		}
	}
	return err
}

func affectedOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
