// Package store is the PostgreSQL gateway: schema management, atomic
// bulk inserts for the four record kinds, upload history, and the row
// queries behind the data views and CSV export.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unidash/unidash/internal/ingest"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store provides database access backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// DB exposes the underlying pool for read-only collaborators
// (dashboard aggregation queries).
func (s *Store) DB() DBTX { return s.pool }

// pgUniqueViolation is the PostgreSQL error code for a unique
// constraint violation.
const pgUniqueViolation = "23505"

// mapPersistError converts a database error into the pipeline's
// persistence taxonomy. A uniqueness clash against already-stored data
// is the expected failure mode of a re-uploaded file.
func mapPersistError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &ingest.PersistenceError{Duplicate: true, Err: err}
	}
	return &ingest.PersistenceError{Err: err}
}
