package store

// reset.go provides the destructive administrative operations exposed
// through the operator CLI. Resets truncate whole tables; there is no
// row-level delete surface.

import (
	"context"
	"fmt"

	"github.com/unidash/unidash/internal/ingest"
)

// ResetKind removes every stored record of one kind.
func (s *Store) ResetKind(ctx context.Context, kind ingest.Kind) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, table)); err != nil {
		return fmt.Errorf("reset %s: %w", table, err)
	}
	return nil
}

// ResetAll removes all stored records of every kind and the upload
// history.
func (s *Store) ResetAll(ctx context.Context) error {
	for _, kind := range ingest.Kinds() {
		if err := s.ResetKind(ctx, kind); err != nil {
			return err
		}
	}
	if _, err := s.pool.Exec(ctx, `TRUNCATE upload_history`); err != nil {
		return fmt.Errorf("reset upload_history: %w", err)
	}
	return nil
}
