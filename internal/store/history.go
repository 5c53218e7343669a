package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unidash/unidash/internal/ingest"
)

// UploadAttempt is one row of the upload history. An attempt is written
// once as "processing" and moved to exactly one terminal status; it is
// never otherwise mutated.
type UploadAttempt struct {
	ID            int64      `json:"id"`
	PublicID      uuid.UUID  `json:"public_id"`
	Filename      string     `json:"filename"`
	DataType      string     `json:"data_type"`
	FileSize      int64      `json:"file_size"`
	RowsProcessed int        `json:"rows_processed"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Begin writes a "processing" placeholder for an upload attempt and
// returns its id. Each attempt also gets a client-facing UUID so
// history entries can be referenced without exposing serial ids.
func (s *Store) Begin(ctx context.Context, filename string, kind ingest.Kind, fileSize int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO upload_history (public_id, filename, data_type, file_size, status)
		 VALUES ($1, $2, $3, $4, 'processing') RETURNING id`,
		uuid.New(), filename, string(kind), fileSize,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert upload attempt: %w", err)
	}
	return id, nil
}

// Finish moves an attempt to its terminal status.
func (s *Store) Finish(ctx context.Context, id int64, status string, rowsProcessed int, errorMessage string) error {
	msg := pgtype.Text{String: errorMessage, Valid: errorMessage != ""}
	_, err := s.pool.Exec(ctx,
		`UPDATE upload_history
		 SET status = $2, rows_processed = $3, error_message = $4, completed_at = now()
		 WHERE id = $1`,
		id, status, rowsProcessed, msg,
	)
	if err != nil {
		return fmt.Errorf("finish upload attempt: %w", err)
	}
	return nil
}

// ListHistory returns upload attempts newest first, with the total
// count for pagination.
func (s *Store) ListHistory(ctx context.Context, page, pageSize int) ([]UploadAttempt, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM upload_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count upload history: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := s.pool.Query(ctx,
		`SELECT id, public_id, filename, data_type, file_size, rows_processed, status,
		        COALESCE(error_message, ''), created_at, completed_at
		 FROM upload_history
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		pageSize, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query upload history: %w", err)
	}
	defer rows.Close()

	var attempts []UploadAttempt
	for rows.Next() {
		var a UploadAttempt
		var completed pgtype.Timestamptz
		if err := rows.Scan(&a.ID, &a.PublicID, &a.Filename, &a.DataType, &a.FileSize,
			&a.RowsProcessed, &a.Status, &a.ErrorMessage, &a.CreatedAt, &completed); err != nil {
			return nil, 0, fmt.Errorf("scan upload history: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			a.CompletedAt = &t
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}
