package ingest

// pipeline.go coordinates one upload attempt end to end:
//
//	RECEIVED → PARSING → VALIDATING → PERSISTING → SUCCEEDED
//	                \           \            \
//	                 rejected    rejected     failed
//	                 (parse)     (validation) (persist)
//
// The pipeline is the only component with side effects: it writes the
// upload to a scoped temporary file (removed on every exit path),
// persists the batch through the Store in one transaction, and records
// exactly one terminal history entry per attempt. Failures are never
// retried here; every outcome is surfaced synchronously to the caller.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// DefaultMaxFileSize is the upload size ceiling enforced before parsing.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Stage labels which pipeline stage produced a terminal outcome.
type Stage string

const (
	StageParse       Stage = "parse"
	StageValidation  Stage = "validation"
	StagePersistence Stage = "persistence"
)

// Result is the client-visible outcome of one ingestion attempt.
type Result struct {
	Success       bool     `json:"success"`
	Filename      string   `json:"filename"`
	Kind          Kind     `json:"data_type"`
	RowsProcessed int      `json:"rows_processed"`
	FailedStage   Stage    `json:"failed_stage,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// Store is the bulk persistence gateway. BulkInsert writes every record
// of the batch in a single transaction and returns the inserted count,
// or a *PersistenceError (zero rows inserted) on any constraint
// violation against already-stored data.
type Store interface {
	BulkInsert(ctx context.Context, batch *Batch) (int, error)
}

// History records upload attempts. Begin writes a "processing"
// placeholder and returns its id; Finish moves it to a terminal status
// exactly once. History failures are logged but never fail the upload.
type History interface {
	Begin(ctx context.Context, filename string, kind Kind, fileSize int64) (int64, error)
	Finish(ctx context.Context, id int64, status string, rowsProcessed int, errorMessage string) error
}

// History terminal statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Pipeline drives the ingestion of uploaded CSV files. Collaborators
// are constructor-injected so tests can substitute fakes.
type Pipeline struct {
	store       Store
	history     History
	log         *slog.Logger
	maxFileSize int64
	tempDir     string // "" means the OS default
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxFileSize overrides the upload size ceiling.
func WithMaxFileSize(n int64) Option {
	return func(p *Pipeline) { p.maxFileSize = n }
}

// WithTempDir overrides where upload spool files are written.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) { p.tempDir = dir }
}

// New creates a Pipeline.
func New(store Store, history History, log *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:       store,
		history:     history,
		log:         log,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs one upload attempt for one record kind. The returned
// Result is always usable: rejections and persistence failures are
// reported in the Result, not as an error. The error return is reserved
// for infrastructure faults (spooling, reading) that prevented the
// pipeline from reaching a verdict.
func (p *Pipeline) Ingest(ctx context.Context, kind Kind, filename string, upload io.Reader) (*Result, error) {
	start := time.Now()
	log := p.log.With("data_type", kind, "filename", filename)

	// Enforce the size ceiling while spooling: reading one byte past
	// the limit is cheaper than buffering an oversized body.
	data, err := io.ReadAll(io.LimitReader(upload, p.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > p.maxFileSize {
		log.Warn("upload rejected: file too large", "limit_bytes", p.maxFileSize)
		return p.reject(ctx, kind, filename, int64(len(data)), StageParse,
			[]string{fmt.Sprintf("file exceeds the %dMB limit", p.maxFileSize/(1024*1024))}), nil
	}

	// Spool to a generated temp path. The original filename is recorded
	// in history only; concurrent uploads of identically named files
	// must not collide on disk.
	tmp, err := os.CreateTemp(p.tempDir, "upload-*.csv")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	defer func() {
		tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			log.Warn("failed to remove spool file", "path", tmp.Name(), "error", rmErr)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}
	spooled, err := io.ReadAll(tmp)
	if err != nil {
		return nil, fmt.Errorf("read spool file: %w", err)
	}

	historyID := p.beginHistory(ctx, filename, kind, int64(len(data)))

	batch, err := ParseBatch(kind, spooled)
	if err != nil {
		var structural *StructuralError
		var parse *ParseError
		switch {
		case errors.As(err, &structural):
			log.Warn("upload rejected: missing columns", "missing", structural.Missing)
			return p.finish(ctx, historyID, kind, filename, StageParse, []string{structural.Error()}), nil
		case errors.As(err, &parse):
			log.Warn("upload rejected: parse error", "row", parse.Row, "column", parse.Column)
			return p.finish(ctx, historyID, kind, filename, StageParse, []string{parse.Error()}), nil
		default:
			return nil, err
		}
	}

	// An empty batch after the header row is a rejection, not a
	// zero-row success.
	if batch.Len() == 0 {
		log.Warn("upload rejected: no data rows")
		return p.finish(ctx, historyID, kind, filename, StageParse, []string{"file contains no data rows"}), nil
	}

	if outcome := Validate(batch); !outcome.Valid {
		msgs := outcome.Messages()
		log.Warn("upload rejected: validation failed", "violations", len(msgs))
		return p.finish(ctx, historyID, kind, filename, StageValidation, msgs), nil
	}

	inserted, err := p.store.BulkInsert(ctx, batch)
	if err != nil {
		log.Error("persist failed", "rows", batch.Len(), "error", err)
		return p.finish(ctx, historyID, kind, filename, StagePersistence, []string{err.Error()}), nil
	}

	p.finishHistory(ctx, historyID, StatusSuccess, inserted, "")
	log.Info("upload succeeded", "rows", inserted, "duration", time.Since(start))
	return &Result{
		Success:       true,
		Filename:      filename,
		Kind:          kind,
		RowsProcessed: inserted,
	}, nil
}

// reject records a failed attempt that never produced a history
// placeholder (pre-spool rejections) and builds its Result.
func (p *Pipeline) reject(ctx context.Context, kind Kind, filename string, size int64, stage Stage, errs []string) *Result {
	id := p.beginHistory(ctx, filename, kind, size)
	return p.finish(ctx, id, kind, filename, stage, errs)
}

// finish moves the history placeholder to failed and builds the
// rejection Result.
func (p *Pipeline) finish(ctx context.Context, historyID int64, kind Kind, filename string, stage Stage, errs []string) *Result {
	p.finishHistory(ctx, historyID, StatusFailed, 0, joinErrors(errs))
	return &Result{
		Filename:    filename,
		Kind:        kind,
		FailedStage: stage,
		Errors:      errs,
	}
}

func (p *Pipeline) beginHistory(ctx context.Context, filename string, kind Kind, size int64) int64 {
	id, err := p.history.Begin(ctx, filename, kind, size)
	if err != nil {
		p.log.Error("record upload attempt", "filename", filename, "error", err)
		return 0
	}
	return id
}

func (p *Pipeline) finishHistory(ctx context.Context, id int64, status string, rows int, errMsg string) {
	if id == 0 {
		return
	}
	if err := p.history.Finish(ctx, id, status, rows, errMsg); err != nil {
		p.log.Error("finish upload attempt", "history_id", id, "error", err)
	}
}

func joinErrors(errs []string) string {
	const maxLen = 4000
	var out string
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		if len(out)+len(e) > maxLen {
			out += fmt.Sprintf("... and %d more", len(errs)-i)
			break
		}
		out += e
	}
	return out
}
