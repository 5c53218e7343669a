package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------------------

type fakeStore struct {
	inserted  int
	batches   []*Batch
	returnErr error
}

func (f *fakeStore) BulkInsert(ctx context.Context, batch *Batch) (int, error) {
	if f.returnErr != nil {
		return 0, f.returnErr
	}
	f.batches = append(f.batches, batch)
	f.inserted += batch.Len()
	return batch.Len(), nil
}

type historyCall struct {
	status string
	rows   int
	errMsg string
}

type fakeHistory struct {
	begun    int
	finished []historyCall
	beginErr error
}

func (f *fakeHistory) Begin(ctx context.Context, filename string, kind Kind, fileSize int64) (int64, error) {
	if f.beginErr != nil {
		return 0, f.beginErr
	}
	f.begun++
	return int64(f.begun), nil
}

func (f *fakeHistory) Finish(ctx context.Context, id int64, status string, rows int, errMsg string) error {
	f.finished = append(f.finished, historyCall{status: status, rows: rows, errMsg: errMsg})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, store Store, history History, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithTempDir(t.TempDir())}, opts...)
	return New(store, history, discardLogger(), opts...)
}

func validStudentCSV() []byte {
	return csvFile(
		studentHeader,
		"20241234,홍길동,공과대학,컴퓨터공학과,2,학사,재학,남,2024,김교수,hong@univ.ac.kr",
		"20249999,이몽룡,공과대학,전자공학과,3,학사,휴학,남,2022,-,lee@univ.ac.kr",
	)
}

// ----------------------------------------------------------------------------
// Success Path Tests
// ----------------------------------------------------------------------------

func TestIngest_Success(t *testing.T) {
	store := &fakeStore{}
	history := &fakeHistory{}
	p := newTestPipeline(t, store, history)

	result, err := p.Ingest(context.Background(), KindStudentRoster, "roster.csv", bytes.NewReader(validStudentCSV()))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if !result.Success {
		t.Fatalf("Success = false, errors: %v", result.Errors)
	}
	if result.RowsProcessed != 2 {
		t.Errorf("RowsProcessed = %d, want 2", result.RowsProcessed)
	}
	if result.Filename != "roster.csv" || result.Kind != KindStudentRoster {
		t.Errorf("result metadata = %q/%q", result.Filename, result.Kind)
	}
	if store.inserted != 2 {
		t.Errorf("store inserted %d rows", store.inserted)
	}

	// Exactly one history attempt, moved to exactly one terminal status
	if history.begun != 1 || len(history.finished) != 1 {
		t.Fatalf("history calls: begun=%d finished=%d", history.begun, len(history.finished))
	}
	if history.finished[0].status != StatusSuccess || history.finished[0].rows != 2 {
		t.Errorf("terminal entry = %+v", history.finished[0])
	}
}

// ----------------------------------------------------------------------------
// Rejection Tests
// ----------------------------------------------------------------------------

func TestIngest_RejectionStages(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantStage Stage
		wantErr   string
	}{
		{
			name: "missing columns",
			data: csvFile(
				"학번,이름",
				"20241234,홍길동",
			),
			wantStage: StageParse,
			wantErr:   "missing required columns",
		},
		{
			name: "cell conversion failure",
			data: csvFile(
				studentHeader,
				"20241234,홍길동,공과대학,컴퓨터공학과,이학년,학사,재학,남,2024,-,hong@univ.ac.kr",
			),
			wantStage: StageParse,
			wantErr:   "row 2",
		},
		{
			name:      "no data rows",
			data:      csvFile(studentHeader),
			wantStage: StageParse,
			wantErr:   "no data rows",
		},
		{
			name: "validation failure",
			data: csvFile(
				studentHeader,
				"20241234,홍길동,공과대학,컴퓨터공학과,2,학사,재학,남,2024,-,not-an-email",
			),
			wantStage: StageValidation,
			wantErr:   "이메일",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			history := &fakeHistory{}
			p := newTestPipeline(t, store, history)

			result, err := p.Ingest(context.Background(), KindStudentRoster, "roster.csv", bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}

			if result.Success {
				t.Fatal("Success = true, want rejection")
			}
			if result.FailedStage != tt.wantStage {
				t.Errorf("FailedStage = %q, want %q", result.FailedStage, tt.wantStage)
			}
			if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], tt.wantErr) {
				t.Errorf("Errors = %v, want mention of %q", result.Errors, tt.wantErr)
			}

			// Nothing reached the store; the attempt still got a terminal entry
			if store.inserted != 0 {
				t.Errorf("store inserted %d rows on rejection", store.inserted)
			}
			if len(history.finished) != 1 || history.finished[0].status != StatusFailed {
				t.Errorf("history terminal entries = %+v", history.finished)
			}
		})
	}
}

func TestIngest_FileTooLarge(t *testing.T) {
	store := &fakeStore{}
	history := &fakeHistory{}
	p := newTestPipeline(t, store, history, WithMaxFileSize(64))

	big := append([]byte(studentHeader+"\n"), bytes.Repeat([]byte("x"), 200)...)
	result, err := p.Ingest(context.Background(), KindStudentRoster, "big.csv", bytes.NewReader(big))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Success || result.FailedStage != StageParse {
		t.Fatalf("oversized file not rejected at parse stage: %+v", result)
	}
	if len(history.finished) != 1 || history.finished[0].status != StatusFailed {
		t.Errorf("history terminal entries = %+v", history.finished)
	}
}

// ----------------------------------------------------------------------------
// Persistence Failure Tests
// ----------------------------------------------------------------------------

func TestIngest_PersistenceFailure(t *testing.T) {
	store := &fakeStore{returnErr: &PersistenceError{Duplicate: true, Err: errors.New("duplicate key value violates unique constraint")}}
	history := &fakeHistory{}
	p := newTestPipeline(t, store, history)

	result, err := p.Ingest(context.Background(), KindStudentRoster, "roster.csv", bytes.NewReader(validStudentCSV()))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.Success {
		t.Fatal("Success = true, want persistence failure")
	}
	if result.FailedStage != StagePersistence {
		t.Errorf("FailedStage = %q", result.FailedStage)
	}
	if result.RowsProcessed != 0 {
		t.Errorf("RowsProcessed = %d, want 0 after rollback", result.RowsProcessed)
	}
	if len(history.finished) != 1 || history.finished[0].status != StatusFailed || history.finished[0].rows != 0 {
		t.Errorf("history terminal entries = %+v", history.finished)
	}
}

// ----------------------------------------------------------------------------
// Infrastructure Behavior Tests
// ----------------------------------------------------------------------------

func TestIngest_SpoolFileRemoved(t *testing.T) {
	dir := t.TempDir()
	p := New(&fakeStore{}, &fakeHistory{}, discardLogger(), WithTempDir(dir))

	if _, err := p.Ingest(context.Background(), KindStudentRoster, "roster.csv", bytes.NewReader(validStudentCSV())); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("spool files left behind: %v", leftovers)
	}
}

func TestIngest_HistoryFailureDoesNotFailUpload(t *testing.T) {
	store := &fakeStore{}
	history := &fakeHistory{beginErr: errors.New("history table unavailable")}
	p := newTestPipeline(t, store, history)

	result, err := p.Ingest(context.Background(), KindStudentRoster, "roster.csv", bytes.NewReader(validStudentCSV()))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("upload failed because history failed: %v", result.Errors)
	}
	if store.inserted != 2 {
		t.Errorf("store inserted %d rows", store.inserted)
	}
}

func TestIngest_ReadFailure(t *testing.T) {
	p := newTestPipeline(t, &fakeStore{}, &fakeHistory{})

	_, err := p.Ingest(context.Background(), KindStudentRoster, "roster.csv", failingReader{})
	if err == nil {
		t.Fatal("expected error from unreadable upload")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, os.ErrClosed }
