package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/unidash/unidash/internal/config"
	"github.com/unidash/unidash/internal/ingest"
	"github.com/unidash/unidash/internal/store"
)

// ----------------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------------

type fakeStore struct {
	inserted  int
	returnErr error
}

func (f *fakeStore) BulkInsert(ctx context.Context, batch *ingest.Batch) (int, error) {
	if f.returnErr != nil {
		return 0, f.returnErr
	}
	f.inserted += batch.Len()
	return batch.Len(), nil
}

type fakeHistory struct{}

func (fakeHistory) Begin(ctx context.Context, filename string, kind ingest.Kind, fileSize int64) (int64, error) {
	return 1, nil
}

func (fakeHistory) Finish(ctx context.Context, id int64, status string, rows int, errMsg string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: time.Minute,
		},
		Upload: config.UploadConfig{MaxFileSize: ingest.DefaultMaxFileSize},
		Rate:   config.RateLimitConfig{Enabled: false},
		Auth:   config.AuthConfig{Enabled: false},
	}
}

func testServer(t *testing.T, fs *fakeStore) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := ingest.New(fs, fakeHistory{}, log, ingest.WithTempDir(t.TempDir()))
	return NewServer(testConfig(), pipeline, store.New(nil))
}

func multipartUpload(t *testing.T, dataType, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("data_type", dataType); err != nil {
		t.Fatal(err)
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

const studentCSV = "학번,이름,단과대학,학과,학년,과정구분,학적상태,성별,입학년도,지도교수,이메일\n" +
	"20241234,홍길동,공과대학,컴퓨터공학과,2,학사,재학,남,2024,김교수,hong@univ.ac.kr\n"

const invalidStudentCSV = "학번,이름,단과대학,학과,학년,과정구분,학적상태,성별,입학년도,지도교수,이메일\n" +
	"20241234,홍길동,공과대학,컴퓨터공학과,2,학사,재학,남,2024,김교수,not-an-email\n"

// ----------------------------------------------------------------------------
// Upload Endpoint Tests
// ----------------------------------------------------------------------------

func TestHandleUpload_Success(t *testing.T) {
	fs := &fakeStore{}
	srv := testServer(t, fs)

	body, contentType := multipartUpload(t, "student_roster", "roster.csv", []byte(studentCSV))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.RowsProcessed != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Filename != "roster.csv" || result.Kind != ingest.KindStudentRoster {
		t.Errorf("result metadata = %+v", result)
	}
	if fs.inserted != 1 {
		t.Errorf("store inserted %d rows", fs.inserted)
	}
}

func TestHandleUpload_ValidationRejection(t *testing.T) {
	srv := testServer(t, &fakeStore{})

	body, contentType := multipartUpload(t, "student_roster", "roster.csv", []byte(invalidStudentCSV))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Success || result.FailedStage != ingest.StageValidation {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) == 0 {
		t.Error("row-level errors missing from rejection body")
	}
}

func TestHandleUpload_PersistenceFailure(t *testing.T) {
	fs := &fakeStore{returnErr: &ingest.PersistenceError{
		Duplicate: true,
		Err:       errors.New("duplicate key value violates unique constraint"),
	}}
	srv := testServer(t, fs)

	body, contentType := multipartUpload(t, "student_roster", "roster.csv", []byte(studentCSV))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for persistence failure", rec.Code)
	}
}

func TestHandleUpload_BadRequests(t *testing.T) {
	srv := testServer(t, &fakeStore{})

	t.Run("unknown data_type", func(t *testing.T) {
		body, contentType := multipartUpload(t, "grades", "grades.csv", []byte(studentCSV))
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing file field", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		w.WriteField("data_type", "student_roster")
		w.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader([]byte(studentCSV)))
		req.Header.Set("Content-Type", "text/csv")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// ----------------------------------------------------------------------------
// Middleware and Helper Tests
// ----------------------------------------------------------------------------

func TestSecurityHeaders(t *testing.T) {
	srv := testServer(t, &fakeStore{})

	body, contentType := multipartUpload(t, "student_roster", "roster.csv", []byte(studentCSV))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied inside the limit", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the limit allowed")
	}
	// A different client has its own bucket
	if !rl.allow("10.0.0.2") {
		t.Error("unrelated client denied")
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"page=3", 3},
		{"page=0", 1},
		{"page=-2", 1},
		{"page=abc", 1},
		{"", 1},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		if got := parseIntParam(req, "page", 1); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
