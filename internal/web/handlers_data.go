package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unidash/unidash/internal/ingest"
	"github.com/unidash/unidash/internal/logging"
	"github.com/unidash/unidash/internal/store"
)

const defaultPageSize = 50

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// kindParam resolves the {kind} URL parameter.
func kindParam(r *http.Request) (ingest.Kind, error) {
	return ingest.ParseKind(chi.URLParam(r, "kind"))
}

// handleListData returns one page of stored records of a kind.
//
// GET /api/data/{kind}?page=1&page_size=50
func (s *Server) handleListData(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "page_size", defaultPageSize)
	if pageSize > 500 {
		pageSize = 500
	}

	result, err := s.store.ListRecords(r.Context(), kind, page, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Error("list records", "data_type", kind, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list records")
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// uploadHistoryResponse is the paginated upload history payload.
type uploadHistoryResponse struct {
	Uploads  []store.UploadAttempt `json:"uploads"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// handleUploadHistory returns past upload attempts, newest first.
//
// GET /api/uploads/history?page=1&page_size=50
func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "page_size", defaultPageSize)
	if pageSize > 500 {
		pageSize = 500
	}

	uploads, total, err := s.store.ListHistory(r.Context(), page, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Error("list upload history", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list upload history")
		return
	}
	writeJSON(w, r, http.StatusOK, uploadHistoryResponse{
		Uploads:  uploads,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// handleHealth reports process and database liveness.
//
// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := s.store.DB().QueryRow(r.Context(), "SELECT 1").Scan(&one); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
