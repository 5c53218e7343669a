package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/unidash/unidash/internal/export"
	"github.com/unidash/unidash/internal/logging"
)

// handleExport streams every stored record of a kind as a CSV download
// in the same layout the importer accepts.
//
// GET /api/export/{kind}
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	filename := export.Filename(kind, time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	if err := s.exporter.WriteCSV(r.Context(), w, kind); err != nil {
		// Headers are already sent; the truncated download is the
		// only signal the client gets.
		logging.FromContext(r.Context()).Error("export failed", "data_type", kind, "error", err)
	}
}
