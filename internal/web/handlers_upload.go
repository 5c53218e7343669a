package web

import (
	"errors"
	"net/http"

	"github.com/unidash/unidash/internal/ingest"
	"github.com/unidash/unidash/internal/logging"
)

// handleUpload processes a multipart CSV upload.
//
// POST /api/uploads
// Form fields:
//
//	file      the CSV file
//	data_type one of department_kpi, publication, research_project, student_roster
//
// Responses:
//
//	200 upload persisted; body is the ingestion result
//	400 request malformed, or the file was rejected during parsing
//	    or validation; body carries the row-level error messages
//	500 persistence failed (including uniqueness clashes against
//	    stored data) or an unexpected fault; no rows were written
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+1024*1024)

	if err := r.ParseMultipartForm(4 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind, err := ingest.ParseKind(r.FormValue("data_type"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	log := logging.WithFields(r.Context(), "filename", header.Filename, "data_type", kind)

	result, err := s.pipeline.Ingest(r.Context(), kind, header.Filename, file)
	if err != nil {
		log.Error("upload processing fault", "error", err)
		writeError(w, r, http.StatusInternalServerError, "upload processing failed")
		return
	}

	status := http.StatusOK
	if !result.Success {
		switch result.FailedStage {
		case ingest.StagePersistence:
			status = http.StatusInternalServerError
		default:
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, r, status, result)
}
