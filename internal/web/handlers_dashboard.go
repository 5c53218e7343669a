package web

import (
	"net/http"

	"github.com/unidash/unidash/internal/dashboard"
	"github.com/unidash/unidash/internal/logging"
)

// handleKPISummary returns department KPI aggregates.
//
// GET /api/dashboard/kpi?year=2024&college=공과대학
func (s *Server) handleKPISummary(w http.ResponseWriter, r *http.Request) {
	filter := dashboard.KPIFilter{
		Year:    parseIntParam(r, "year", 0),
		College: r.URL.Query().Get("college"),
	}
	summary, err := s.dashboard.KPISummary(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Error("kpi summary", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to compute KPI summary")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// handlePublicationSummary returns publication aggregates.
//
// GET /api/dashboard/publications
func (s *Server) handlePublicationSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.PublicationSummary(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("publication summary", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to compute publication summary")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// handleResearchSummary returns per-project budget execution.
//
// GET /api/dashboard/research
func (s *Server) handleResearchSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.ResearchSummary(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("research summary", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to compute research summary")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// handleStudentSummary returns student roster aggregates.
//
// GET /api/dashboard/students
func (s *Server) handleStudentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.StudentSummary(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("student summary", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to compute student summary")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}
