package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/klu-lostfound/internal/db"
	"github.com/klu-lostfound/internal/match"
)

// RecordsHandler serves report listings
type RecordsHandler struct {
	Reports ReportSource
}

// ListReports returns reports, optionally filtered by ?type=lost|found and ?active=true
func (h *RecordsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := match.ReportType(q.Get("type"))
	if typ != "" && typ != match.Lost && typ != match.Found {
		writeError(w, http.StatusBadRequest, "type must be lost or found")
		return
	}

	list := h.Reports.ListReports
	if q.Get("active") == "true" {
		list = h.Reports.ListActive
	}

	reports, err := list(r.Context(), typ)
	if err != nil {
		log.Error().Err(err).Msg("failed to list reports")
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetRecord returns one report
func (h *RecordsHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	report, err := h.Reports.GetReport(r.Context(), id)
	if errors.Is(err, db.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("report_id", id).Msg("failed to load report")
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
