package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/klu-lostfound/internal/db"
	"github.com/klu-lostfound/internal/match"
)

// MatchesHandler serves matching runs
type MatchesHandler struct {
	Reports  ReportSource
	Recorder MatchRecorder // optional
	Engine   *match.Engine
	Config   *Config
}

type matchFunc func(ctx context.Context, lost, found []match.Report, opts match.Options) []match.Result

// FindMatches runs the general matcher over all active reports
func (h *MatchesHandler) FindMatches(w http.ResponseWriter, r *http.Request) {
	h.runAll(w, r, "standard", h.Config.Options, h.Engine.FindMatches)
}

// ExploratoryMatches runs the matcher with the looser threshold
func (h *MatchesHandler) ExploratoryMatches(w http.ResponseWriter, r *http.Request) {
	h.runAll(w, r, "exploratory", h.Config.Exploratory, h.Engine.FindMatches)
}

// EnhancedMatches ranks pairs by blended field similarity
func (h *MatchesHandler) EnhancedMatches(w http.ResponseWriter, r *http.Request) {
	h.runAll(w, r, "enhanced", h.Config.Options, h.Engine.EnhancedMatches)
}

// ReportMatches matches one report against the opposite pool
func (h *MatchesHandler) ReportMatches(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	opts, err := withThreshold(r, h.Config.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	report, err := h.Reports.GetReport(ctx, id)
	if errors.Is(err, db.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("report_id", id).Msg("failed to load report")
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	pool, err := h.Reports.ListActive(ctx, report.Type.Opposite())
	if err != nil {
		log.Error().Err(err).Int64("report_id", id).Msg("failed to load candidate reports")
		writeJSON(w, http.StatusOK, []match.Result{})
		return
	}

	results := h.Engine.FindMatchesFor(ctx, report, pool, opts)
	h.record(ctx, w, "single", results)
	writeJSON(w, http.StatusOK, results)
}

// runAll loads both pools and runs fn. Storage failures produce an empty
// list rather than an error.
func (h *MatchesHandler) runAll(w http.ResponseWriter, r *http.Request, mode string, base match.Options, fn matchFunc) {
	opts, err := withThreshold(r, base)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	lost, err := h.Reports.ListActive(ctx, match.Lost)
	if err != nil {
		log.Error().Err(err).Str("mode", mode).Msg("failed to load lost reports")
		writeJSON(w, http.StatusOK, []match.Result{})
		return
	}
	found, err := h.Reports.ListActive(ctx, match.Found)
	if err != nil {
		log.Error().Err(err).Str("mode", mode).Msg("failed to load found reports")
		writeJSON(w, http.StatusOK, []match.Result{})
		return
	}

	results := fn(ctx, lost, found, opts)
	h.record(ctx, w, mode, results)
	writeJSON(w, http.StatusOK, results)
}

// record stores the run when history is enabled and exposes its id in a header
func (h *MatchesHandler) record(ctx context.Context, w http.ResponseWriter, mode string, results []match.Result) {
	if h.Recorder == nil || !h.Config.Features.RecordHistory || len(results) == 0 {
		return
	}
	runID, err := h.Recorder.SaveMatchRun(ctx, mode, results)
	if err != nil {
		log.Error().Err(err).Str("mode", mode).Msg("failed to record match run")
		return
	}
	w.Header().Set("X-Match-Run", runID.String())
}

func withThreshold(r *http.Request, opts match.Options) (match.Options, error) {
	threshold, err := queryFloat(r, "threshold", opts.InclusionThreshold, 0, 100)
	if err != nil {
		return opts, err
	}
	opts.InclusionThreshold = threshold
	return opts, nil
}
