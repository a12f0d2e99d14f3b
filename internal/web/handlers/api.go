package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/klu-lostfound/internal/match"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// Config is the part of the server configuration handlers need
type Config struct {
	Features struct {
		RecordHistory   bool `json:"record_history"`
		EnhancedEnabled bool `json:"enhanced_enabled"`
	} `json:"features"`

	Options     match.Options
	Exploratory match.Options
}

// ReportSource supplies reports from storage
type ReportSource interface {
	ListReports(ctx context.Context, typ match.ReportType) ([]match.Report, error)
	ListActive(ctx context.Context, typ match.ReportType) ([]match.Report, error)
	GetReport(ctx context.Context, id int64) (match.Report, error)
}

// MatchRecorder persists the results of a matching run
type MatchRecorder interface {
	SaveMatchRun(ctx context.Context, mode string, results []match.Result) (uuid.UUID, error)
}

// Pinger checks that a backing service is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// APIHandler handles general API endpoints
type APIHandler struct {
	Reports ReportSource
	DB      Pinger
}

// StatsResponse summarises the report pool
type StatsResponse struct {
	Total    int `json:"total"`
	Lost     int `json:"lost"`
	Found    int `json:"found"`
	Active   int `json:"active"`
	Resolved int `json:"resolved"`
}

// GetStats returns report counts
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Reports.ListReports(r.Context(), "")
	if err != nil {
		log.Error().Err(err).Msg("failed to load reports for stats")
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var stats StatsResponse
	for _, rep := range reports {
		stats.Total++
		switch rep.Type {
		case match.Lost:
			stats.Lost++
		case match.Found:
			stats.Found++
		}
		if rep.Active() {
			stats.Active++
		} else {
			stats.Resolved++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// Health reports whether the service and its database are up
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			log.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody reads a JSON request body into v and validates it
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid field %s: failed %s", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// queryFloat parses an optional float query parameter within [lo, hi]
func queryFloat(r *http.Request, key string, def, lo, hi float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be a number between %g and %g", key, lo, hi)
	}
	return v, nil
}
