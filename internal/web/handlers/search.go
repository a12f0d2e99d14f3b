package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/klu-lostfound/internal/advisor"
	"github.com/klu-lostfound/internal/imagesim"
	"github.com/klu-lostfound/internal/match"
	"github.com/klu-lostfound/internal/search"
)

// SearchHandler serves search, duplicate checks and the report helpers
type SearchHandler struct {
	Reports  ReportSource
	Searcher *search.Searcher
	Scorer   *match.Scorer
	Advisor  *advisor.Advisor
	Images   *imagesim.Comparator // optional
}

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// ItemRequest describes an item being reported
type ItemRequest struct {
	ItemName    string           `json:"item_name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=5000"`
	Location    string           `json:"location" validate:"max=200"`
	Type        match.ReportType `json:"type" validate:"omitempty,oneof=lost found"`
	ImageRef    string           `json:"image_filename" validate:"max=500"`
}

// SentimentRequest is the body of POST /api/sentiment
type SentimentRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// DuplicatesResponse lists likely resubmissions of an item
type DuplicatesResponse struct {
	Reports []match.Duplicate   `json:"reports"`
	Image   *imagesim.Duplicate `json:"image,omitempty"`
}

// Search runs a free-text search over all reports
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := h.Reports.ListReports(r.Context(), "")
	if err != nil {
		log.Error().Err(err).Msg("failed to load reports for search")
		writeJSON(w, http.StatusOK, []search.Hit{})
		return
	}
	writeJSON(w, http.StatusOK, h.Searcher.Search(req.Query, reports))
}

// CheckDuplicates looks for existing reports of the same kind resembling the item
func (h *SearchHandler) CheckDuplicates(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Type == "" {
		req.Type = match.Lost
	}

	resp := DuplicatesResponse{Reports: []match.Duplicate{}}
	existing, err := h.Reports.ListReports(r.Context(), req.Type)
	if err != nil {
		log.Error().Err(err).Msg("failed to load reports for duplicate check")
		writeJSON(w, http.StatusOK, resp)
		return
	}

	candidate := match.Report{
		ItemName:    req.ItemName,
		Description: req.Description,
		Location:    req.Location,
		Type:        req.Type,
	}
	resp.Reports = h.Scorer.DetectDuplicates(false, candidate, existing)

	if h.Images != nil && req.ImageRef != "" {
		refs := make([]string, 0, len(existing))
		for _, e := range existing {
			if e.HasImageRef() {
				refs = append(refs, e.ImageRef)
			}
		}
		if dup, ok := h.Images.FindDuplicate(req.ImageRef, refs); ok {
			resp.Image = &dup
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Categorize suggests a category for an item
func (h *SearchHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"category": h.Advisor.Categorize(req.ItemName, req.Description),
	})
}

// Suggestions returns hints for improving an item description
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": h.Advisor.Suggestions(req.ItemName, req.Description),
	})
}

// Sentiment classifies a user message
func (h *SearchHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"sentiment": h.Advisor.Sentiment(req.Text),
	})
}

// Urgent lists active reports needing immediate attention
func (h *SearchHandler) Urgent(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Reports.ListActive(r.Context(), "")
	if err != nil {
		log.Error().Err(err).Msg("failed to load reports for urgency")
		writeJSON(w, http.StatusOK, []advisor.Urgency{})
		return
	}
	writeJSON(w, http.StatusOK, h.Advisor.UrgentReports(reports))
}
