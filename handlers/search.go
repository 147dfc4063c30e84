package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"streamscout/models"
	"streamscout/services/scrape"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type searchService interface {
	Search(ctx context.Context, opts scrape.SearchOptions) (*scrape.SearchOutcome, error)
}

var _ searchService = (*scrape.Service)(nil)

// SearchHandler serves the aggregated search endpoints.
type SearchHandler struct {
	Service searchService
	Timeout time.Duration // whole-request deadline for the fan-out
}

func NewSearchHandler(service searchService, timeout time.Duration) *SearchHandler {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &SearchHandler{Service: service, Timeout: timeout}
}

// Search handles GET /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

// MultiSearch handles GET /api/multi-search: every adapter, widened cap.
func (h *SearchHandler) MultiSearch(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

func (h *SearchHandler) serve(w http.ResponseWriter, r *http.Request, broad bool) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSearchLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxSearchLimit))
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	outcome, err := h.Service.Search(ctx, scrape.SearchOptions{
		Query:  query,
		Kind:   models.ParseKind(r.URL.Query().Get("type")),
		Limit:  limit,
		Source: strings.TrimSpace(r.URL.Query().Get("source")),
		Broad:  broad,
	})
	if err != nil {
		if errors.Is(err, scrape.ErrUnknownSource) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("source %q is not supported", r.URL.Query().Get("source")))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	message := fmt.Sprintf("%d result(s) found", len(outcome.Results))
	if len(outcome.Results) == 0 {
		message = "no results"
	}
	writeEnvelope(w, len(outcome.Results) > 0, message, outcome.Results, outcome.SourcesUsed)
}
