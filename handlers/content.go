package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"streamscout/models"
	"streamscout/services/fetch"
	"streamscout/services/scrape"
)

type contentService interface {
	Details(ctx context.Context, source, contentID string, kind models.Kind) (*models.ContentDetails, error)
	Sources(ctx context.Context, source, contentID, episodeID string, kind models.Kind) ([]models.VideoSource, error)
	DownloadLinks(ctx context.Context, source, contentID, episodeID string) ([]models.DownloadLink, bool, error)
}

var _ contentService = (*scrape.Service)(nil)

// ContentHandler serves single-source details, sources and download
// endpoints.
type ContentHandler struct {
	Service contentService
	Timeout time.Duration
}

func NewContentHandler(service contentService, timeout time.Duration) *ContentHandler {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &ContentHandler{Service: service, Timeout: timeout}
}

// Details handles GET /api/details/{source}/{id}.
func (h *ContentHandler) Details(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	source, contentID := vars["source"], vars["id"]
	kind := models.ParseKind(r.URL.Query().Get("type"))

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	details, err := h.Service.Details(ctx, source, contentID, kind)
	switch {
	case errors.Is(err, scrape.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("source %q is not supported", source))
		return
	case errors.Is(err, fetch.ErrNotFound):
		writeEnvelope(w, false, "content not found", nil, []string{source})
		return
	case err != nil:
		writeEnvelope(w, false, "content not found", nil, []string{source})
		return
	}
	writeEnvelope(w, true, "details retrieved", details, []string{source})
}

// Sources handles GET /api/sources/{source}/{id}.
func (h *ContentHandler) Sources(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.serveSources(w, r, vars["source"], vars["id"], strings.TrimSpace(r.URL.Query().Get("episode_id")))
}

// Episode handles GET /api/episode/{source}/{id}/{episode}.
func (h *ContentHandler) Episode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.serveSources(w, r, vars["source"], vars["id"], vars["episode"])
}

func (h *ContentHandler) serveSources(w http.ResponseWriter, r *http.Request, source, contentID, episodeID string) {
	kind := models.ParseKind(r.URL.Query().Get("type"))

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sources, err := h.Service.Sources(ctx, source, contentID, episodeID, kind)
	switch {
	case errors.Is(err, scrape.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("source %q is not supported", source))
		return
	case errors.Is(err, scrape.ErrEpisodeRequired):
		writeEnvelope(w, false, "episode_id is required for episodic content", nil, []string{source})
		return
	case err != nil:
		writeEnvelope(w, false, "no sources", []models.VideoSource{}, []string{source})
		return
	}

	message := fmt.Sprintf("%d source(s) found", len(sources))
	if len(sources) == 0 {
		message = "no sources"
	}
	writeEnvelope(w, len(sources) > 0, message, sources, []string{source})
}

// Download handles GET /api/download/{source}/{id}.
func (h *ContentHandler) Download(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	source, contentID := vars["source"], vars["id"]
	episodeID := strings.TrimSpace(r.URL.Query().Get("episode_id"))

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	links, supported, err := h.Service.DownloadLinks(ctx, source, contentID, episodeID)
	switch {
	case errors.Is(err, scrape.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("source %q is not supported", source))
		return
	case err != nil:
		writeEnvelope(w, false, "no download links", []models.DownloadLink{}, []string{source})
		return
	}
	if !supported {
		writeEnvelope(w, false, "this source does not provide download links", []models.DownloadLink{}, []string{source})
		return
	}

	message := fmt.Sprintf("%d link(s) found", len(links))
	if len(links) == 0 {
		message = "no download links"
	}
	writeEnvelope(w, len(links) > 0, message, links, []string{source})
}
