package handlers

import (
	"net/http"

	"streamscout/services/scrape"
)

// RegistryHandler exposes the read-only source registry and liveness.
type RegistryHandler struct {
	Service *scrape.Service
	Version string
}

func NewRegistryHandler(service *scrape.Service, version string) *RegistryHandler {
	return &RegistryHandler{Service: service, Version: version}
}

type sourceInfo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Language  string   `json:"language"`
	Kinds     []string `json:"types"`
	Downloads bool     `json:"supports_downloads"`
}

// ListSources handles GET /api/sources.
func (h *RegistryHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	adapters := h.Service.Adapters()
	infos := make([]sourceInfo, 0, len(adapters))
	for _, a := range adapters {
		kinds := make([]string, 0, len(a.Kinds()))
		for _, k := range a.Kinds() {
			kinds = append(kinds, string(k))
		}
		infos = append(infos, sourceInfo{
			ID:        a.ID(),
			Name:      a.Name(),
			Language:  a.Language(),
			Kinds:     kinds,
			Downloads: a.Capabilities().DownloadLinks,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// Health handles GET /health.
func (h *RegistryHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"sources": len(h.Service.Adapters()),
		"version": h.Version,
	})
}
