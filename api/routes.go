package api

import (
	"net/http"

	"streamscout/handlers"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request with an ID so log lines from
// concurrent scrapes can be correlated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	searchHandler *handlers.SearchHandler,
	contentHandler *handlers.ContentHandler,
	registryHandler *handlers.RegistryHandler,
) {
	r.HandleFunc("/health", registryHandler.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)
	api.Use(requestIDMiddleware)

	api.HandleFunc("/search", searchHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/search", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/multi-search", searchHandler.MultiSearch).Methods(http.MethodGet)
	api.HandleFunc("/multi-search", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/details/{source}/{id}", contentHandler.Details).Methods(http.MethodGet)
	api.HandleFunc("/details/{source}/{id}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/sources/{source}/{id}", contentHandler.Sources).Methods(http.MethodGet)
	api.HandleFunc("/sources/{source}/{id}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/episode/{source}/{id}/{episode}", contentHandler.Episode).Methods(http.MethodGet)
	api.HandleFunc("/episode/{source}/{id}/{episode}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/download/{source}/{id}", contentHandler.Download).Methods(http.MethodGet)
	api.HandleFunc("/download/{source}/{id}", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/sources", registryHandler.ListSources).Methods(http.MethodGet)
	api.HandleFunc("/sources", handleOptions).Methods(http.MethodOptions)
}
