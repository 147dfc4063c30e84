package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"streamscout/models"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] encode response failed: %v", err)
	}
}

// writeEnvelope sends the standard APIResponse with HTTP 200. Empty data
// is success=false with a message, by contract not an error status.
func writeEnvelope(w http.ResponseWriter, success bool, message string, data any, sources []string) {
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success:     success,
		Message:     message,
		Data:        data,
		SourcesUsed: sources,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
