package models

// APIResponse is the uniform envelope for every content endpoint. A search
// that found nothing is still Success=false with an explanatory message,
// not an error status.
type APIResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Data        any      `json:"data"`
	SourcesUsed []string `json:"sources_used"`
}
