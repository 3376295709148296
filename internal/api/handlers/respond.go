package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/overseas-dashboard/internal/dashboard"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  dashboard.Kind `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondPipelineError maps a render failure to a status code.
// Upstream failures are 502; the rest are ours.
func respondPipelineError(w http.ResponseWriter, err error) {
	kind := dashboard.Classify(err)

	status := http.StatusInternalServerError
	switch kind {
	case dashboard.KindAuth, dashboard.KindTransport, dashboard.KindData:
		status = http.StatusBadGateway
	}

	respondJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}
