package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/fanreel/internal/pipeline"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// writeFailure maps pipeline errors to status codes. failMessage is used for
// anything that is not a client error.
func writeFailure(w http.ResponseWriter, err error, failMessage string) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, pipeline.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, failMessage, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
