package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON envelope every error reply uses: a human-readable
// message plus the individual error details.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteError writes an ErrorResponse with the given status code. Encoding
// failures are only logged; the status line has already been sent at that
// point.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(ErrorResponse{
		Message: message,
		Errors:  errors,
	})
	if err != nil && log != nil {
		log.Error("failed to encode error response", "error", err)
	}
}
