package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// DetailResponse is the standard error response structure: a short error
// category plus a human-readable detail.
type DetailResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithDetail writes a JSON error response in the {error, detail}
// shape with the given status code.
func RespondWithDetail(w http.ResponseWriter, r *http.Request, status int, message, detail string) {
	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response",
		slog.Int("status_code", status),
		slog.String("message", message),
		slog.String("detail", detail),
		slog.String("trace_id", GetTraceID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))

	RespondWithJSON(w, r, status, DetailResponse{Error: message, Detail: detail})
}
