package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody mirrors the API envelope so middleware rejections look the
// same as handler errors.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Message: message}); err != nil {
		slog.Warn("write error response", "error", err)
	}
}
