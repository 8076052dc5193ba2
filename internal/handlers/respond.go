// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API. Every response is wrapped in
// the envelope {success, message, data}; blog errors are mapped to status
// codes in writeError and nowhere else.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/blog"
)

// maxJSONBody caps decoded request bodies.
const maxJSONBody = 1 << 20

// internalErrorMessage is the only text an unexpected failure reveals.
const internalErrorMessage = "An unexpected error occurred."

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(envelope{
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
	if err != nil {
		slog.Warn("write response", "error", err)
	}
}

func ok(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, message, data)
}

func created(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, message, data)
}

// statusFor maps a blog error kind to an HTTP status code.
func statusFor(k blog.Kind) int {
	switch k {
	case blog.KindValidation:
		return http.StatusBadRequest
	case blog.KindUnauthenticated:
		return http.StatusUnauthorized
	case blog.KindForbidden:
		return http.StatusForbidden
	case blog.KindNotFound:
		return http.StatusNotFound
	case blog.KindConflict:
		return http.StatusConflict
	case blog.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Expected failures carry their
// message; anything else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *blog.Error
	if !errors.As(err, &e) {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		writeJSON(w, http.StatusInternalServerError, internalErrorMessage, nil)
		return
	}

	var data any
	if len(e.Fields) > 0 {
		data = map[string]any{"errors": e.Fields}
	}
	writeJSON(w, statusFor(e.Kind), e.Error(), data)
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return blog.Invalid("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return blog.Invalid("body", "request body is required")
		default:
			return blog.Invalid("body", "request body must be valid JSON")
		}
	}
	return nil
}

// pathID parses a UUID route parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, blog.Invalid(name, "must be a valid UUID")
	}
	return id, nil
}

// queryID parses an optional UUID query parameter.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, blog.Invalid(name, "must be a valid UUID")
	}
	return &id, nil
}

// queryInt returns an integer query parameter, or 0 when it is missing
// or malformed. The service treats 0 as "use the default".
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func pageRequest(r *http.Request) blog.PageRequest {
	return blog.PageRequest{
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}
}
