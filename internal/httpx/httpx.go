// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"campuslib/internal/store"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error maps the store error taxonomy to HTTP status codes and writes a
// JSON error body. Invalid-state errors indicate a desynchronized caller
// and are logged; everything else is the caller's to act on.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidState):
		status = http.StatusUnprocessableEntity
		slog.Warn("invalid state transition requested", "error", err)
	case errors.Is(err, store.ErrTransient):
		status = http.StatusServiceUnavailable
	case errors.Is(err, store.ErrRateLimited):
		status = http.StatusTooManyRequests
	}
	JSON(w, status, map[string]string{"error": err.Error()})
}

// Decode parses a JSON request body into dst, limiting the body size.
func Decode(r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
}
