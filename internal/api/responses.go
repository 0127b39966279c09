// Package api provides HTTP handlers and routing for the sat-gbdx catalog service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIError is the JSON error envelope returned by every failing endpoint.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "BadRequest"
	ErrCodeNotFound         = "NotFound"
	ErrCodeInvalidParameter = "InvalidParameterValue"
	ErrCodeServerError      = "ServerError"
	ErrCodeUpstreamError    = "UpstreamServiceError"
)

// WriteJSON writes a JSON response with the given status code and value.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response",
			slog.String("error", err.Error()),
		)
		return err
	}

	return nil
}

// WriteGeoJSON writes a GeoJSON response using the application/geo+json
// media type.
func WriteGeoJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode GeoJSON response",
			slog.String("error", err.Error()),
		)
		return err
	}

	return nil
}

// WriteError writes an error envelope with the given status and code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(APIError{Code: code, Description: message}); err != nil {
		slog.Error("failed to encode error response",
			slog.String("error", err.Error()),
		)
	}
}

// WriteBadRequest writes a 400 Bad Request error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteNotFound writes a 404 Not Found error response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteInvalidParameter writes a 400 Bad Request error for invalid parameters.
func WriteInvalidParameter(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeInvalidParameter, message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeServerError, message)
}

// WriteUpstreamError writes a 502 Bad Gateway error for provider failures.
func WriteUpstreamError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, ErrCodeUpstreamError, message)
}
