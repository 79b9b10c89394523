// Package httputil provides shared HTTP helpers for JSON handlers.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxBodySize caps request bodies read by DecodeJSON.
const MaxBodySize = 1 << 20

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes the {"error", "message"} body the registry uses for failures.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteRaw writes body verbatim with the given content type.
func WriteRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// DecodeJSON reads at most MaxBodySize bytes of r's body into v.
func DecodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
