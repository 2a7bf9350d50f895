// Package core carries the HTTP response conventions shared by every
// tenantkit service: JSON bodies, the permissive CORS headers the public
// API has always sent, and the {"error","details"} error body shape.
package core

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body shape returned by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSON writes v as a JSON response with the standard headers.
func JSON(w http.ResponseWriter, status int, v any) {
	writeStandardHeaders(w)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// Headers are already sent, so an encode failure can only be logged by
	// upstream middleware; the client sees a truncated body.
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the standard error body.
func Error(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, ErrorResponse{Error: message, Details: details})
}

func writeStandardHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
	h.Set("Access-Control-Allow-Methods", "OPTIONS,POST,GET,PUT,DELETE")
}
