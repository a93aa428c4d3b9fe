// Package response writes the wire-level JSON bodies. Error bodies carry a
// message and, for validation failures, the offending field.
package response

import (
	"encoding/json"
	"net/http"
)

type messageBody struct {
	Message string `json:"message"`
}

type fieldErrorBody struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, messageBody{Message: msg})
}

// FieldError writes a 400 naming the offending field.
func FieldError(w http.ResponseWriter, msg, field string) {
	JSON(w, http.StatusBadRequest, fieldErrorBody{Message: msg, Field: field})
}

// Internal writes an opaque 500. Details stay in the server log.
func Internal(w http.ResponseWriter) {
	Message(w, http.StatusInternalServerError, "Internal server error")
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
