// Package response writes the JSON envelope every API route returns:
//
//	{"success": true, "data": ...}
//	{"success": false, "error": {"code": "...", "message": "...", "fields": {...}}}
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard response wrapper.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the error part of the envelope. Retryable marks conflicts the
// client may resubmit unchanged.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

// JSON sends data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: status >= 200 && status < 300, Data: data})
}

// OK sends data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created sends data with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error sends an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Error: &APIError{Code: code, Message: message}})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Invalid sends 400 with per-field messages.
func Invalid(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusBadRequest, Envelope{Error: &APIError{
		Code:    "VALIDATION_FAILED",
		Message: "request validation failed",
		Fields:  fields,
	}})
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, "FORBIDDEN", message)
}

// Conflict sends 409. Version conflicts are retryable; "already exists" is not.
func Conflict(w http.ResponseWriter, code, message string, retryable bool) {
	write(w, http.StatusConflict, Envelope{Error: &APIError{Code: code, Message: message, Retryable: retryable}})
}

func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}

// Unavailable sends 503 for a backend that cannot be reached.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", message)
}
