// internal/app/system/webjson/webjson.go

// Package webjson holds the small request/response helpers shared by the
// JSON API feature handlers.
package webjson

import (
	"encoding/json"
	"net/http"
)

// errorBody is the uniform error envelope for the API.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Respond writes a JSON response with the given status.
func Respond(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes a JSON error envelope with the given status.
func Error(w http.ResponseWriter, statusCode int, message string) {
	Respond(w, statusCode, errorBody{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// Decode parses the request body into v. Unknown fields are rejected so
// client typos surface as 400s instead of silently dropped options.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
