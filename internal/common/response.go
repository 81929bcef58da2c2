package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload under the "error" key of failed responses.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps v in the {"data": ...} envelope used by every successful
// storefront response.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError renders {"error": {"code", "message", "details"}}.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{Code: code, Message: message, Details: details},
	})
}
