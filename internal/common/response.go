package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload every endpoint returns: a stable
// machine-readable code the terminal UI switches on, plus a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with the given status. Encoding failures are dropped; the
// status line is already on the wire when encoding runs.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONData wraps v in the {"data": ...} envelope success responses use.
func JSONData(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError renders the {"error": ...} envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
