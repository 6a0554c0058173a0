package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as JSON with the given status code.
// Encoding failures after the header is written can only be logged by the
// caller; the body is best-effort at that point.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
