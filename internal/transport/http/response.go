package httptransport

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Message string `json:"message"`
}

// Job status responses change while a client polls them.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}
