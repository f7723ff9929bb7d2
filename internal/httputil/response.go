// Package httputil holds the JSON response helpers shared by the report and
// debug handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/banshee-data/trackdqm/internal/monitoring"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("failed to encode json response: %v", err)
	}
}

// WriteError writes an ErrorBody with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// RequireGET rejects anything but GET and HEAD with 405. It reports whether
// the handler should continue.
func RequireGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// RequiredQuery returns the named query parameter, writing a 400 when it is
// absent.
func RequiredQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		WriteError(w, http.StatusBadRequest, "missing query parameter "+name)
		return "", false
	}
	return v, true
}
