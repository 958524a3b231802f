package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/teranos/kgbridge/errors"
)

// maxBodyBytes caps RDF and rule payloads.
const maxBodyBytes = 32 << 20

// errorResponse is the body of every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Hint    string `json:"hint,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeText writes a non-JSON body such as Turtle
func writeText(w http.ResponseWriter, status int, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message, hint string) {
	_ = writeJSON(w, status, errorResponse{Error: message, Hint: hint})
}

// readJSON reads and decodes a JSON request body
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid request body"), errors.ErrInvalidRequest)
	}
	return nil
}

// readBody reads a raw request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to read request body"), errors.ErrInvalidRequest)
	}
	return body, nil
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return false
	}
	return true
}
