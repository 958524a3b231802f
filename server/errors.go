package server

import (
	"net/http"
	"strings"

	"github.com/teranos/kgbridge/errors"
)

// statusFor maps the error taxonomy onto HTTP status codes.
// Caller mistakes are 400; store and unexpected failures are 500.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleError logs err and writes the matching error response.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := s.requestLogger(r)
	if status >= http.StatusInternalServerError {
		log.Errorw("Request failed", "status", status, "error", err,
			"details", errors.FlattenDetails(err))
	} else {
		log.Debugw("Request rejected", "status", status, "error", err)
	}
	writeError(w, status, err.Error(), strings.Join(errors.GetAllHints(err), "; "))
}
