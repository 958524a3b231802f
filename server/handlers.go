package server

// HTTP handlers shared by every route group:
// - Health checks (HandleHealth)
// RDF bridge handlers live in handlers_rdf.go, reasoning in handlers_reasoning.go.

import (
	"net/http"

	"github.com/teranos/kgbridge/version"
)

// HandleHealth serves health check endpoint with version info and store counts
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	health := map[string]interface{}{
		"status":  "ok",
		"version": versionInfo.Version,
		"commit":  versionInfo.Short(),
		"state":   stateString(s.getState()),
	}

	nodes, edges, err := s.store.Count(r.Context())
	if err != nil {
		s.requestLogger(r).Warnw("Health check could not reach the graph store", "error", err)
		health["status"] = "degraded"
		health["store_error"] = err.Error()
		_ = writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	health["nodes"] = nodes
	health["edges"] = edges
	_ = writeJSON(w, http.StatusOK, health)
}
