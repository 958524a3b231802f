package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/teranos/kgbridge/logger"
)

// RequestIDHeader carries the request ID in and out.
const RequestIDHeader = "X-Request-ID"

// Handler returns the routed, middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupHTTPRoutes(mux)
	return mux
}

// setupHTTPRoutes configures all HTTP handlers
func (s *Server) setupHTTPRoutes(mux *http.ServeMux) {
	// RDF bridge
	s.route(mux, "/api/rdf/import", s.HandleImport)          // Import RDF, format from Content-Type or content (POST)
	s.route(mux, "/api/rdf/import-text", s.HandleImportText) // Import a Turtle body (POST)
	s.route(mux, "/api/rdf/export", s.HandleExport)          // Store as Turtle (GET)
	s.route(mux, "/api/rdf/graph-data", s.HandleGraphData)   // Bounded snapshot for visualization (GET)

	// Reasoning; the CPU-bound routes share one rate limiter
	s.route(mux, "/api/reasoning/execute", s.rateLimited(s.HandleExecute))
	s.route(mux, "/api/reasoning/inferred-only", s.rateLimited(s.HandleInferredOnly))
	s.route(mux, "/api/reasoning/transfer-process", s.rateLimited(s.HandleTransferProcess))
	s.route(mux, "/api/reasoning/validate-rules", s.HandleValidateRules)
	s.route(mux, "/api/reasoning/examples", s.HandleExamples)
	s.route(mux, "/api/reasoning/reasoner-types", s.HandleReasonerTypes)

	s.route(mux, "/health", s.HandleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// route registers h behind the request-ID, metrics and CORS middleware.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, s.requestID(s.instrument(pattern, s.corsMiddleware(h))))
}

// requestID attaches an ID to the request context and echoes it back.
// A client-supplied X-Request-ID is kept.
func (s *Server) requestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	}
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests per route and status code.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.HTTPRequest(route, strconv.Itoa(rec.status))
		s.requestLogger(r).Debugw("Request served",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, rec.status)
	}
}

// corsMiddleware adds CORS headers to HTTP responses using configured allowed origins
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// checkOrigin matches origin against the allowed origins by scheme and
// host. An allowed entry without a port accepts any port on that host.
func (s *Server) checkOrigin(origin string) bool {
	allowed := s.origins.Load()
	if allowed == nil {
		return false
	}
	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return false
	}
	for _, a := range *allowed {
		if a == "*" || originMatches(o, a) {
			return true
		}
	}
	return false
}

func originMatches(o *url.URL, allowed string) bool {
	a, err := url.Parse(strings.TrimSuffix(allowed, "/"))
	if err != nil || a.Host == "" {
		return false
	}
	if !strings.EqualFold(o.Scheme, a.Scheme) || !strings.EqualFold(o.Hostname(), a.Hostname()) {
		return false
	}
	return a.Port() == "" || a.Port() == o.Port()
}

// rateLimited rejects requests over the reasoning budget with 429.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if l := s.limiter.Load(); l != nil && !l.Allow() {
				s.metrics.RateLimited()
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "reasoning rate limit exceeded",
					"raise server.reasoning_rate_per_minute or retry later")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) requestLogger(r *http.Request) *zap.SugaredLogger {
	return logger.FromContext(r.Context(), s.logger)
}
