// Package server exposes the RDF bridge and the reasoner over HTTP.
package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/kgbridge/am"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/metrics"
	"github.com/teranos/kgbridge/reasoning"
)

// ServerState represents the server lifecycle state
type ServerState int32

const (
	ServerStateRunning ServerState = iota
	ServerStateDraining
	ServerStateStopped
)

// ShutdownTimeout bounds how long in-flight requests may drain
const ShutdownTimeout = 10 * time.Second

// Deps are the collaborators a Server is built from.
type Deps struct {
	Store   graph.Store
	Config  *am.Config
	Metrics *metrics.Metrics
	Logger  *zap.SugaredLogger
}

// Server serves the import, export, snapshot and reasoning endpoints.
type Server struct {
	store        graph.Store
	importer     *graph.Importer
	exporter     *graph.Exporter
	projector    *graph.Projector
	orchestrator *reasoning.Orchestrator
	metrics      *metrics.Metrics

	// Swapped on config reload; a nil limiter means unlimited.
	limiter atomic.Pointer[rate.Limiter]
	origins atomic.Pointer[[]string]

	port       int
	httpServer *http.Server
	state      atomic.Int32
	logger     *zap.SugaredLogger
}

// New wires the graph and reasoning components over deps.Store.
func New(deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.AssertionFailedf("server: store is required")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &am.Config{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.Logger
	}

	importer := graph.NewImporter(deps.Store, graph.ImportOptions{
		Atomic:  cfg.Store.AtomicImport,
		Metrics: deps.Metrics,
	}, log)
	exporter := graph.NewExporter(deps.Store, graph.ExportOptions{
		BaseNamespace: cfg.GetBaseNamespace(),
		Metrics:       deps.Metrics,
	}, log)

	s := &Server{
		store:    deps.Store,
		importer: importer,
		exporter: exporter,
		projector: graph.NewProjector(deps.Store, graph.ProjectorOptions{
			NodeLimit: cfg.Graph.SnapshotNodeLimit,
			EdgeLimit: cfg.Graph.SnapshotEdgeLimit,
		}, log),
		orchestrator: reasoning.NewOrchestrator(importer, exporter, reasoning.OrchestratorOptions{
			Limits: reasoning.Limits{
				MaxRounds:  cfg.Reasoning.MaxRounds,
				MaxTriples: cfg.Reasoning.MaxTriples,
			},
			TransferRulesPaths: cfg.GetTransferRulesPaths(),
			Metrics:            deps.Metrics,
		}, log),
		metrics: deps.Metrics,
		port:    cfg.ServerPort(),
		logger:  log.Named("server"),
	}
	s.ApplyConfig(cfg)
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: ShutdownTimeout,
	}
	s.state.Store(int32(ServerStateStopped))
	return s, nil
}

// ApplyConfig installs the reloadable settings: rate limit and allowed
// origins. It is registered as an am.ConfigWatcher callback.
func (s *Server) ApplyConfig(cfg *am.Config) error {
	s.limiter.Store(newLimiter(cfg.Server.ReasoningRatePerMinute, cfg.Server.ReasoningBurst))
	origins := cfg.GetServerAllowedOrigins()
	s.origins.Store(&origins)
	s.logger.Infow("Server settings applied",
		"reasoning_rate_per_minute", cfg.Server.ReasoningRatePerMinute,
		"reasoning_burst", cfg.Server.ReasoningBurst,
		"allowed_origins", origins)
	return nil
}

func newLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}

// Orchestrator exposes the reasoning pipeline the server runs.
func (s *Server) Orchestrator() *reasoning.Orchestrator {
	return s.orchestrator
}
