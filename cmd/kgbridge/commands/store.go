package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/am"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/graph/neo4jstore"
	"github.com/teranos/kgbridge/graph/redisstore"
	"github.com/teranos/kgbridge/graph/sqlitestore"
	"github.com/teranos/kgbridge/logger"
)

// loadConfig loads and validates the configuration cascade.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// openStore opens the graph store selected by store.backend.
func openStore(ctx context.Context, cfg *am.Config) (graph.Store, error) {
	log := logger.Logger
	switch strings.ToLower(cfg.Store.Backend) {
	case am.BackendNeo4j:
		return neo4jstore.Open(ctx, neo4jstore.Config{
			URI:      cfg.Store.Neo4j.URI,
			Username: cfg.Store.Neo4j.Username,
			Password: cfg.Store.Neo4j.Password,
			Database: cfg.Store.Neo4j.Database,
		}, log)
	case am.BackendRedis:
		return redisstore.Open(ctx, redisstore.Config{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
		}, log)
	default:
		return sqlitestore.Open(databasePath(cfg), log)
	}
}

// storeLabel describes the active backend for banners and summaries.
func storeLabel(cfg *am.Config) string {
	switch strings.ToLower(cfg.Store.Backend) {
	case am.BackendNeo4j:
		return "neo4j " + cfg.Store.Neo4j.URI
	case am.BackendRedis:
		return "redis " + cfg.Store.Redis.Addr
	default:
		return "sqlite " + databasePath(cfg)
	}
}

// databasePath honours DB_PATH over database.path.
func databasePath(cfg *am.Config) string {
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	return cfg.GetDatabasePath()
}

func newImporter(store graph.Store, cfg *am.Config) *graph.Importer {
	return graph.NewImporter(store, graph.ImportOptions{Atomic: cfg.Store.AtomicImport}, logger.Logger)
}

func newExporter(store graph.Store, cfg *am.Config) *graph.Exporter {
	return graph.NewExporter(store, graph.ExportOptions{BaseNamespace: cfg.GetBaseNamespace()}, logger.Logger)
}

// commandContext returns the command's context tagged with its name for logging
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithComponent(ctx, "cli."+cmd.Name())
}
