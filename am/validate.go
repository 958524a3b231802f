package am

import (
	"strings"

	"github.com/teranos/kgbridge/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.Newf("server.port must be in 1..65535, got %d", *c.Server.Port)
	}
	if c.Server.ReasoningRatePerMinute < 0 {
		return errors.Newf("server.reasoning_rate_per_minute must be >= 0, got %d", c.Server.ReasoningRatePerMinute)
	}
	if c.Server.ReasoningRatePerMinute > 0 && c.Server.ReasoningBurst <= 0 {
		return errors.Newf("server.reasoning_burst must be > 0 when rate limiting, got %d", c.Server.ReasoningBurst)
	}

	switch strings.ToLower(c.Store.Backend) {
	case "", BackendSQLite:
	case BackendNeo4j:
		if c.Store.Neo4j.URI == "" {
			return errors.New("store.neo4j.uri cannot be empty for the neo4j backend")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr cannot be empty for the redis backend")
		}
		if c.Store.Redis.DB < 0 {
			return errors.Newf("store.redis.db must be >= 0, got %d", c.Store.Redis.DB)
		}
	default:
		return errors.WithHintf(
			errors.Newf("unknown store.backend %q", c.Store.Backend),
			"use one of %s, %s, %s", BackendSQLite, BackendNeo4j, BackendRedis)
	}

	if ns := c.Graph.BaseNamespace; ns != "" && !strings.HasSuffix(ns, "#") && !strings.HasSuffix(ns, "/") {
		return errors.Newf("graph.base_namespace must end with '#' or '/', got %q", ns)
	}
	if c.Graph.SnapshotNodeLimit < 0 {
		return errors.Newf("graph.snapshot_node_limit must be >= 0, got %d", c.Graph.SnapshotNodeLimit)
	}
	if c.Graph.SnapshotEdgeLimit < 0 {
		return errors.Newf("graph.snapshot_edge_limit must be >= 0, got %d", c.Graph.SnapshotEdgeLimit)
	}

	// Reasoning bounds: 0 = engine default, negative = invalid
	if c.Reasoning.MaxRounds < 0 {
		return errors.Newf("reasoning.max_rounds must be >= 0, got %d", c.Reasoning.MaxRounds)
	}
	if c.Reasoning.MaxTriples < 0 {
		return errors.Newf("reasoning.max_triples must be >= 0, got %d", c.Reasoning.MaxTriples)
	}

	return nil
}
