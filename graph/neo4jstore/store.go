// Package neo4jstore is the graph.Store backend for a Neo4j server. Nodes
// are matched on their iri property; labels and relationship types are the
// sanitized names produced by the importer.
package neo4jstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/logger"
)

// Cypher statements. Labels and relationship types cannot be parameters,
// so those are spliced in with quoteIdent.
const (
	upsertNodeCypher  = `MERGE (n {iri: $iri})`
	addLabelCypher    = "MATCH (n {iri: $iri}) SET n:%s"
	setPropertyCypher = `MATCH (n {iri: $iri}) SET n += $props`
	mergeEdgeCypher   = "MATCH (a {iri: $from}), (b {iri: $to}) MERGE (a)-[:%s]->(b)"
	nodesCypher       = `MATCH (n) RETURN elementId(n) AS id, n.iri AS iri, labels(n) AS labels, properties(n) AS props ORDER BY id`
	edgesCypher       = `MATCH (a)-[r]->(b) RETURN elementId(a) AS sid, a.iri AS siri, elementId(b) AS tid, b.iri AS tiri, type(r) AS type ORDER BY elementId(r)`
	countCypher       = `CALL { MATCH (n) RETURN count(n) AS nodes } CALL { MATCH ()-[r]->() RETURN count(r) AS edges } RETURN nodes, edges`
	clearCypher       = `MATCH (n) DETACH DELETE n`
)

// Config holds connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// runner executes one statement and collects its records.
type runner func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)

// Store implements graph.Store and graph.Batcher on Neo4j.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	run      runner
	inTx     bool
	logger   *zap.SugaredLogger
}

var (
	_ graph.Store   = (*Store)(nil)
	_ graph.Batcher = (*Store)(nil)
)

// Open connects to the server and verifies connectivity.
func Open(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = logger.Logger
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.WrapGraphStore(err, "failed to create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.WithHintf(
			errors.WrapGraphStore(err, "neo4j unreachable at "+cfg.URI),
			"check store.neo4j.uri and credentials, or set store.backend = %q", "sqlite")
	}

	s := &Store{
		driver:   driver,
		database: cfg.Database,
		logger:   logger.StoreLogger(log, "store.neo4j"),
	}
	s.run = s.autoCommit
	s.logger.Infow("Connected to neo4j", logger.FieldAddress, cfg.URI)
	return s, nil
}

func (s *Store) sessionConfig(mode neo4j.AccessMode) neo4j.SessionConfig {
	return neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database}
}

func (s *Store) autoCommit(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, s.sessionConfig(neo4j.AccessModeWrite))
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

func (s *Store) exec(ctx context.Context, what, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	records, err := s.run(ctx, cypher, params)
	if err != nil {
		return nil, errors.WrapGraphStore(err, "neo4j: failed to "+what)
	}
	return records, nil
}

func (s *Store) UpsertNode(ctx context.Context, key string) error {
	_, err := s.exec(ctx, "upsert node", upsertNodeCypher, map[string]any{"iri": key})
	return err
}

func (s *Store) AddLabel(ctx context.Context, key, label string) error {
	_, err := s.exec(ctx, "add label", fmt.Sprintf(addLabelCypher, quoteIdent(label)), map[string]any{"iri": key})
	return err
}

func (s *Store) SetProperty(ctx context.Context, key, name, value string) error {
	_, err := s.exec(ctx, "set property", setPropertyCypher, map[string]any{
		"iri":   key,
		"props": map[string]any{name: value},
	})
	return err
}

func (s *Store) MergeEdge(ctx context.Context, from, to, relType string) error {
	_, err := s.exec(ctx, "merge edge", fmt.Sprintf(mergeEdgeCypher, quoteIdent(relType)), map[string]any{
		"from": from,
		"to":   to,
	})
	return err
}

func (s *Store) Nodes(ctx context.Context, limit int) ([]graph.StoredNode, error) {
	cypher, params := withLimit(nodesCypher, limit)
	records, err := s.exec(ctx, "read nodes", cypher, params)
	if err != nil {
		return nil, err
	}
	nodes := make([]graph.StoredNode, 0, len(records))
	for _, rec := range records {
		nodes = append(nodes, recordToNode(rec))
	}
	return nodes, nil
}

func (s *Store) Edges(ctx context.Context, limit int) ([]graph.StoredEdge, error) {
	cypher, params := withLimit(edgesCypher, limit)
	records, err := s.exec(ctx, "read edges", cypher, params)
	if err != nil {
		return nil, err
	}
	edges := make([]graph.StoredEdge, 0, len(records))
	for _, rec := range records {
		edges = append(edges, recordToEdge(rec))
	}
	return edges, nil
}

func (s *Store) Count(ctx context.Context) (int, int, error) {
	records, err := s.exec(ctx, "count graph", countCypher, nil)
	if err != nil {
		return 0, 0, err
	}
	if len(records) == 0 {
		return 0, 0, nil
	}
	return int(intValue(records[0], "nodes")), int(intValue(records[0], "edges")), nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.exec(ctx, "clear graph", clearCypher, nil)
	return err
}

// Batch runs fn inside one managed write transaction. The driver retries
// fn on transient failures, so fn must be safe to run again.
func (s *Store) Batch(ctx context.Context, fn func(tx graph.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	session := s.driver.NewSession(ctx, s.sessionConfig(neo4j.AccessModeWrite))
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		txStore := &Store{
			driver:   s.driver,
			database: s.database,
			inTx:     true,
			logger:   s.logger,
			run: func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
				result, err := tx.Run(ctx, cypher, params)
				if err != nil {
					return nil, err
				}
				return result.Collect(ctx)
			},
		}
		return nil, fn(txStore)
	})
	if err != nil && !errors.Is(err, errors.ErrGraphStore) {
		return errors.WrapGraphStore(err, "neo4j: transaction failed")
	}
	return err
}

func (s *Store) Close() error {
	if s.inTx {
		return nil
	}
	return s.driver.Close(context.Background())
}

// quoteIdent backtick-quotes a label or relationship type.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func withLimit(cypher string, limit int) (string, map[string]any) {
	if limit <= 0 {
		return cypher, nil
	}
	return cypher + " LIMIT $limit", map[string]any{"limit": int64(limit)}
}

func recordToNode(rec *neo4j.Record) graph.StoredNode {
	n := graph.StoredNode{
		InternalID: stringValue(rec, "id"),
		Key:        stringValue(rec, "iri"),
		Properties: map[string]string{},
	}
	if raw, ok := rec.Get("labels"); ok {
		if labels, ok := raw.([]any); ok {
			for _, l := range labels {
				n.Labels = append(n.Labels, fmt.Sprint(l))
			}
		}
	}
	sort.Strings(n.Labels)
	if raw, ok := rec.Get("props"); ok {
		if props, ok := raw.(map[string]any); ok {
			for k, v := range props {
				if k == "iri" {
					continue
				}
				n.Properties[k] = fmt.Sprint(v)
			}
		}
	}
	return n
}

func recordToEdge(rec *neo4j.Record) graph.StoredEdge {
	return graph.StoredEdge{
		SourceID:  stringValue(rec, "sid"),
		SourceKey: stringValue(rec, "siri"),
		TargetID:  stringValue(rec, "tid"),
		TargetKey: stringValue(rec, "tiri"),
		Type:      stringValue(rec, "type"),
	}
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func intValue(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int64)
	return n
}
