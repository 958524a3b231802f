// Package sqlitestore is the embedded graph.Store backend. The property
// graph lives in four tables (nodes, node_labels, node_properties, edges)
// created by the db package migrations.
package sqlitestore

import (
	"context"
	"database/sql"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/teranos/kgbridge/db"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/logger"
)

// Query constants
const (
	UpsertNodeQuery = `
		INSERT INTO nodes (iri) VALUES (?)
		ON CONFLICT(iri) DO NOTHING`

	AddLabelQuery = `
		INSERT OR IGNORE INTO node_labels (node_id, label)
		SELECT id, ? FROM nodes WHERE iri = ?`

	SetPropertyQuery = `
		INSERT INTO node_properties (node_id, name, value)
		SELECT id, ?, ? FROM nodes WHERE iri = ?
		ON CONFLICT(node_id, name) DO UPDATE SET value = excluded.value`

	MergeEdgeQuery = `
		INSERT OR IGNORE INTO edges (source_id, target_id, type)
		SELECT s.id, t.id, ? FROM nodes s, nodes t
		WHERE s.iri = ? AND t.iri = ?`

	// A negative LIMIT means no limit in SQLite.
	NodesQuery = `
		SELECT id, iri FROM nodes ORDER BY id LIMIT ?`

	NodeLabelsQuery = `
		SELECT node_id, label FROM node_labels
		WHERE node_id IN (SELECT id FROM nodes ORDER BY id LIMIT ?)`

	NodePropertiesQuery = `
		SELECT node_id, name, value FROM node_properties
		WHERE node_id IN (SELECT id FROM nodes ORDER BY id LIMIT ?)`

	EdgesQuery = `
		SELECT e.source_id, s.iri, e.target_id, t.iri, e.type
		FROM edges e
		JOIN nodes s ON s.id = e.source_id
		JOIN nodes t ON t.id = e.target_id
		ORDER BY e.id LIMIT ?`

	CountQuery = `
		SELECT (SELECT COUNT(*) FROM nodes), (SELECT COUNT(*) FROM edges)`
)

var clearStatements = []string{
	`DELETE FROM edges`,
	`DELETE FROM node_properties`,
	`DELETE FROM node_labels`,
	`DELETE FROM nodes`,
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements graph.Store and graph.Batcher on SQLite.
type Store struct {
	db     *sql.DB
	q      querier
	inTx   bool
	logger *zap.SugaredLogger
}

var (
	_ graph.Store   = (*Store)(nil)
	_ graph.Batcher = (*Store)(nil)
)

// New wraps an already migrated database.
func New(conn *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.Logger
	}
	return &Store{
		db:     conn,
		q:      conn,
		logger: logger.StoreLogger(log, "store.sqlite"),
	}
}

// Open opens (creating if needed) and migrates the database at path.
func Open(path string, log *zap.SugaredLogger) (*Store, error) {
	conn, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, errors.WrapGraphStore(err, "failed to open sqlite graph store")
	}
	return New(conn, log), nil
}

func (s *Store) UpsertNode(ctx context.Context, key string) error {
	if _, err := s.q.ExecContext(ctx, UpsertNodeQuery, key); err != nil {
		return errors.WrapGraphStore(err, "failed to upsert node "+key)
	}
	return nil
}

func (s *Store) AddLabel(ctx context.Context, key, label string) error {
	if _, err := s.q.ExecContext(ctx, AddLabelQuery, label, key); err != nil {
		return errors.WrapGraphStore(err, "failed to add label "+label)
	}
	return nil
}

func (s *Store) SetProperty(ctx context.Context, key, name, value string) error {
	if _, err := s.q.ExecContext(ctx, SetPropertyQuery, name, value, key); err != nil {
		return errors.WrapGraphStore(err, "failed to set property "+name)
	}
	return nil
}

func (s *Store) MergeEdge(ctx context.Context, from, to, relType string) error {
	if _, err := s.q.ExecContext(ctx, MergeEdgeQuery, relType, from, to); err != nil {
		return errors.WrapGraphStore(err, "failed to merge edge "+relType)
	}
	return nil
}

// Nodes returns nodes in insertion order with their labels and properties.
func (s *Store) Nodes(ctx context.Context, limit int) ([]graph.StoredNode, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.q.QueryContext(ctx, NodesQuery, limit)
	if err != nil {
		return nil, errors.WrapGraphStore(err, "failed to query nodes")
	}
	var (
		nodes []graph.StoredNode
		index = make(map[int64]int)
	)
	for rows.Next() {
		var (
			id  int64
			iri sql.NullString
		)
		if err := rows.Scan(&id, &iri); err != nil {
			rows.Close()
			return nil, errors.WrapGraphStore(err, "failed to scan node")
		}
		index[id] = len(nodes)
		nodes = append(nodes, graph.StoredNode{
			InternalID: strconv.FormatInt(id, 10),
			Key:        iri.String,
			Properties: map[string]string{},
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.WrapGraphStore(err, "failed to iterate nodes")
	}
	if len(nodes) == 0 {
		return nodes, nil
	}

	if err := s.loadLabels(ctx, limit, nodes, index); err != nil {
		return nil, err
	}
	if err := s.loadProperties(ctx, limit, nodes, index); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *Store) loadLabels(ctx context.Context, limit int, nodes []graph.StoredNode, index map[int64]int) error {
	rows, err := s.q.QueryContext(ctx, NodeLabelsQuery, limit)
	if err != nil {
		return errors.WrapGraphStore(err, "failed to query labels")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			label string
		)
		if err := rows.Scan(&id, &label); err != nil {
			return errors.WrapGraphStore(err, "failed to scan label")
		}
		if i, ok := index[id]; ok {
			nodes[i].Labels = append(nodes[i].Labels, label)
		}
	}
	for i := range nodes {
		sort.Strings(nodes[i].Labels)
	}
	return errors.WrapGraphStore(rows.Err(), "failed to iterate labels")
}

func (s *Store) loadProperties(ctx context.Context, limit int, nodes []graph.StoredNode, index map[int64]int) error {
	rows, err := s.q.QueryContext(ctx, NodePropertiesQuery, limit)
	if err != nil {
		return errors.WrapGraphStore(err, "failed to query properties")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id          int64
			name, value string
		)
		if err := rows.Scan(&id, &name, &value); err != nil {
			return errors.WrapGraphStore(err, "failed to scan property")
		}
		if i, ok := index[id]; ok {
			nodes[i].Properties[name] = value
		}
	}
	return errors.WrapGraphStore(rows.Err(), "failed to iterate properties")
}

func (s *Store) Edges(ctx context.Context, limit int) ([]graph.StoredEdge, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q.QueryContext(ctx, EdgesQuery, limit)
	if err != nil {
		return nil, errors.WrapGraphStore(err, "failed to query edges")
	}
	defer rows.Close()

	var edges []graph.StoredEdge
	for rows.Next() {
		var (
			sourceID, targetID   int64
			sourceKey, targetKey sql.NullString
			relType              string
		)
		if err := rows.Scan(&sourceID, &sourceKey, &targetID, &targetKey, &relType); err != nil {
			return nil, errors.WrapGraphStore(err, "failed to scan edge")
		}
		edges = append(edges, graph.StoredEdge{
			SourceID:  strconv.FormatInt(sourceID, 10),
			SourceKey: sourceKey.String,
			TargetID:  strconv.FormatInt(targetID, 10),
			TargetKey: targetKey.String,
			Type:      relType,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapGraphStore(err, "failed to iterate edges")
	}
	return edges, nil
}

func (s *Store) Count(ctx context.Context) (int, int, error) {
	var nodes, edges int
	if err := s.q.QueryRowContext(ctx, CountQuery).Scan(&nodes, &edges); err != nil {
		return 0, 0, errors.WrapGraphStore(err, "failed to count graph")
	}
	return nodes, edges, nil
}

// Clear removes every node and edge in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	return s.Batch(ctx, func(tx graph.Store) error {
		q := tx.(*Store).q
		for _, stmt := range clearStatements {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return errors.WrapGraphStore(err, "failed to clear graph")
			}
		}
		return nil
	})
}

// Batch runs fn inside one transaction. Nested calls join the outer one.
func (s *Store) Batch(ctx context.Context, fn func(tx graph.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapGraphStore(err, "failed to begin transaction")
	}
	txStore := &Store{db: s.db, q: tx, inTx: true, logger: s.logger}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warnw("Rollback failed", logger.FieldError, rbErr)
			return errors.WithSecondaryError(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapGraphStore(err, "failed to commit transaction")
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}
