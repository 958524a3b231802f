package neo4jstore

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
)

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`Person`", quoteIdent("Person"))
	assert.Equal(t, "`a``b`", quoteIdent("a`b"))
}

func TestWithLimit(t *testing.T) {
	cypher, params := withLimit(nodesCypher, 0)
	assert.Equal(t, nodesCypher, cypher)
	assert.Nil(t, params)

	cypher, params = withLimit(nodesCypher, 500)
	assert.Equal(t, nodesCypher+" LIMIT $limit", cypher)
	assert.Equal(t, int64(500), params["limit"])
}

func TestRecordToNode(t *testing.T) {
	rec := &neo4j.Record{
		Keys: []string{"id", "iri", "labels", "props"},
		Values: []any{
			"4:abc:1",
			"http://example.org/ont#Alice",
			[]any{"Person", "Agent"},
			map[string]any{"iri": "http://example.org/ont#Alice", "age": "30"},
		},
	}
	n := recordToNode(rec)
	assert.Equal(t, "4:abc:1", n.InternalID)
	assert.Equal(t, "http://example.org/ont#Alice", n.Key)
	assert.Equal(t, []string{"Agent", "Person"}, n.Labels)
	assert.Equal(t, map[string]string{"age": "30"}, n.Properties)
}

func TestRecordToNodeWithoutKey(t *testing.T) {
	rec := &neo4j.Record{
		Keys:   []string{"id", "iri", "labels", "props"},
		Values: []any{"4:abc:9", nil, []any{}, map[string]any{"name": "external"}},
	}
	n := recordToNode(rec)
	assert.Empty(t, n.Key)
	assert.Equal(t, "node_4:abc:9", n.DisplayID())
}

func TestRecordToEdge(t *testing.T) {
	rec := &neo4j.Record{
		Keys:   []string{"sid", "siri", "tid", "tiri", "type"},
		Values: []any{"1", "urn:a", "2", "urn:b", "KNOWS"},
	}
	assert.Equal(t, graph.StoredEdge{SourceID: "1", SourceKey: "urn:a", TargetID: "2", TargetKey: "urn:b", Type: "KNOWS"}, recordToEdge(rec))
}

func TestExecMarksFailures(t *testing.T) {
	s := &Store{
		run: func(context.Context, string, map[string]any) ([]*neo4j.Record, error) {
			return nil, errors.New("connection refused")
		},
	}
	err := s.UpsertNode(context.Background(), "urn:a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGraphStore))
}

func TestStatementsUseParameters(t *testing.T) {
	var got []string
	var params []map[string]any
	s := &Store{
		run: func(_ context.Context, cypher string, p map[string]any) ([]*neo4j.Record, error) {
			got = append(got, cypher)
			params = append(params, p)
			return nil, nil
		},
	}
	ctx := context.Background()
	require.NoError(t, s.AddLabel(ctx, "urn:a", "Person"))
	require.NoError(t, s.SetProperty(ctx, "urn:a", "age", "30"))
	require.NoError(t, s.MergeEdge(ctx, "urn:a", "urn:b", "KNOWS"))

	assert.Equal(t, "MATCH (n {iri: $iri}) SET n:`Person`", got[0])
	assert.Equal(t, map[string]any{"age": "30"}, params[1]["props"])
	assert.Equal(t, "MATCH (a {iri: $from}), (b {iri: $to}) MERGE (a)-[:`KNOWS`]->(b)", got[2])
}

// Runs against a live server when KGBRIDGE_TEST_NEO4J_URI is set.
func TestIntegration(t *testing.T) {
	uri := os.Getenv("KGBRIDGE_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("KGBRIDGE_TEST_NEO4J_URI not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{
		URI:      uri,
		Username: os.Getenv("KGBRIDGE_TEST_NEO4J_USERNAME"),
		Password: os.Getenv("KGBRIDGE_TEST_NEO4J_PASSWORD"),
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Clear(ctx))

	require.NoError(t, s.Batch(ctx, func(tx graph.Store) error {
		if err := tx.UpsertNode(ctx, "urn:a"); err != nil {
			return err
		}
		if err := tx.UpsertNode(ctx, "urn:b"); err != nil {
			return err
		}
		return tx.MergeEdge(ctx, "urn:a", "urn:b", "KNOWS")
	}))
	require.NoError(t, s.MergeEdge(ctx, "urn:a", "urn:b", "KNOWS"))

	nodes, edges, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
}
