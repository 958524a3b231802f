package graph_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/graph/sqlitestore"
	kgtest "github.com/teranos/kgbridge/internal/testing"
	"github.com/teranos/kgbridge/triple"
)

const ont = "http://example.org/ont#"

func iri(local string) triple.Term { return triple.NewIRI(ont + local) }

func newStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	return sqlitestore.New(kgtest.CreateTestDB(t), zaptest.NewLogger(t).Sugar())
}

func parseTurtle(t *testing.T, doc string) *triple.Model {
	t.Helper()
	m, err := triple.Parse(context.Background(), []byte(doc), triple.Turtle)
	require.NoError(t, err)
	return m
}

const people = `@prefix ex: <http://example.org/ont#> .
@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
ex:Alice rdf:type ex:Person ;
    ex:friendOf ex:Bob ;
    ex:age 30 ;
    ex:name "Alice"@en .
ex:Bob a ex:Person .
`

func TestImportMapsTriplesToGraph(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	im := graph.NewImporter(store, graph.ImportOptions{Atomic: true}, zaptest.NewLogger(t).Sugar())

	stats, err := im.Import(ctx, parseTurtle(t, people))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Triples)
	assert.Equal(t, 3, stats.Nodes) // Alice, Bob, Person
	assert.Equal(t, 2, stats.Labels)
	assert.Equal(t, 2, stats.Properties)
	assert.Equal(t, 3, stats.Edges) // FRIENDOF plus a TYPE edge per rdf:type

	nodes, err := store.Nodes(ctx, 0)
	require.NoError(t, err)
	byKey := make(map[string]graph.StoredNode)
	for _, n := range nodes {
		byKey[n.Key] = n
	}
	aliceNode := byKey[ont+"Alice"]
	assert.Equal(t, []string{"Person"}, aliceNode.Labels)
	assert.Equal(t, "30", aliceNode.Properties["age"])
	assert.Equal(t, "Alice", aliceNode.Properties["name"])
	assert.Contains(t, byKey, ont+"Person")

	edges, err := store.Edges(ctx, 0)
	require.NoError(t, err)
	got := make([][3]string, 0, len(edges))
	for _, e := range edges {
		got = append(got, [3]string{e.SourceKey, e.Type, e.TargetKey})
	}
	assert.ElementsMatch(t, [][3]string{
		{ont + "Alice", "FRIENDOF", ont + "Bob"},
		{ont + "Alice", "TYPE", ont + "Person"},
		{ont + "Bob", "TYPE", ont + "Person"},
	}, got)
}

func TestImportLiteralTypeValue(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	im := graph.NewImporter(store, graph.ImportOptions{}, nil)

	m := triple.NewModel(
		triple.T(iri("John"), triple.TypeIRI, iri("Manager")),
		triple.T(iri("Lit"), triple.TypeIRI, triple.NewLiteral("Thing")),
	)
	stats, err := im.Import(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Nodes) // John, Manager, Lit
	assert.Equal(t, 2, stats.Labels)
	assert.Equal(t, 1, stats.Properties)
	assert.Equal(t, 1, stats.Edges)

	nodes, err := store.Nodes(ctx, 0)
	require.NoError(t, err)
	byKey := make(map[string]graph.StoredNode)
	for _, n := range nodes {
		byKey[n.Key] = n
	}
	assert.Equal(t, []string{"Manager"}, byKey[ont+"John"].Labels)
	assert.Equal(t, []string{"Thing"}, byKey[ont+"Lit"].Labels)
	assert.Equal(t, "Thing", byKey[ont+"Lit"].Properties["type"])

	edges, err := store.Edges(ctx, 0)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, graph.StoredEdge{
		SourceKey: ont + "John", TargetKey: ont + "Manager", Type: "TYPE",
		SourceID: edges[0].SourceID, TargetID: edges[0].TargetID,
	}, edges[0])

	model, err := graph.NewExporter(store, graph.ExportOptions{}, nil).Export(ctx)
	require.NoError(t, err)
	assert.True(t, model.Contains(triple.T(iri("John"), iri("TYPE"), iri("Manager"))))
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	im := graph.NewImporter(store, graph.ImportOptions{}, nil)
	model := parseTurtle(t, people)

	_, err := im.Import(ctx, model)
	require.NoError(t, err)
	nodes1, edges1, err := store.Count(ctx)
	require.NoError(t, err)
	snap1, err := store.Nodes(ctx, 0)
	require.NoError(t, err)

	_, err = im.Import(ctx, model)
	require.NoError(t, err)
	nodes2, edges2, err := store.Count(ctx)
	require.NoError(t, err)
	snap2, err := store.Nodes(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, nodes1, nodes2)
	assert.Equal(t, edges1, edges2)
	assert.Equal(t, snap1, snap2)
}

func TestImportSkipsIdentityProperty(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	im := graph.NewImporter(store, graph.ImportOptions{}, nil)

	m := triple.NewModel(triple.T(iri("Alice"), iri("iri"), triple.NewLiteral("spoofed")))
	stats, err := im.Import(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)

	nodes, err := store.Nodes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, ont+"Alice", nodes[0].Key)
	assert.NotContains(t, nodes[0].Properties, "iri")
}

func TestImportBlankNodesGetPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	im := graph.NewImporter(store, graph.ImportOptions{}, nil)

	m, err := triple.Parse(ctx, []byte(`_:b0 <http://example.org/ont#name> "anon" .`), triple.NTriples)
	require.NoError(t, err)
	_, err = im.Import(ctx, m)
	require.NoError(t, err)

	nodes, err := store.Nodes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.True(t, triple.IsBlankKey(nodes[0].Key))
}

func TestExportIsLossy(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := graph.NewImporter(store, graph.ImportOptions{}, nil).Import(ctx, parseTurtle(t, `
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
<http://people.example/alice> a foaf:Person ;
    foaf:knows <http://people.example/bob> ;
    foaf:age 30 .
`))
	require.NoError(t, err)

	model, err := graph.NewExporter(store, graph.ExportOptions{}, nil).Export(ctx)
	require.NoError(t, err)

	alice := triple.NewIRI("http://people.example/alice")
	bob := triple.NewIRI("http://people.example/bob")
	assert.True(t, model.Contains(triple.T(alice, triple.TypeIRI, iri("Person"))))
	assert.True(t, model.Contains(triple.T(alice, iri("KNOWS"), bob)))
	assert.True(t, model.Contains(triple.T(alice, iri("age"), triple.NewLiteral("30"))))

	// Original namespaces and datatypes do not come back.
	assert.False(t, model.Contains(triple.T(alice, triple.NewIRI("http://xmlns.com/foaf/0.1/knows"), bob)))
	assert.False(t, model.Contains(triple.T(alice, iri("age"), triple.NewTypedLiteral("30", triple.XSDInteger))))

	// Importing the export into a fresh store does not restore them either.
	fresh := newStore(t)
	_, err = graph.NewImporter(fresh, graph.ImportOptions{}, nil).Import(ctx, model)
	require.NoError(t, err)

	nodes, err := fresh.Nodes(ctx, 0)
	require.NoError(t, err)
	keys := make(map[string]graph.StoredNode)
	for _, n := range nodes {
		keys[n.Key] = n
		for name := range n.Properties {
			assert.NotContains(t, name, "foaf")
		}
	}
	assert.Equal(t, []string{"Person"}, keys["http://people.example/alice"].Labels)
	// The class now lives under the export namespace.
	assert.Contains(t, keys, ont+"Person")

	edges, err := fresh.Edges(ctx, 0)
	require.NoError(t, err)
	types := make(map[string]bool)
	for _, e := range edges {
		types[e.Type] = true
	}
	assert.True(t, types["KNOWS"])
	assert.False(t, types["knows"])

	again, err := graph.NewExporter(fresh, graph.ExportOptions{}, nil).Export(ctx)
	require.NoError(t, err)
	foafPerson := triple.NewIRI("http://xmlns.com/foaf/0.1/Person")
	assert.False(t, again.Contains(triple.T(alice, triple.TypeIRI, foafPerson)))
	assert.False(t, again.Contains(triple.T(alice, triple.NewIRI("http://xmlns.com/foaf/0.1/knows"), bob)))
	assert.True(t, again.Contains(triple.T(alice, iri("KNOWS"), bob)))
}

func TestExportBlankNodes(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	key := triple.BlankKeyPrefix + "abcd1234_b0"
	require.NoError(t, store.UpsertNode(ctx, key))
	require.NoError(t, store.UpsertNode(ctx, ont+"Alice"))
	require.NoError(t, store.SetProperty(ctx, key, "name", "anon"))
	require.NoError(t, store.MergeEdge(ctx, ont+"Alice", key, "KNOWS"))

	model, err := graph.NewExporter(store, graph.ExportOptions{}, nil).Export(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, model.Len())

	var blank triple.Term
	for _, tr := range model.Triples() {
		if tr.P == iri("name") {
			blank = tr.S
		}
	}
	require.True(t, blank.IsBlank())
	// The same key maps to the same resource within one export.
	assert.True(t, model.Contains(triple.T(iri("Alice"), iri("KNOWS"), blank)))
}

func TestExportToTurtle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := graph.NewImporter(store, graph.ImportOptions{}, nil).Import(ctx, parseTurtle(t, people))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, graph.NewExporter(store, graph.ExportOptions{}, nil).ExportTo(ctx, &buf, triple.Turtle))
	assert.True(t, strings.Contains(buf.String(), "FRIENDOF"))

	back, err := triple.Parse(ctx, buf.Bytes(), triple.Turtle)
	require.NoError(t, err)
	assert.True(t, back.Contains(triple.T(iri("Alice"), iri("FRIENDOF"), iri("Bob"))))
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := graph.NewImporter(store, graph.ImportOptions{}, nil).Import(ctx, parseTurtle(t, people))
	require.NoError(t, err)

	g, err := graph.NewProjector(store, graph.ProjectorOptions{}, nil).Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
	assert.ElementsMatch(t, []graph.Link{
		{Source: ont + "Alice", Target: ont + "Bob", Type: "FRIENDOF"},
		{Source: ont + "Alice", Target: ont + "Person", Type: "TYPE"},
		{Source: ont + "Bob", Target: ont + "Person", Type: "TYPE"},
	}, g.Links)
	assert.False(t, g.Meta.Truncated)
	assert.Equal(t, []graph.NodeTypeInfo{{Type: "Person", Count: 2}}, g.Meta.NodeTypes)
	assert.Equal(t, []graph.RelationshipTypeInfo{{Type: "TYPE", Count: 2}, {Type: "FRIENDOF", Count: 1}}, g.Meta.RelationshipTypes)
}

func TestSnapshotTruncates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for _, k := range []string{"urn:a", "urn:b", "urn:c"} {
		require.NoError(t, store.UpsertNode(ctx, k))
	}
	require.NoError(t, store.MergeEdge(ctx, "urn:a", "urn:c", "NEXT"))

	g, err := graph.NewProjector(store, graph.ProjectorOptions{NodeLimit: 1, EdgeLimit: 10}, nil).Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
	assert.True(t, g.Meta.Truncated)
	assert.Equal(t, 3, g.Meta.Stats.TotalNodes)
	// Dangling link kept: urn:c is outside the node window.
	require.Len(t, g.Links, 1)
	assert.Equal(t, "urn:c", g.Links[0].Target)
}

func TestStoredNodeDisplayID(t *testing.T) {
	assert.Equal(t, "urn:a", graph.StoredNode{InternalID: "7", Key: "urn:a"}.DisplayID())
	assert.Equal(t, "node_7", graph.StoredNode{InternalID: "7"}.DisplayID())
	assert.Equal(t, "node_9", graph.StoredEdge{TargetID: "9"}.TargetDisplayID())
}

// failingStore fails MergeEdge so pass 2 breaks after pass 1 has written.
type failingStore struct {
	*sqlitestore.Store
}

func (f failingStore) MergeEdge(ctx context.Context, from, to, relType string) error {
	return errors.WrapGraphStore(errors.New("connection reset"), "failed to merge edge")
}

func TestImportPartialFailureReportsProgress(t *testing.T) {
	ctx := context.Background()
	inner := newStore(t)
	// failingStore does not promote Batch, so the import is not atomic.
	var s graph.Store = struct {
		graph.Store
	}{failingStore{inner}}

	stats, err := graph.NewImporter(s, graph.ImportOptions{Atomic: true}, nil).Import(ctx, parseTurtle(t, people))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGraphStore))
	assert.Contains(t, err.Error(), "import pass 2")
	assert.Equal(t, 3, stats.Nodes)

	nodes, _, err := inner.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, nodes, "pass 1 writes stay without a transaction")
}

// batchingFailingStore routes Batch through the sqlite transaction but
// fails edge merges inside it.
type batchingFailingStore struct {
	*sqlitestore.Store
}

func (b batchingFailingStore) Batch(ctx context.Context, fn func(tx graph.Store) error) error {
	return b.Store.Batch(ctx, func(tx graph.Store) error {
		return fn(failingStore{tx.(*sqlitestore.Store)})
	})
}

func TestAtomicImportRollsBack(t *testing.T) {
	ctx := context.Background()
	inner := newStore(t)

	stats, err := graph.NewImporter(batchingFailingStore{inner}, graph.ImportOptions{Atomic: true}, nil).
		Import(ctx, parseTurtle(t, people))
	require.Error(t, err)
	assert.Zero(t, stats.Nodes)

	nodes, edges, err := inner.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}
