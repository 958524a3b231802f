package triple

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/kgbridge/errors"
)

const aliceTurtle = `@prefix ex: <http://example.org/ont#> .
ex:Alice ex:friendOf ex:Bob .
ex:Alice ex:age 30 .
ex:Alice ex:name "Alice" .
`

func TestParseTurtle(t *testing.T) {
	m, err := Parse(context.Background(), []byte(aliceTurtle), Turtle)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Contains(T(exIRI("Alice"), exIRI("friendOf"), exIRI("Bob"))))
	assert.True(t, m.Contains(T(exIRI("Alice"), exIRI("name"), NewLiteral("Alice"))))
	assert.True(t, m.Contains(T(exIRI("Alice"), exIRI("age"), NewTypedLiteral("30", XSDInteger))))
}

func TestParseRejectsMalformedTurtle(t *testing.T) {
	_, err := Parse(context.Background(), []byte("@prefix ex: <http://example.org/> .\nex:a ex:b"), Turtle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestParseScopesBlankNodesPerCall(t *testing.T) {
	doc := []byte(`_:b0 <http://example.org/ont#p> "x" .`)
	m1, err := Parse(context.Background(), doc, NTriples)
	require.NoError(t, err)
	m2, err := Parse(context.Background(), doc, NTriples)
	require.NoError(t, err)

	s1 := m1.Triples()[0].S
	s2 := m2.Triples()[0].S
	assert.True(t, s1.IsBlank())
	assert.True(t, strings.HasSuffix(s1.Value, "_b0"))
	assert.NotEqual(t, s1, s2)
}

func TestParseSameBlankWithinOneCall(t *testing.T) {
	doc := []byte(`_:b0 <http://example.org/ont#p> _:b1 .
_:b1 <http://example.org/ont#p> _:b0 .
`)
	m, err := Parse(context.Background(), doc, NTriples)
	require.NoError(t, err)
	got := m.Triples()
	require.Len(t, got, 2)
	assert.Equal(t, got[0].S, got[1].O)
	assert.Equal(t, got[0].O, got[1].S)
}

func TestParseJSONLD(t *testing.T) {
	doc := []byte(`{
  "@context": {"ex": "http://example.org/ont#"},
  "@id": "ex:Alice",
  "@type": "ex:Person",
  "ex:friendOf": {"@id": "ex:Bob"},
  "ex:name": "Alice"
}`)
	m, err := Parse(context.Background(), doc, JSONLD)
	require.NoError(t, err)
	assert.True(t, m.Contains(T(exIRI("Alice"), TypeIRI, exIRI("Person"))))
	assert.True(t, m.Contains(T(exIRI("Alice"), exIRI("friendOf"), exIRI("Bob"))))
	assert.True(t, m.Contains(T(exIRI("Alice"), exIRI("name"), NewLiteral("Alice"))))
}

func TestParseJSONLDRejectsBadJSON(t *testing.T) {
	_, err := Parse(context.Background(), []byte(`{"@id": `), JSONLD)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestParseJSONLDBlocksPrivateContext(t *testing.T) {
	doc := []byte(`{"@context": "http://127.0.0.1:9/context.jsonld", "@id": "http://e/a", "http://e/p": "x"}`)
	_, err := Parse(context.Background(), doc, JSONLD)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestSerializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, err := Parse(ctx, []byte(aliceTurtle), Turtle)
	require.NoError(t, err)

	for _, f := range []Format{Turtle, NTriples} {
		t.Run(string(f), func(t *testing.T) {
			out, err := SerializeString(ctx, m, f, SerializeOptions{Prefixes: map[string]string{"ex": ex}})
			require.NoError(t, err)

			back, err := Parse(ctx, []byte(out), f)
			require.NoError(t, err)
			assert.Equal(t, m.Triples(), back.Triples())
		})
	}
}

func TestSerializeUnsupportedFormat(t *testing.T) {
	_, err := SerializeString(context.Background(), NewModel(), RDFXML, SerializeOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
