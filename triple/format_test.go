package triple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/kgbridge/errors"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		contentType string
		want        Format
		source      string
	}{
		{"rdfxml content type", "", "application/rdf+xml", RDFXML, SourceContentType},
		{"plain xml content type", "", "application/xml; charset=utf-8", RDFXML, SourceContentType},
		{"turtle content type", "{}", "text/turtle", Turtle, SourceContentType},
		{"jsonld content type", "", "application/ld+json", JSONLD, SourceContentType},
		{"ntriples content type", "", "application/n-triples", NTriples, SourceContentType},
		{"n3 content type", "", "text/n3", N3, SourceContentType},
		{"xml declaration", "  <?xml version=\"1.0\"?><rdf:RDF/>", "", RDFXML, SourceContent},
		{"bare rdf root", "<rdf:RDF xmlns:rdf=\"x\"/>", "", RDFXML, SourceContent},
		{"json object", "\n{\"@id\": \"x\"}", "", JSONLD, SourceContent},
		{"prefix directive", "@prefix ex: <http://example.org/> .", "", Turtle, SourceContent},
		{"base directive", "@base <http://example.org/> .", "", Turtle, SourceContent},
		{"unrecognized hint falls back to content", "{}", "text/plain", JSONLD, SourceContent},
		{"nothing recognizable", "<a> <b> <c> .", "", Turtle, SourceDefault},
		{"empty", "", "", Turtle, SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFormat([]byte(tt.payload), tt.contentType)
			assert.Equal(t, tt.want, got.Format)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.source == SourceDefault, got.Ambiguous())
		})
	}
}

func TestDetectFormatJSONArrayIsNotJSONLD(t *testing.T) {
	got := DetectFormat([]byte(`[{"@id": "x"}]`), "")
	assert.Equal(t, Turtle, got.Format)
	assert.True(t, got.Ambiguous())
}

func TestParseFormatName(t *testing.T) {
	for name, want := range map[string]Format{
		"ttl":       Turtle,
		".TTL":      Turtle,
		"rdf":       RDFXML,
		"owl":       RDFXML,
		"json-ld":   JSONLD,
		"nt":        NTriples,
		"n-triples": NTriples,
		"n3":        N3,
	} {
		got, err := ParseFormatName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseFormatName("csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/turtle", Turtle.ContentType())
	assert.Equal(t, "application/rdf+xml", RDFXML.ContentType())
	assert.Equal(t, "application/ld+json", JSONLD.ContentType())
}
