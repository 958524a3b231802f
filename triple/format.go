package triple

import (
	"bytes"
	"strings"

	"github.com/teranos/kgbridge/errors"
)

// Format is an RDF concrete syntax.
type Format string

const (
	Turtle   Format = "turtle"
	RDFXML   Format = "rdfxml"
	JSONLD   Format = "jsonld"
	NTriples Format = "ntriples"
	N3       Format = "n3"
)

// ContentType returns the media type for f.
func (f Format) ContentType() string {
	switch f {
	case RDFXML:
		return "application/rdf+xml"
	case JSONLD:
		return "application/ld+json"
	case NTriples:
		return "application/n-triples"
	case N3:
		return "text/n3"
	default:
		return "text/turtle"
	}
}

// Detection sources
const (
	SourceContentType = "content-type"
	SourceContent     = "content"
	SourceDefault     = "default"
)

// Detection is the outcome of DetectFormat. Source tells which rule decided.
type Detection struct {
	Format Format `json:"format"`
	Source string `json:"source"`
}

// Ambiguous reports whether neither the hint nor the payload decided the format.
func (d Detection) Ambiguous() bool {
	return d.Source == SourceDefault
}

// DetectFormat picks the syntax for payload. A content-type hint is matched
// first; otherwise the payload is sniffed. It never fails: unrecognized input
// is reported as Turtle and left for the parser to reject.
func DetectFormat(payload []byte, contentType string) Detection {
	if f, ok := formatFromContentType(contentType); ok {
		return Detection{Format: f, Source: SourceContentType}
	}

	trimmed := bytes.TrimSpace(payload)
	switch {
	case bytes.HasPrefix(trimmed, []byte("<?xml")), bytes.HasPrefix(trimmed, []byte("<rdf:RDF")):
		return Detection{Format: RDFXML, Source: SourceContent}
	case bytes.HasPrefix(trimmed, []byte("{")):
		return Detection{Format: JSONLD, Source: SourceContent}
	case bytes.Contains(trimmed, []byte("@prefix")), bytes.Contains(trimmed, []byte("@base")):
		return Detection{Format: Turtle, Source: SourceContent}
	}
	return Detection{Format: Turtle, Source: SourceDefault}
}

func formatFromContentType(contentType string) (Format, bool) {
	if contentType == "" {
		return "", false
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "rdf+xml"), strings.Contains(ct, "application/xml"):
		return RDFXML, true
	case strings.Contains(ct, "turtle"):
		return Turtle, true
	case strings.Contains(ct, "ld+json"):
		return JSONLD, true
	case strings.Contains(ct, "n-triples"):
		return NTriples, true
	case strings.Contains(ct, "n3"):
		return N3, true
	}
	return "", false
}

// ParseFormatName maps a user-supplied name (CLI flag, file extension) to a Format.
func ParseFormatName(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "turtle", "ttl":
		return Turtle, nil
	case "rdfxml", "rdf", "xml", "owl":
		return RDFXML, nil
	case "jsonld", "json-ld", "json":
		return JSONLD, nil
	case "ntriples", "n-triples", "nt":
		return NTriples, nil
	case "n3":
		return N3, nil
	}
	return "", errors.NewValidationError("unknown RDF format %q", name)
}
