package triple

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/google/uuid"

	"github.com/teranos/kgbridge/errors"
)

// Parse decodes payload in the given format into a Model.
//
// Blank-node labels are rescoped for every call, so `_:b0` from two
// different payloads never collide once imported. Any syntax failure is
// marked errors.ErrParse and carries the parser's line/column when known.
func Parse(ctx context.Context, payload []byte, format Format) (*Model, error) {
	scope := newBlankScope()

	if format == JSONLD {
		return parseJSONLD(ctx, payload, scope)
	}

	quads, err := rdf.ParseAny(ctx, bytes.NewReader(payload), parserName(format), rdf.AnyFormatOptions{})
	if err != nil {
		return nil, wrapParseError(err, format)
	}

	m := NewModel()
	for _, q := range quads {
		// Named graphs are flattened into the default graph.
		t, err := fromQuad(q, scope)
		if err != nil {
			return nil, errors.WrapParse(err, string(format)+": unsupported statement")
		}
		m.Add(t)
	}
	return m, nil
}

// parserName maps our formats onto the decoder names. N3 documents in the
// wild are overwhelmingly Turtle, which the Turtle decoder accepts.
func parserName(f Format) string {
	switch f {
	case N3:
		return string(Turtle)
	default:
		return string(f)
	}
}

func wrapParseError(err error, format Format) error {
	var pe *rdf.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		wrapped := errors.WrapParse(err, "invalid "+string(format))
		return errors.WithDetailf(wrapped, "line %d, column %d", pe.Line, pe.Column)
	}
	return errors.WrapParse(err, "invalid "+string(format))
}

// blankScope hands out call-unique labels for parser blank-node ids.
type blankScope struct {
	prefix string
	labels map[string]string
}

func newBlankScope() *blankScope {
	return &blankScope{
		prefix: strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		labels: make(map[string]string),
	}
}

func (s *blankScope) label(id string) string {
	id = strings.TrimPrefix(id, "_:")
	if l, ok := s.labels[id]; ok {
		return l
	}
	l := s.prefix + "_" + SanitizeLabel(id)
	s.labels[id] = l
	return l
}

func fromQuad(q rdf.Quad, scope *blankScope) (Triple, error) {
	s, err := fromTerm(q.S, scope)
	if err != nil {
		return Triple{}, err
	}
	o, err := fromTerm(q.O, scope)
	if err != nil {
		return Triple{}, err
	}
	t := Triple{S: s, P: NewIRI(q.P.Value), O: o}
	return t, t.Validate()
}

func fromTerm(term rdf.Term, scope *blankScope) (Term, error) {
	switch v := term.(type) {
	case rdf.IRI:
		return NewIRI(v.Value), nil
	case rdf.BlankNode:
		return NewBlank(scope.label(v.ID)), nil
	case rdf.Literal:
		if v.Lang != "" {
			return NewLangLiteral(v.Lexical, v.Lang), nil
		}
		return NewTypedLiteral(v.Lexical, v.Datatype.Value), nil
	case nil:
		return Term{}, errors.New("missing term")
	default:
		return Term{}, errors.Newf("quoted triples are not supported: %s", term.String())
	}
}

func toTerm(t Term) rdf.Term {
	switch t.Kind {
	case KindIRI:
		return rdf.IRI{Value: t.Value}
	case KindBlank:
		return rdf.BlankNode{ID: t.Value}
	default:
		return rdf.Literal{Lexical: t.Value, Datatype: rdf.IRI{Value: t.Datatype}, Lang: t.Lang}
	}
}

// SerializeOptions tunes Serialize.
type SerializeOptions struct {
	// Prefixes are emitted as @prefix lines in Turtle output. The standard
	// rdf/rdfs/owl/xsd prefixes are always included.
	Prefixes map[string]string
}

// Serialize writes m to w as Turtle or N-Triples, in deterministic order.
func Serialize(ctx context.Context, w io.Writer, m *Model, format Format, opts SerializeOptions) error {
	quads := make([]rdf.Quad, 0, m.Len())
	for _, t := range m.Triples() {
		quads = append(quads, rdf.Quad{S: toTerm(t.S), P: rdf.IRI{Value: t.P.Value}, O: toTerm(t.O)})
	}

	var anyOpts rdf.AnyFormatOptions
	switch format {
	case Turtle, N3:
		prefixes := make(map[string]string, len(StandardPrefixes)+len(opts.Prefixes))
		for p, ns := range StandardPrefixes {
			prefixes[p] = ns
		}
		for p, ns := range opts.Prefixes {
			prefixes[p] = ns
		}
		anyOpts.Turtle = &rdf.TurtleEncodeOptions{Pretty: true, Prefixes: prefixes}
		format = Turtle
	case NTriples:
	default:
		return errors.NewValidationError("serialization to %s is not supported", format)
	}

	if err := rdf.SerializeAny(ctx, w, string(format), quads, anyOpts); err != nil {
		return errors.Wrapf(err, "failed to serialize %d triples as %s", len(quads), format)
	}
	return nil
}

// SerializeString is Serialize into a string.
func SerializeString(ctx context.Context, m *Model, format Format, opts SerializeOptions) (string, error) {
	var buf bytes.Buffer
	if err := Serialize(ctx, &buf, m, format, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}
