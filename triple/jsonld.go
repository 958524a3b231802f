package triple

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/piprate/json-gold/ld"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/internal/httpclient"
)

// contextLoader fetches remote @context documents. Payloads come from
// API callers, so only public hosts are reachable.
var contextLoader ld.DocumentLoader = ld.NewDefaultDocumentLoader(
	httpclient.New(httpclient.Options{Timeout: 10 * time.Second}))

// parseJSONLD converts a JSON-LD document to triples with the json-gold
// processor. Quads from named graphs are merged into the model.
func parseJSONLD(ctx context.Context, payload []byte, scope *blankScope) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, errors.WrapParse(err, "invalid jsonld")
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = contextLoader
	result, err := proc.ToRDF(doc, opts)
	if err != nil {
		return nil, errors.WrapParse(err, "invalid jsonld")
	}
	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return nil, errors.AssertionFailedf("jsonld: unexpected ToRDF result %T", result)
	}

	graphs := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		graphs = append(graphs, name)
	}
	sort.Strings(graphs)

	m := NewModel()
	for _, name := range graphs {
		for _, q := range dataset.Graphs[name] {
			if q == nil {
				continue
			}
			t, err := fromLDQuad(q, scope)
			if err != nil {
				return nil, errors.WrapParse(err, "jsonld: unsupported statement")
			}
			m.Add(t)
		}
	}
	return m, nil
}

func fromLDQuad(q *ld.Quad, scope *blankScope) (Triple, error) {
	s, err := fromLDNode(q.Subject, scope)
	if err != nil {
		return Triple{}, err
	}
	p, err := fromLDNode(q.Predicate, scope)
	if err != nil {
		return Triple{}, err
	}
	o, err := fromLDNode(q.Object, scope)
	if err != nil {
		return Triple{}, err
	}
	t := Triple{S: s, P: p, O: o}
	return t, t.Validate()
}

func fromLDNode(n ld.Node, scope *blankScope) (Term, error) {
	switch v := n.(type) {
	case ld.IRI:
		return NewIRI(v.Value), nil
	case *ld.IRI:
		return NewIRI(v.Value), nil
	case ld.BlankNode:
		return NewBlank(scope.label(v.Attribute)), nil
	case *ld.BlankNode:
		return NewBlank(scope.label(v.Attribute)), nil
	case ld.Literal:
		return ldLiteral(v), nil
	case *ld.Literal:
		return ldLiteral(*v), nil
	case nil:
		return Term{}, errors.New("missing term")
	default:
		return Term{}, errors.Newf("unexpected jsonld node %T", n)
	}
}

func ldLiteral(l ld.Literal) Term {
	if l.Language != "" {
		return NewLangLiteral(l.Value, l.Language)
	}
	return NewTypedLiteral(l.Value, l.Datatype)
}
