// Package triple holds the RDF side of the bridge: terms, triples, the
// in-memory Model, format detection, parsing/serialization and the identity
// rules that turn RDF resources into property-graph node keys.
package triple

import (
	"strconv"
	"strings"

	"github.com/teranos/kgbridge/errors"
)

// Kind tags the variant held by a Term.
type Kind uint8

const (
	KindIRI Kind = iota + 1
	KindBlank
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "invalid"
	}
}

// Term is an RDF term. It is comparable, so triples can key maps directly.
//
// Value holds the IRI, the blank-node label, or the literal's lexical form.
// Datatype and Lang are only meaningful for literals; simple literals carry
// an empty Datatype.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

// NewIRI returns an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewBlank returns a blank node term with the given scoped label.
func NewBlank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// NewLiteral returns a simple literal.
func NewLiteral(lexical string) Term {
	return Term{Kind: KindLiteral, Value: lexical}
}

// NewTypedLiteral returns a literal with a datatype. xsd:string and
// rdf:langString collapse to a simple literal so equal values compare equal
// regardless of which parser produced them.
func NewTypedLiteral(lexical, datatype string) Term {
	if datatype == XSDString || datatype == RDFLangString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: lexical, Datatype: datatype}
}

// NewLangLiteral returns a language-tagged literal.
func NewLangLiteral(lexical, lang string) Term {
	return Term{Kind: KindLiteral, Value: lexical, Lang: strings.ToLower(lang)}
}

func (t Term) IsIRI() bool      { return t.Kind == KindIRI }
func (t Term) IsBlank() bool    { return t.Kind == KindBlank }
func (t Term) IsLiteral() bool  { return t.Kind == KindLiteral }
func (t Term) IsResource() bool { return t.Kind == KindIRI || t.Kind == KindBlank }

// Numeric parses the lexical form of a literal as a number.
func (t Term) Numeric() (float64, bool) {
	if t.Kind != KindLiteral {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	return f, err == nil
}

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := strconv.Quote(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return "?"
	}
}

// Triple is one RDF statement.
type Triple struct {
	S, P, O Term
}

// T is shorthand for building a triple.
func T(s, p, o Term) Triple {
	return Triple{S: s, P: p, O: o}
}

// Validate checks the RDF positional constraints.
func (t Triple) Validate() error {
	if !t.S.IsResource() {
		return errors.Newf("subject must be an IRI or blank node, got %s", t.S.Kind)
	}
	if !t.P.IsIRI() {
		return errors.Newf("predicate must be an IRI, got %s", t.P.Kind)
	}
	if t.O.Kind == 0 {
		return errors.New("object is empty")
	}
	return nil
}

func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

func compareTerms(a, b Term) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	if c := strings.Compare(a.Datatype, b.Datatype); c != 0 {
		return c
	}
	return strings.Compare(a.Lang, b.Lang)
}

func compareTriples(a, b Triple) int {
	if c := compareTerms(a.S, b.S); c != 0 {
		return c
	}
	if c := compareTerms(a.P, b.P); c != 0 {
		return c
	}
	return compareTerms(a.O, b.O)
}
