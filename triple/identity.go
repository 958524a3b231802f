package triple

import (
	"strings"
)

// BlankKeyPrefix marks node keys minted for blank nodes. Well-formed IRIs
// always start with a scheme, so no IRI key can carry it.
const BlankKeyPrefix = "_bnode_"

// IdentityProperty is the node property that stores the node key.
const IdentityProperty = "iri"

// NodeKey maps a resource term to its property-graph node key.
// Literals have no key.
func NodeKey(t Term) (string, bool) {
	switch t.Kind {
	case KindIRI:
		return t.Value, true
	case KindBlank:
		return BlankKeyPrefix + t.Value, true
	default:
		return "", false
	}
}

// IsBlankKey reports whether key was minted for a blank node.
func IsBlankKey(key string) bool {
	return strings.HasPrefix(key, BlankKeyPrefix)
}

// LocalName returns the part of iri after the last '#' or '/'. When there
// is no separator, or it is the final character, the whole iri is returned.
func LocalName(iri string) string {
	idx := strings.LastIndexAny(iri, "#/")
	if idx >= 0 && idx+1 < len(iri) {
		return iri[idx+1:]
	}
	return iri
}

// SanitizeLabel replaces every character outside [A-Za-z0-9_] with '_'.
func SanitizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// LabelFor derives a node label from an rdf:type value.
func LabelFor(typeValue string) string {
	return SanitizeLabel(LocalName(typeValue))
}

// PropertyName derives a node property name from a predicate IRI.
func PropertyName(predicate string) string {
	return SanitizeLabel(LocalName(predicate))
}

// RelationshipType derives an edge type from a predicate IRI.
func RelationshipType(predicate string) string {
	return strings.ToUpper(SanitizeLabel(LocalName(predicate)))
}
