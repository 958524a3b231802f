package triple

import "sort"

// Model is a set of triples. Membership is by value equality of all three
// terms; insertion order is not kept. A Model is not safe for concurrent
// mutation.
type Model struct {
	set map[Triple]struct{}
}

// NewModel returns a model holding the given triples.
func NewModel(triples ...Triple) *Model {
	m := &Model{set: make(map[Triple]struct{}, len(triples))}
	for _, t := range triples {
		m.set[t] = struct{}{}
	}
	return m
}

// Add inserts t and reports whether it was new.
func (m *Model) Add(t Triple) bool {
	if m.set == nil {
		m.set = make(map[Triple]struct{})
	}
	if _, ok := m.set[t]; ok {
		return false
	}
	m.set[t] = struct{}{}
	return true
}

// AddAll inserts every triple of other and returns how many were new.
func (m *Model) AddAll(other *Model) int {
	added := 0
	for t := range other.set {
		if m.Add(t) {
			added++
		}
	}
	return added
}

// Contains reports whether t is in the model.
func (m *Model) Contains(t Triple) bool {
	_, ok := m.set[t]
	return ok
}

// Len returns the number of triples.
func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return len(m.set)
}

// Each calls fn for every triple in unspecified order.
func (m *Model) Each(fn func(Triple)) {
	for t := range m.set {
		fn(t)
	}
}

// Triples returns the triples in a deterministic order.
func (m *Model) Triples() []Triple {
	out := make([]Triple, 0, len(m.set))
	for t := range m.set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return compareTriples(out[i], out[j]) < 0 })
	return out
}

// Difference returns the triples of m that are not in other.
func (m *Model) Difference(other *Model) *Model {
	out := NewModel()
	for t := range m.set {
		if !other.Contains(t) {
			out.set[t] = struct{}{}
		}
	}
	return out
}

// Union returns a new model holding the triples of both.
func (m *Model) Union(other *Model) *Model {
	out := m.Clone()
	out.AddAll(other)
	return out
}

// Clone returns an independent copy.
func (m *Model) Clone() *Model {
	out := &Model{set: make(map[Triple]struct{}, len(m.set))}
	for t := range m.set {
		out.set[t] = struct{}{}
	}
	return out
}

// WithPredicate returns the triples using predicate p, ordered.
func (m *Model) WithPredicate(p string) []Triple {
	var out []Triple
	for t := range m.set {
		if t.P.Kind == KindIRI && t.P.Value == p {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return compareTriples(out[i], out[j]) < 0 })
	return out
}
