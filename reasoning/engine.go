package reasoning

import (
	"context"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/triple"
)

// Inference bounds used when Limits leaves a field at zero.
const (
	DefaultMaxRounds  = 64
	DefaultMaxTriples = 1_000_000
)

// Limits bounds one inference run.
type Limits struct {
	MaxRounds  int
	MaxTriples int
}

func (l Limits) withDefaults() Limits {
	if l.MaxRounds <= 0 {
		l.MaxRounds = DefaultMaxRounds
	}
	if l.MaxTriples <= 0 {
		l.MaxTriples = DefaultMaxTriples
	}
	return l
}

// InferenceStats describes a finished run.
type InferenceStats struct {
	Rounds  int // rounds evaluated, including the last one that derived nothing
	Derived int
}

// Infer applies rules to base until nothing new is derived and returns
// base plus every derived triple. base is not modified.
//
// Evaluation is semi-naive: after the first round, each rule is only
// re-evaluated with at least one body pattern bound to a triple derived
// in the previous round. Head instantiations that leave a variable
// unbound or put a literal in subject position are dropped. Running past
// the limits fails with errors.ErrValidation; ctx is checked between
// rules.
func Infer(ctx context.Context, rules *RuleSet, base *triple.Model, limits Limits) (*triple.Model, InferenceStats, error) {
	limits = limits.withDefaults()
	result := base.Clone()
	full := newFactIndex(base.Triples())
	var delta *factIndex
	var stats InferenceStats

	for round := 1; ; round++ {
		if round > limits.MaxRounds {
			return nil, stats, errors.WithHintf(
				errors.NewValidationError("inference did not reach a fixpoint within %d rounds", limits.MaxRounds),
				"raise reasoning.max_rounds or check the rules for derivations that never stop")
		}
		stats.Rounds = round

		fresh := triple.NewModel()
		var derived []triple.Triple
		ev := &evaluator{full: full, delta: delta}

		for _, r := range rules.Rules {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			emit := func(b binding) {
				for _, h := range r.Head {
					t, ok := instantiate(h, b)
					if !ok || result.Contains(t) {
						continue
					}
					if fresh.Add(t) {
						derived = append(derived, t)
					}
				}
			}
			if delta == nil {
				ev.solve(r.Body, 0, -1, binding{}, emit)
			} else {
				for i, c := range r.Body {
					if c.Pattern != nil {
						ev.solve(r.Body, 0, i, binding{}, emit)
					}
				}
			}
			if result.Len()+len(derived) > limits.MaxTriples {
				return nil, stats, errors.WithHintf(
					errors.NewValidationError("inference exceeded %d triples", limits.MaxTriples),
					"raise reasoning.max_triples or reason over a smaller model")
			}
		}

		if len(derived) == 0 {
			return result, stats, nil
		}
		for _, t := range derived {
			result.Add(t)
			full.add(t)
		}
		stats.Derived += len(derived)
		delta = newFactIndex(derived)
	}
}

func instantiate(p Pattern, b binding) (triple.Triple, bool) {
	s, ok1 := b.resolve(p.S)
	pr, ok2 := b.resolve(p.P)
	o, ok3 := b.resolve(p.O)
	if !ok1 || !ok2 || !ok3 {
		return triple.Triple{}, false
	}
	t := triple.T(s, pr, o)
	return t, t.Validate() == nil
}

type evaluator struct {
	full  *factIndex
	delta *factIndex
}

// solve matches body[i:] left to right. The pattern at deltaAt is
// matched against the previous round's derivations only.
func (ev *evaluator) solve(body []Clause, i, deltaAt int, b binding, emit func(binding)) {
	if i == len(body) {
		emit(b)
		return
	}
	c := body[i]
	if c.Call != nil {
		if nb, ok := builtins[c.Call.Name].fn(c.Call.Args, b, ev.full); ok {
			ev.solve(body, i+1, deltaAt, nb, emit)
		}
		return
	}
	idx := ev.full
	if i == deltaAt {
		idx = ev.delta
	}
	idx.match(*c.Pattern, b, func(nb binding) bool {
		ev.solve(body, i+1, deltaAt, nb, emit)
		return true
	})
}

// binding maps variable names to terms. It is never mutated once shared;
// unify copies.
type binding map[string]triple.Term

func (b binding) resolve(n Node) (triple.Term, bool) {
	if !n.IsVar() {
		return n.Term, true
	}
	t, ok := b[n.Var]
	return t, ok
}

func (b binding) unify(n Node, t triple.Term) (binding, bool) {
	if !n.IsVar() {
		return b, n.Term == t
	}
	if cur, ok := b[n.Var]; ok {
		return b, cur == t
	}
	nb := make(binding, len(b)+1)
	for k, v := range b {
		nb[k] = v
	}
	nb[n.Var] = t
	return nb, true
}

// factIndex holds triples indexed by subject, predicate and object.
type factIndex struct {
	list   []triple.Triple
	bySubj map[triple.Term][]triple.Triple
	byPred map[triple.Term][]triple.Triple
	byObj  map[triple.Term][]triple.Triple
}

func newFactIndex(ts []triple.Triple) *factIndex {
	idx := &factIndex{
		bySubj: make(map[triple.Term][]triple.Triple),
		byPred: make(map[triple.Term][]triple.Triple),
		byObj:  make(map[triple.Term][]triple.Triple),
	}
	for _, t := range ts {
		idx.add(t)
	}
	return idx
}

func (idx *factIndex) add(t triple.Triple) {
	idx.list = append(idx.list, t)
	idx.bySubj[t.S] = append(idx.bySubj[t.S], t)
	idx.byPred[t.P] = append(idx.byPred[t.P], t)
	idx.byObj[t.O] = append(idx.byObj[t.O], t)
}

// candidates picks the smallest bucket reachable from the bound
// positions of pat.
func (idx *factIndex) candidates(pat Pattern, b binding) []triple.Triple {
	best := idx.list
	try := func(n Node, m map[triple.Term][]triple.Triple) {
		if t, ok := b.resolve(n); ok {
			if bucket := m[t]; len(bucket) < len(best) {
				best = bucket
			}
		}
	}
	try(pat.P, idx.byPred)
	try(pat.S, idx.bySubj)
	try(pat.O, idx.byObj)
	return best
}

// match calls fn with every extension of b that unifies pat with a
// stored triple, until fn returns false.
func (idx *factIndex) match(pat Pattern, b binding, fn func(binding) bool) {
	if idx == nil {
		return
	}
	for _, t := range idx.candidates(pat, b) {
		nb, ok := b.unify(pat.S, t.S)
		if !ok {
			continue
		}
		if nb, ok = nb.unify(pat.P, t.P); !ok {
			continue
		}
		if nb, ok = nb.unify(pat.O, t.O); !ok {
			continue
		}
		if !fn(nb) {
			return
		}
	}
}
