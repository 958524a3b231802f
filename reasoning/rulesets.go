package reasoning

import (
	"context"
	"embed"
	"strings"
	"sync"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/triple"
)

//go:embed rules/*.rules
var ruleFiles embed.FS

// Each profile extends the one before it.
var profileFiles = map[ReasonerType][]string{
	RDFS:     {"rdfs.rules"},
	OWLMicro: {"rdfs.rules", "owl_micro.rules"},
	OWLMini:  {"rdfs.rules", "owl_micro.rules", "owl_mini.rules"},
	OWL:      {"rdfs.rules", "owl_micro.rules", "owl_mini.rules", "owl.rules"},
}

var (
	profilesOnce sync.Once
	profiles     map[ReasonerType]*RuleSet
	profilesErr  error
)

func loadProfiles() {
	parsed := make(map[string]*RuleSet)
	profiles = make(map[ReasonerType]*RuleSet, len(profileFiles))
	for rt, files := range profileFiles {
		sets := make([]*RuleSet, 0, len(files))
		for _, name := range files {
			rs, ok := parsed[name]
			if !ok {
				data, err := ruleFiles.ReadFile("rules/" + name)
				if err != nil {
					profilesErr = errors.Wrapf(err, "read embedded rules %s", name)
					return
				}
				if rs, err = ParseRules(string(data)); err != nil {
					profilesErr = errors.Wrapf(err, "parse embedded rules %s", name)
					return
				}
				parsed[name] = rs
			}
			sets = append(sets, rs)
		}
		profiles[rt] = Concat(sets...)
	}
}

// BuiltinRuleSet returns the embedded rule set of a built-in reasoner type.
func BuiltinRuleSet(rt ReasonerType) (*RuleSet, error) {
	profilesOnce.Do(loadProfiles)
	if profilesErr != nil {
		return nil, profilesErr
	}
	rs, ok := profiles[rt]
	if !ok {
		return nil, errors.NewReasonerSelectionError("%s has no built-in rule set", rt)
	}
	return rs, nil
}

// Reasoner derives the entailments of a model. Implementations are
// selected by ReasonerType through NewReasoner.
type Reasoner interface {
	Type() ReasonerType
	Infer(ctx context.Context, base *triple.Model) (*triple.Model, InferenceStats, error)
}

// RuleReasoner runs a fixed rule set with the forward-chaining engine.
type RuleReasoner struct {
	typ    ReasonerType
	rules  *RuleSet
	limits Limits
}

// NewRuleReasoner wraps rules as a Reasoner reporting typ.
func NewRuleReasoner(typ ReasonerType, rules *RuleSet, limits Limits) *RuleReasoner {
	return &RuleReasoner{typ: typ, rules: rules, limits: limits}
}

func (r *RuleReasoner) Type() ReasonerType { return r.typ }

// Rules returns the rule set the reasoner runs.
func (r *RuleReasoner) Rules() *RuleSet { return r.rules }

func (r *RuleReasoner) Infer(ctx context.Context, base *triple.Model) (*triple.Model, InferenceStats, error) {
	return Infer(ctx, r.rules, base, r.limits)
}

// NewReasoner builds the reasoner for rt. CUSTOM requires customRules and
// fails with errors.ErrReasonerSelection when they are blank, before any
// parsing; invalid rule text fails with errors.ErrRuleSyntax.
func NewReasoner(rt ReasonerType, customRules string, limits Limits) (Reasoner, error) {
	if rt != Custom {
		rs, err := BuiltinRuleSet(rt)
		if err != nil {
			return nil, err
		}
		return NewRuleReasoner(rt, rs, limits), nil
	}
	if strings.TrimSpace(customRules) == "" {
		return nil, errors.WithHint(
			errors.NewReasonerSelectionError("custom rules are required for reasoner type CUSTOM"),
			"send the rules in customRules, or pick RDFS, OWL, OWL_MINI or OWL_MICRO")
	}
	rs, err := ParseRules(customRules)
	if err != nil {
		return nil, errors.Wrap(err, "invalid custom rules")
	}
	return NewRuleReasoner(Custom, rs, limits), nil
}
