package reasoning

import (
	"strings"

	"github.com/teranos/kgbridge/triple"
)

// Node is a rule argument: a variable or a concrete term.
type Node struct {
	Var  string // variable name without '?'; empty for concrete terms
	Term triple.Term
}

// V returns a variable node.
func V(name string) Node { return Node{Var: name} }

// C returns a concrete node.
func C(t triple.Term) Node { return Node{Term: t} }

func (n Node) IsVar() bool { return n.Var != "" }

func (n Node) String() string {
	if n.IsVar() {
		return "?" + n.Var
	}
	t := n.Term
	switch t.Kind {
	case triple.KindIRI:
		return "<" + t.Value + ">"
	case triple.KindBlank:
		return "_:" + t.Value
	}
	switch {
	case t.Lang != "":
		return quoteRuleString(t.Value) + "@" + t.Lang
	case t.Datatype == triple.XSDInteger || t.Datatype == triple.XSDDecimal || t.Datatype == triple.XSDDouble:
		return t.Value
	case t.Datatype != "":
		return quoteRuleString(t.Value) + "^^<" + t.Datatype + ">"
	default:
		return quoteRuleString(t.Value)
	}
}

func quoteRuleString(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`).Replace(s) + "'"
}

// Pattern is a triple pattern.
type Pattern struct {
	S, P, O Node
}

func (p Pattern) String() string {
	return "(" + p.S.String() + " " + p.P.String() + " " + p.O.String() + ")"
}

// Call is a builtin invocation in a rule body.
type Call struct {
	Name string
	Args []Node
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// Clause is one body element: exactly one of Pattern or Call is set.
type Clause struct {
	Pattern *Pattern
	Call    *Call
}

func (c Clause) String() string {
	if c.Call != nil {
		return c.Call.String()
	}
	return c.Pattern.String()
}

// Rule is a forward rule: when every body clause holds, every head
// pattern is asserted.
type Rule struct {
	Name string
	Body []Clause
	Head []Pattern
}

// BodyString renders the body in rule syntax.
func (r Rule) BodyString() string {
	parts := make([]string, len(r.Body))
	for i, c := range r.Body {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// HeadString renders the head in rule syntax.
func (r Rule) HeadString() string {
	parts := make([]string, len(r.Head))
	for i, p := range r.Head {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

func (r Rule) String() string {
	name := ""
	if r.Name != "" {
		name = r.Name + ": "
	}
	return "[" + name + r.BodyString() + " -> " + r.HeadString() + "]"
}

// RuleSet is an ordered list of rules.
type RuleSet struct {
	Rules []Rule
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rules)
}

// Concat returns a rule set holding the rules of every argument in order.
func Concat(sets ...*RuleSet) *RuleSet {
	out := &RuleSet{}
	for _, s := range sets {
		if s != nil {
			out.Rules = append(out.Rules, s.Rules...)
		}
	}
	return out
}
