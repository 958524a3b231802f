package reasoning

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/triple"
)

// builtinFunc evaluates a call under b. It returns the (possibly
// extended) binding and whether the call succeeded.
type builtinFunc func(args []Node, b binding, facts *factIndex) (binding, bool)

type builtin struct {
	minArgs int
	maxArgs int // -1 for no upper bound
	fn      builtinFunc
}

func (s builtin) checkArity(c Call) error {
	n := len(c.Args)
	switch {
	case n < s.minArgs:
		return errors.Newf("%s expects at least %d arguments, got %d", c.Name, s.minArgs, n)
	case s.maxArgs >= 0 && n > s.maxArgs:
		return errors.Newf("%s expects at most %d arguments, got %d", c.Name, s.maxArgs, n)
	}
	return nil
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"equal":       {2, 2, filter2(sameValue)},
		"notEqual":    {2, 2, filter2(func(a, b triple.Term) bool { return !sameValue(a, b) })},
		"lessThan":    {2, 2, compare(func(c int) bool { return c < 0 })},
		"greaterThan": {2, 2, compare(func(c int) bool { return c > 0 })},
		"le":          {2, 2, compare(func(c int) bool { return c <= 0 })},
		"ge":          {2, 2, compare(func(c int) bool { return c >= 0 })},
		"isLiteral":   {1, 1, filter1(triple.Term.IsLiteral)},
		"notLiteral":  {1, 1, filter1(func(t triple.Term) bool { return !t.IsLiteral() })},
		"isBNode":     {1, 1, filter1(triple.Term.IsBlank)},
		"notBNode":    {1, 1, filter1(func(t triple.Term) bool { return !t.IsBlank() })},
		"bound":       {1, -1, boundCheck(true)},
		"unbound":     {1, -1, boundCheck(false)},
		"noValue":     {2, 3, noValue},
		"regex":       {2, -1, regexMatch},
		"sum":         {3, 3, arithmetic(opSum)},
		"difference":  {3, 3, arithmetic(opDifference)},
		"product":     {3, 3, arithmetic(opProduct)},
		"quotient":    {3, 3, arithmetic(opQuotient)},
		"strConcat":   {2, -1, strConcat},
	}
}

// BuiltinNames lists the builtins rule bodies may call.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func filter1(pred func(triple.Term) bool) builtinFunc {
	return func(args []Node, b binding, _ *factIndex) (binding, bool) {
		t, ok := b.resolve(args[0])
		return b, ok && pred(t)
	}
}

func filter2(pred func(a, b triple.Term) bool) builtinFunc {
	return func(args []Node, b binding, _ *factIndex) (binding, bool) {
		x, ok1 := b.resolve(args[0])
		y, ok2 := b.resolve(args[1])
		return b, ok1 && ok2 && pred(x, y)
	}
}

// sameValue compares numerically when both sides are numbers and by
// term identity otherwise, so 5 equals 5.0.
func sameValue(a, b triple.Term) bool {
	if a == b {
		return true
	}
	x, ok1 := a.Numeric()
	y, ok2 := b.Numeric()
	return ok1 && ok2 && x == y
}

// compare only orders numbers; anything else fails the test.
func compare(accept func(int) bool) builtinFunc {
	return func(args []Node, b binding, _ *factIndex) (binding, bool) {
		x, ok1 := b.resolve(args[0])
		y, ok2 := b.resolve(args[1])
		if !ok1 || !ok2 {
			return b, false
		}
		fx, ok1 := x.Numeric()
		fy, ok2 := y.Numeric()
		if !ok1 || !ok2 {
			return b, false
		}
		c := 0
		switch {
		case fx < fy:
			c = -1
		case fx > fy:
			c = 1
		}
		return b, accept(c)
	}
}

func boundCheck(want bool) builtinFunc {
	return func(args []Node, b binding, _ *factIndex) (binding, bool) {
		for _, a := range args {
			if _, ok := b.resolve(a); ok != want {
				return b, false
			}
		}
		return b, true
	}
}

// noValue succeeds when no fact matches (s p) or (s p o).
func noValue(args []Node, b binding, facts *factIndex) (binding, bool) {
	pat := Pattern{S: args[0], P: args[1], O: V("_novalue")}
	if len(args) == 3 {
		pat.O = args[2]
	}
	found := false
	facts.match(pat, b, func(binding) bool {
		found = true
		return false
	})
	return b, !found
}

var regexCache sync.Map

func compileRegex(expr string) (*regexp.Regexp, bool) {
	if re, ok := regexCache.Load(expr); ok {
		return re.(*regexp.Regexp), true
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, false
	}
	regexCache.Store(expr, re)
	return re, true
}

// regexMatch tests the whole lexical form of args[0] against args[1].
// Extra arguments receive the capture groups.
func regexMatch(args []Node, b binding, _ *factIndex) (binding, bool) {
	text, ok1 := b.resolve(args[0])
	expr, ok2 := b.resolve(args[1])
	if !ok1 || !ok2 {
		return b, false
	}
	re, ok := compileRegex("^(?:" + expr.Value + ")$")
	if !ok {
		return b, false
	}
	groups := re.FindStringSubmatch(text.Value)
	if groups == nil {
		return b, false
	}
	out := b
	for i, a := range args[2:] {
		if i+1 >= len(groups) {
			break
		}
		var bound bool
		if out, bound = out.unify(a, triple.NewLiteral(groups[i+1])); !bound {
			return b, false
		}
	}
	return out, true
}

type arithOp int

const (
	opSum arithOp = iota
	opDifference
	opProduct
	opQuotient
)

// arithmetic binds args[2] to args[0] op args[1], or checks it when
// args[2] is already bound. Integer inputs give an xsd:integer result
// unless the quotient is inexact.
func arithmetic(op arithOp) builtinFunc {
	return func(args []Node, b binding, _ *factIndex) (binding, bool) {
		x, ok1 := b.resolve(args[0])
		y, ok2 := b.resolve(args[1])
		if !ok1 || !ok2 {
			return b, false
		}
		if ix, iy, ok := asInts(x, y); ok {
			var r int64
			switch op {
			case opSum:
				r = ix + iy
			case opDifference:
				r = ix - iy
			case opProduct:
				r = ix * iy
			case opQuotient:
				if iy == 0 {
					return b, false
				}
				if ix%iy != 0 {
					return unifyNumber(b, args[2], float64(ix)/float64(iy))
				}
				r = ix / iy
			}
			return unifyResult(b, args[2], triple.NewTypedLiteral(strconv.FormatInt(r, 10), triple.XSDInteger))
		}
		fx, ok1 := x.Numeric()
		fy, ok2 := y.Numeric()
		if !ok1 || !ok2 {
			return b, false
		}
		var r float64
		switch op {
		case opSum:
			r = fx + fy
		case opDifference:
			r = fx - fy
		case opProduct:
			r = fx * fy
		case opQuotient:
			if fy == 0 {
				return b, false
			}
			r = fx / fy
		}
		return unifyNumber(b, args[2], r)
	}
}

func asInts(x, y triple.Term) (int64, int64, bool) {
	if !x.IsLiteral() || !y.IsLiteral() {
		return 0, 0, false
	}
	ix, err1 := strconv.ParseInt(strings.TrimSpace(x.Value), 10, 64)
	iy, err2 := strconv.ParseInt(strings.TrimSpace(y.Value), 10, 64)
	return ix, iy, err1 == nil && err2 == nil
}

func unifyNumber(b binding, out Node, v float64) (binding, bool) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return b, false
	}
	return unifyResult(b, out, triple.NewTypedLiteral(strconv.FormatFloat(v, 'f', -1, 64), triple.XSDDecimal))
}

// unifyResult binds out to v, or compares by value when out is bound.
func unifyResult(b binding, out Node, v triple.Term) (binding, bool) {
	if cur, ok := b.resolve(out); ok {
		return b, sameValue(cur, v)
	}
	return b.unify(out, v)
}

// strConcat joins the lexical forms of all but the last argument into a
// plain literal bound to the last.
func strConcat(args []Node, b binding, _ *factIndex) (binding, bool) {
	var sb strings.Builder
	for _, a := range args[:len(args)-1] {
		t, ok := b.resolve(a)
		if !ok {
			return b, false
		}
		sb.WriteString(t.Value)
	}
	return unifyResult(b, args[len(args)-1], triple.NewLiteral(sb.String()))
}
