package reasoning

import (
	"strings"
	"unicode"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/triple"
)

// ErrUnknownPrefix marks rule text that uses an undeclared qname prefix.
var ErrUnknownPrefix = errors.New("unrecognized qname prefix")

// ParseRules parses forward rules in Jena rule syntax.
//
// Accepted forms are `[name: body -> head]`, `[body -> head]` and the
// bare `body -> head .`. Body clauses are triple patterns `(s p o)` and
// builtin calls `name(args)`; heads hold triple patterns only. Prefixes
// are declared with `@prefix p: <iri> .`; rdf, rdfs, owl and xsd are
// always available. Every failure is marked errors.ErrRuleSyntax.
func ParseRules(text string) (*RuleSet, error) {
	p := &parser{
		lex:      newLexer(text),
		prefixes: make(map[string]string, len(triple.StandardPrefixes)),
	}
	for k, v := range triple.StandardPrefixes {
		p.prefixes[k] = v
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	rs := &RuleSet{}
	for p.tok.kind != tokEOF {
		switch p.tok.kind {
		case tokDirective:
			if err := p.parsePrefix(); err != nil {
				return nil, err
			}
		case tokLBrack:
			r, err := p.parseBracketRule()
			if err != nil {
				return nil, err
			}
			rs.Rules = append(rs.Rules, r)
		default:
			r, err := p.parseBareRule()
			if err != nil {
				return nil, err
			}
			rs.Rules = append(rs.Rules, r)
		}
	}
	return rs, nil
}

// MustParseRules is ParseRules for rule text known to be valid.
func MustParseRules(text string) *RuleSet {
	rs, err := ParseRules(text)
	if err != nil {
		panic(err)
	}
	return rs
}

type parser struct {
	lex      *lexer
	tok      token
	prefixes map[string]string
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return syntaxErrorf(p.tok.line, p.tok.col, format, args...)
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.tok.kind != kind {
		return p.errorf("expected %s, found %s", what, p.tok.describe())
	}
	return p.advance()
}

// parsePrefix handles `@prefix p: <iri> .` with the trailing dot optional.
func (p *parser) parsePrefix() error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokRuleName {
		return p.errorf("expected prefix name after @prefix, found %s", p.tok.describe())
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokIRI {
		return p.errorf("expected <iri> for prefix %q, found %s", name, p.tok.describe())
	}
	p.prefixes[name] = p.tok.text
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind == tokDot {
		return p.advance()
	}
	return nil
}

func (p *parser) parseBracketRule() (Rule, error) {
	if err := p.advance(); err != nil {
		return Rule{}, err
	}
	var r Rule
	if p.tok.kind == tokRuleName {
		r.Name = p.tok.text
		if err := p.advance(); err != nil {
			return Rule{}, err
		}
	}
	body, err := p.parseBody()
	if err != nil {
		return Rule{}, err
	}
	r.Body = body
	if err := p.expect(tokArrow, "->"); err != nil {
		return Rule{}, err
	}
	head, err := p.parseHead(tokRBrack)
	if err != nil {
		return Rule{}, err
	}
	r.Head = head
	if err := p.expect(tokRBrack, "]"); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func (p *parser) parseBareRule() (Rule, error) {
	var r Rule
	if p.tok.kind == tokRuleName {
		r.Name = p.tok.text
		if err := p.advance(); err != nil {
			return Rule{}, err
		}
	}
	body, err := p.parseBody()
	if err != nil {
		return Rule{}, err
	}
	r.Body = body
	if err := p.expect(tokArrow, "->"); err != nil {
		return Rule{}, err
	}
	head, err := p.parseHead(tokDot)
	if err != nil {
		return Rule{}, err
	}
	r.Head = head
	if p.tok.kind == tokDot {
		if err := p.advance(); err != nil {
			return Rule{}, err
		}
	} else if p.tok.kind != tokEOF {
		return Rule{}, p.errorf("expected '.' after rule head, found %s", p.tok.describe())
	}
	return r, nil
}

func (p *parser) parseBody() ([]Clause, error) {
	var body []Clause
	for {
		switch p.tok.kind {
		case tokArrow:
			return body, nil
		case tokBackArrow:
			return nil, p.errorf("backward rules (<-) are not supported")
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokLParen:
			pat, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			body = append(body, Clause{Pattern: &pat})
		case tokName:
			call, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			body = append(body, Clause{Call: &call})
		case tokEOF:
			return nil, p.errorf("unexpected end of rules, missing ->")
		default:
			return nil, p.errorf("unexpected %s in rule body", p.tok.describe())
		}
	}
}

func (p *parser) parseHead(end tokenKind) ([]Pattern, error) {
	var head []Pattern
	for {
		switch p.tok.kind {
		case end, tokEOF:
			if len(head) == 0 {
				return nil, p.errorf("rule head is empty")
			}
			return head, nil
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokLParen:
			pat, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			head = append(head, pat)
		case tokLBrack:
			return nil, p.errorf("nested rules in a rule head are not supported")
		case tokName:
			return nil, p.errorf("builtin %s is not allowed in a rule head", p.tok.text)
		default:
			return nil, p.errorf("unexpected %s in rule head", p.tok.describe())
		}
	}
}

func (p *parser) parsePattern() (Pattern, error) {
	if err := p.expect(tokLParen, "("); err != nil {
		return Pattern{}, err
	}
	var nodes [3]Node
	for i := range nodes {
		n, err := p.parseNode()
		if err != nil {
			return Pattern{}, err
		}
		nodes[i] = n
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return Pattern{}, err
	}
	pat := Pattern{S: nodes[0], P: nodes[1], O: nodes[2]}
	if !pat.P.IsVar() && !pat.P.Term.IsIRI() {
		return Pattern{}, p.errorf("predicate of %s must be a variable or IRI", pat)
	}
	return pat, nil
}

func (p *parser) parseCall() (Call, error) {
	call := Call{Name: p.tok.text}
	spec, ok := builtins[call.Name]
	if !ok {
		return Call{}, p.errorf("unknown builtin %s", call.Name)
	}
	if err := p.advance(); err != nil {
		return Call{}, err
	}
	if err := p.expect(tokLParen, "( after "+call.Name); err != nil {
		return Call{}, err
	}
	for p.tok.kind != tokRParen {
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return Call{}, err
			}
			continue
		}
		if p.tok.kind == tokEOF {
			return Call{}, p.errorf("unterminated call to %s", call.Name)
		}
		n, err := p.parseNode()
		if err != nil {
			return Call{}, err
		}
		call.Args = append(call.Args, n)
	}
	if err := p.advance(); err != nil {
		return Call{}, err
	}
	if err := spec.checkArity(call); err != nil {
		return Call{}, p.errorf("%v", err)
	}
	return call, nil
}

func (p *parser) parseNode() (Node, error) {
	t := p.tok
	switch t.kind {
	case tokVar:
		return V(t.text), p.advance()
	case tokIRI:
		return C(triple.NewIRI(t.text)), p.advance()
	case tokQName:
		iri, err := p.resolve(t)
		if err != nil {
			return Node{}, err
		}
		return C(triple.NewIRI(iri)), p.advance()
	case tokNumber:
		dt := triple.XSDInteger
		if strings.ContainsAny(t.text, "eE") {
			dt = triple.XSDDouble
		} else if strings.Contains(t.text, ".") {
			dt = triple.XSDDecimal
		}
		return C(triple.NewTypedLiteral(t.text, dt)), p.advance()
	case tokString:
		if err := p.advance(); err != nil {
			return Node{}, err
		}
		switch p.tok.kind {
		case tokDatatype:
			if err := p.advance(); err != nil {
				return Node{}, err
			}
			var dt string
			switch p.tok.kind {
			case tokIRI:
				dt = p.tok.text
			case tokQName:
				iri, err := p.resolve(p.tok)
				if err != nil {
					return Node{}, err
				}
				dt = iri
			default:
				return Node{}, p.errorf("expected datatype after ^^, found %s", p.tok.describe())
			}
			return C(triple.NewTypedLiteral(t.text, dt)), p.advance()
		case tokLang:
			lang := p.tok.text
			return C(triple.NewLangLiteral(t.text, lang)), p.advance()
		}
		return C(triple.NewLiteral(t.text)), nil
	case tokBlank:
		return C(triple.NewBlank(t.text)), p.advance()
	default:
		return Node{}, p.errorf("expected a variable, IRI or literal, found %s", t.describe())
	}
}

func (p *parser) resolve(t token) (string, error) {
	ns, ok := p.prefixes[t.prefix]
	if !ok {
		err := syntaxErrorf(t.line, t.col, "Unrecognized qname prefix (%s) in rule", t.prefix)
		return "", errors.Mark(err, ErrUnknownPrefix)
	}
	return ns + t.text, nil
}

func syntaxErrorf(line, col int, format string, args ...interface{}) error {
	err := errors.Newf(format, args...)
	err = errors.WithDetailf(err, "line %d, column %d", line, col)
	return errors.Mark(err, errors.ErrRuleSyntax)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrack
	tokRBrack
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokArrow
	tokBackArrow
	tokDirective
	tokRuleName
	tokName
	tokQName
	tokVar
	tokIRI
	tokBlank
	tokString
	tokNumber
	tokDatatype
	tokLang
)

type token struct {
	kind      tokenKind
	text      string
	prefix    string // qname prefix
	line, col int
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokQName:
		return "'" + t.prefix + ":" + t.text + "'"
	case tokVar:
		return "'?" + t.text + "'"
	case tokIRI:
		return "'<" + t.text + ">'"
	case tokString:
		return "string '" + t.text + "'"
	case tokRuleName:
		return "'" + t.text + ":'"
	case tokDirective:
		return "'@prefix'"
	case tokLang:
		return "'@" + t.text + "'"
	case tokDatatype:
		return "'^^'"
	case tokArrow:
		return "'->'"
	case tokBackArrow:
		return "'<-'"
	case tokBlank:
		return "'_:" + t.text + "'"
	}
	if t.text != "" {
		return "'" + t.text + "'"
	}
	return "token"
}

type lexer struct {
	src       []rune
	pos       int
	line, col int
}

func newLexer(text string) *lexer {
	return &lexer{src: []rune(text), line: 1, col: 1}
}

func (l *lexer) peek(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) bump() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r := l.peek(0)
		switch {
		case unicode.IsSpace(r):
			l.bump()
		case r == '#', r == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.peek(0) != '\n' {
				l.bump()
			}
		default:
			return
		}
	}
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) readName() string {
	start := l.pos
	for l.pos < len(l.src) && isNameChar(l.peek(0)) {
		l.bump()
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	tok := token{line: l.line, col: l.col}
	if l.pos >= len(l.src) {
		tok.kind = tokEOF
		return tok, nil
	}

	r := l.peek(0)
	switch {
	case r == '[':
		l.bump()
		tok.kind = tokLBrack
		tok.text = "["
	case r == ']':
		l.bump()
		tok.kind = tokRBrack
		tok.text = "]"
	case r == '(':
		l.bump()
		tok.kind = tokLParen
		tok.text = "("
	case r == ')':
		l.bump()
		tok.kind = tokRParen
		tok.text = ")"
	case r == ',':
		l.bump()
		tok.kind = tokComma
		tok.text = ","
	case r == '.' && !unicode.IsDigit(l.peek(1)):
		l.bump()
		tok.kind = tokDot
		tok.text = "."
	case r == '-' && l.peek(1) == '>':
		l.bump()
		l.bump()
		tok.kind = tokArrow
	case r == '<' && l.peek(1) == '-':
		l.bump()
		l.bump()
		tok.kind = tokBackArrow
	case r == '<':
		l.bump()
		start := l.pos
		for l.pos < len(l.src) && l.peek(0) != '>' {
			if l.peek(0) == '\n' || unicode.IsSpace(l.peek(0)) {
				return tok, syntaxErrorf(tok.line, tok.col, "malformed IRI")
			}
			l.bump()
		}
		if l.pos >= len(l.src) {
			return tok, syntaxErrorf(tok.line, tok.col, "unterminated IRI")
		}
		tok.kind = tokIRI
		tok.text = string(l.src[start:l.pos])
		l.bump()
	case r == '?':
		l.bump()
		tok.kind = tokVar
		tok.text = l.readName()
		if tok.text == "" {
			return tok, syntaxErrorf(tok.line, tok.col, "variable without a name")
		}
	case r == '\'' || r == '"':
		s, err := l.readString(r)
		if err != nil {
			return tok, err
		}
		tok.kind = tokString
		tok.text = s
	case r == '^' && l.peek(1) == '^':
		l.bump()
		l.bump()
		tok.kind = tokDatatype
	case r == '@':
		l.bump()
		word := l.readName()
		if word == "" {
			return tok, syntaxErrorf(tok.line, tok.col, "stray '@'")
		}
		if word == "prefix" {
			tok.kind = tokDirective
		} else {
			tok.kind = tokLang
		}
		tok.text = word
	case r == '_' && l.peek(1) == ':':
		l.bump()
		l.bump()
		tok.kind = tokBlank
		tok.text = l.readName()
	case unicode.IsDigit(r) || (r == '-' || r == '+') && unicode.IsDigit(l.peek(1)):
		tok.kind = tokNumber
		tok.text = l.readNumber()
	case r == ':':
		l.bump()
		if isNameChar(l.peek(0)) {
			tok.kind = tokQName
			tok.text = l.readLocal()
		} else {
			tok.kind = tokRuleName
		}
	case isNameStart(r):
		name := l.readName()
		if l.peek(0) == ':' {
			l.bump()
			if isNameChar(l.peek(0)) {
				tok.kind = tokQName
				tok.prefix = name
				tok.text = l.readLocal()
			} else {
				tok.kind = tokRuleName
				tok.text = name
			}
		} else {
			tok.kind = tokName
			tok.text = name
		}
	default:
		return tok, syntaxErrorf(tok.line, tok.col, "unexpected character %q", r)
	}
	return tok, nil
}

// readLocal reads a qname local part. Dots are allowed inside but never
// at the end, so `ex:a.` still ends a bare rule.
func (l *lexer) readLocal() string {
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek(0)
		if isNameChar(r) || r == '.' && isNameChar(l.peek(1)) {
			l.bump()
			continue
		}
		break
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) readNumber() string {
	start := l.pos
	if r := l.peek(0); r == '-' || r == '+' {
		l.bump()
	}
	for unicode.IsDigit(l.peek(0)) {
		l.bump()
	}
	if l.peek(0) == '.' && unicode.IsDigit(l.peek(1)) {
		l.bump()
		for unicode.IsDigit(l.peek(0)) {
			l.bump()
		}
	}
	if r := l.peek(0); r == 'e' || r == 'E' {
		off := 1
		if s := l.peek(1); s == '-' || s == '+' {
			off = 2
		}
		if unicode.IsDigit(l.peek(off)) {
			for i := 0; i < off; i++ {
				l.bump()
			}
			for unicode.IsDigit(l.peek(0)) {
				l.bump()
			}
		}
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) readString(quote rune) (string, error) {
	line, col := l.line, l.col
	l.bump()
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", syntaxErrorf(line, col, "unterminated string")
		}
		r := l.bump()
		switch r {
		case quote:
			return b.String(), nil
		case '\\':
			if l.pos >= len(l.src) {
				return "", syntaxErrorf(line, col, "unterminated string")
			}
			switch e := l.bump(); e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '\\', '\'', '"':
				b.WriteRune(e)
			default:
				// Unknown escapes are kept so regex patterns survive.
				b.WriteRune('\\')
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
}
