package reasoning

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/triple"
)

// RuleSummary is the rendered form of one parsed rule.
type RuleSummary struct {
	Name string `json:"name"`
	Body string `json:"body"`
	Head string `json:"head"`
}

// ValidationReport is the outcome of ValidateRules.
type ValidationReport struct {
	Valid      bool          `json:"valid"`
	RuleCount  int           `json:"ruleCount,omitempty"`
	Rules      []RuleSummary `json:"rules,omitempty"`
	Message    string        `json:"message,omitempty"`
	Error      string        `json:"error,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

const (
	missingPrefixMessage = "rules use prefixed names without @prefix declarations"
	missingPrefixError   = "prefixed names such as :property need an @prefix declaration.\n" +
		"Declare the prefix or write the full IRI, for example:\n" +
		"  wrong: (?x :hasParent ?y)\n" +
		"  right: (?x <http://example.org/ont#hasParent> ?y)"
	missingPrefixSuggestion = "use full IRIs like <http://...> or add @prefix lines; GET /api/reasoning/examples shows working rules"

	unknownPrefixError = "rule syntax error: undeclared prefix\n\n" +
		"Either declare it with @prefix or use the full IRI:\n\n" +
		"right:\n" +
		"[rule1: (?x <http://example.org/ont#hasParent> ?y) -> (?x <http://example.org/ont#hasChild> ?y)]\n\n" +
		"wrong:\n" +
		"[rule1: (?x :hasParent ?y) -> (?x :hasChild ?y)]"
	syntaxSuggestion = "check the rule syntax: [name: (?s <p> ?o) -> (?s <q> ?o)]"
)

// prefixedName finds `p:local` and `:local` tokens in rule text that has
// had IRIs, strings and comments blanked out.
var prefixedName = regexp.MustCompile(`(?:^|[\s(\[,])([A-Za-z_][\w-]*)?:[A-Za-z0-9_]`)

// ValidateRules checks rule text and never fails: every problem is
// reported in the returned ValidationReport.
//
// Prefixed names are checked before parsing. Text that uses an undeclared
// prefix other than rdf, rdfs, owl or xsd and carries no @prefix
// directive at all is rejected without invoking the parser.
func ValidateRules(text string) ValidationReport {
	if usesUndeclaredPrefixes(text) {
		return ValidationReport{
			Message:    missingPrefixMessage,
			Error:      missingPrefixError,
			Suggestion: missingPrefixSuggestion,
		}
	}

	rs, err := ParseRules(text)
	if err != nil {
		if errors.Is(err, ErrUnknownPrefix) {
			return ValidationReport{
				Message:    missingPrefixMessage,
				Error:      unknownPrefixError + "\n\n" + ruleErrorText(err),
				Suggestion: missingPrefixSuggestion,
			}
		}
		return ValidationReport{
			Message:    "rule syntax error",
			Error:      "rule parse failed: " + ruleErrorText(err),
			Suggestion: syntaxSuggestion,
		}
	}

	report := ValidationReport{
		Valid:     true,
		RuleCount: rs.Len(),
		Rules:     make([]RuleSummary, 0, rs.Len()),
		Message:   fmt.Sprintf("rules are valid: %d rule(s)", rs.Len()),
	}
	for _, r := range rs.Rules {
		name := r.Name
		if name == "" {
			name = "unnamed"
		}
		report.Rules = append(report.Rules, RuleSummary{Name: name, Body: r.BodyString(), Head: r.HeadString()})
	}
	return report
}

// ruleErrorText is the parser message plus its position detail.
func ruleErrorText(err error) string {
	msg := err.Error()
	if details := errors.GetAllDetails(err); len(details) > 0 {
		msg += " (" + strings.Join(details, "; ") + ")"
	}
	return msg
}

func usesUndeclaredPrefixes(text string) bool {
	clean := blankLiterals(text)
	if strings.Contains(clean, "@prefix") {
		return false
	}
	for _, m := range prefixedName.FindAllStringSubmatch(clean, -1) {
		if _, known := triple.StandardPrefixes[m[1]]; !known {
			return true
		}
	}
	return false
}

// blankLiterals replaces IRIs and quoted strings with spaces and drops
// comments, so only rule syntax is left for the prefix scan.
func blankLiterals(text string) string {
	src := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(src); i++ {
		r := src[i]
		switch {
		case r == '#' || r == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			b.WriteRune('\n')
		case r == '<' && i+1 < len(src) && src[i+1] != '-':
			for i < len(src) && src[i] != '>' {
				i++
			}
			b.WriteRune(' ')
		case r == '\'' || r == '"':
			quote := r
			for i++; i < len(src) && src[i] != quote; i++ {
				if src[i] == '\\' {
					i++
				}
			}
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
