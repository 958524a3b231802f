// Package reasoning runs forward-chaining rule inference over RDF models.
//
// It holds the rule language (parser, builtins, fixpoint engine), the
// built-in RDFS and OWL rule sets, the rule validator, the example
// catalogue and the Orchestrator that ties parsing, inference, diffing
// and persistence together.
package reasoning

import (
	"sort"
	"strings"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/triple"
)

// ReasonerType selects a rule set.
type ReasonerType string

const (
	RDFS     ReasonerType = "RDFS"
	OWL      ReasonerType = "OWL"
	OWLMini  ReasonerType = "OWL_MINI"
	OWLMicro ReasonerType = "OWL_MICRO"
	Custom   ReasonerType = "CUSTOM"
)

var reasonerDescriptions = map[ReasonerType]string{
	RDFS:     "RDFS reasoner - RDFS entailment rules (domain, range, subClassOf, subPropertyOf)",
	OWL:      "OWL reasoner - the full built-in OWL rule set",
	OWLMini:  "OWL Mini reasoner - lightweight OWL rules",
	OWLMicro: "OWL Micro reasoner - minimal OWL rules on top of RDFS",
	Custom:   "Custom rule reasoner - user rules in Jena rule syntax",
}

// ParseReasonerType accepts any letter case.
func ParseReasonerType(s string) (ReasonerType, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	if token == "" {
		return "", errors.NewReasonerSelectionError("reasoner type is required")
	}
	rt := ReasonerType(token)
	if _, ok := reasonerDescriptions[rt]; !ok {
		return "", errors.WithHintf(
			errors.NewReasonerSelectionError("invalid reasoner type: %s", s),
			"valid types: %s", strings.Join(reasonerTypeNames(), ", "))
	}
	return rt, nil
}

// Description returns the human-readable summary of rt.
func (rt ReasonerType) Description() string {
	return reasonerDescriptions[rt]
}

// ReasonerTypes returns every reasoner type with its description.
func ReasonerTypes() map[ReasonerType]string {
	out := make(map[ReasonerType]string, len(reasonerDescriptions))
	for k, v := range reasonerDescriptions {
		out[k] = v
	}
	return out
}

func reasonerTypeNames() []string {
	names := make([]string, 0, len(reasonerDescriptions))
	for rt := range reasonerDescriptions {
		names = append(names, string(rt))
	}
	sort.Strings(names)
	return names
}

// Request is one reasoning job.
type Request struct {
	// Data is the RDF payload. Ignored when UseStoreData is set.
	Data string `json:"rdfData"`
	// ContentType optionally hints the syntax of Data.
	ContentType string `json:"contentType,omitempty"`
	// Reasoner is the reasoner token, any case.
	Reasoner string `json:"reasonerType"`
	// CustomRules is required for CUSTOM and ignored otherwise.
	CustomRules string `json:"customRules,omitempty"`
	// Persist imports the enlarged model into the graph store.
	Persist bool `json:"persist,omitempty"`
	// UseStoreData reasons over the current store contents instead of Data.
	UseStoreData bool `json:"useStoreData,omitempty"`
}

// InferenceResult reports one Execute run. Result and Diff stay in memory.
type InferenceResult struct {
	Success         bool   `json:"success"`
	ReasonerType    string `json:"reasonerType"`
	OriginalTriples int    `json:"originalTriples"`
	InferredTriples int    `json:"inferredTriples"`
	NewTriples      int    `json:"newTriples"`
	ExecutionTimeMS int64  `json:"executionTime"`
	Rounds          int    `json:"rounds"`
	ResultData      string `json:"resultData"`
	Persisted       bool   `json:"persisted"`
	PersistError    string `json:"persistError,omitempty"`

	Result *triple.Model `json:"-"`
	Diff   *triple.Model `json:"-"`
}

// TransferResult is an InferenceResult plus the transfer-process analysis.
type TransferResult struct {
	InferenceResult
	InferredSteps     []string `json:"inferredSteps"`
	InferredStepCount int      `json:"inferredStepCount"`
	RuleViolations    []string `json:"ruleViolations"`
	HasViolations     bool     `json:"hasViolations"`
}

// Stage is a step of the reasoning pipeline.
type Stage string

const (
	StageReceived         Stage = "received"
	StageFormatDetected   Stage = "format_detected"
	StageParsed           Stage = "parsed"
	StageReasonerSelected Stage = "reasoner_selected"
	StageInferred         Stage = "inferred"
	StageDiffed           Stage = "diffed"
	StagePersisted        Stage = "persisted"
	StageCompleted        Stage = "completed"
	StageFailed           Stage = "failed"
)
