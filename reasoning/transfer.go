package reasoning

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/triple"
)

// Transfer-process vocabulary.
const (
	TransferNamespace   = "http://example.com/crm/transfer#"
	TransferProcessStep = TransferNamespace + "hasProcessStep"
	TransferViolates    = TransferNamespace + "violatesRule"

	transferReasonerLabel = "CUSTOM (CRM Transfer Process Rules)"
)

// DefaultTransferRulesPaths are tried in order; the first existing file wins.
var DefaultTransferRulesPaths = []string{
	"/app/transfer-process-rules.rules",
	"rules/transfer-process-rules.rules",
	"transfer-process-rules.rules",
}

// InferTransferProcess runs the transfer-process rule document over data
// and reports the derived process steps and rule violations.
func (o *Orchestrator) InferTransferProcess(ctx context.Context, data, contentType string) (*TransferResult, error) {
	rules, path, err := loadFirstRules(o.transferPaths)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, o.logger).Debugw("Loaded transfer process rules", logger.FieldFile, path)

	res, err := o.Execute(ctx, Request{
		Data:        data,
		ContentType: contentType,
		Reasoner:    string(Custom),
		CustomRules: rules,
	})
	if err != nil {
		return nil, err
	}
	res.ReasonerType = transferReasonerLabel

	steps := objectLocalNames(res.Result, TransferProcessStep)
	violations := objectLocalNames(res.Result, TransferViolates)
	return &TransferResult{
		InferenceResult:   *res,
		InferredSteps:     steps,
		InferredStepCount: len(steps),
		RuleViolations:    violations,
		HasViolations:     len(violations) > 0,
	}, nil
}

func loadFirstRules(paths []string) (string, string, error) {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			return string(data), p, nil
		}
		if !os.IsNotExist(err) {
			return "", p, errors.Wrapf(err, "read transfer rules %s", p)
		}
	}
	return "", "", errors.WithHintf(
		errors.NewValidationError("transfer process rules not found"),
		"looked in: %s", strings.Join(paths, ", "))
}

// objectLocalNames returns the local names of the objects of predicate,
// ordered by object IRI with duplicates removed.
func objectLocalNames(m *triple.Model, predicate string) []string {
	objects := make(map[string]struct{})
	for _, t := range m.WithPredicate(predicate) {
		objects[t.O.Value] = struct{}{}
	}
	iris := make([]string, 0, len(objects))
	for iri := range objects {
		iris = append(iris, iri)
	}
	sort.Strings(iris)

	out := make([]string, 0, len(iris))
	seen := make(map[string]struct{}, len(iris))
	for _, iri := range iris {
		name := triple.LocalName(iri)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
