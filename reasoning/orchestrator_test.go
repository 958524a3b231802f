package reasoning_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/graph/sqlitestore"
	kgtest "github.com/teranos/kgbridge/internal/testing"
	"github.com/teranos/kgbridge/metrics"
	"github.com/teranos/kgbridge/reasoning"
	"github.com/teranos/kgbridge/triple"
)

const ont = "http://example.org/ont#"

const managers = `@prefix : <http://example.org/ont#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
:Employee rdfs:subClassOf :Person .
:Manager rdfs:subClassOf :Employee .
:John a :Manager .
`

type fixture struct {
	store    *sqlitestore.Store
	importer *graph.Importer
	exporter *graph.Exporter
	orch     *reasoning.Orchestrator
}

func newFixture(t *testing.T, opts reasoning.OrchestratorOptions) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	store := sqlitestore.New(kgtest.CreateTestDB(t), log)
	f := &fixture{
		store:    store,
		importer: graph.NewImporter(store, graph.ImportOptions{Atomic: true}, log),
		exporter: graph.NewExporter(store, graph.ExportOptions{}, log),
	}
	f.orch = reasoning.NewOrchestrator(f.importer, f.exporter, opts, log)
	return f
}

func TestExecuteRDFSScenario(t *testing.T) {
	f := newFixture(t, reasoning.OrchestratorOptions{})

	res, err := f.orch.Execute(context.Background(), reasoning.Request{Data: managers, Reasoner: "rdfs"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "RDFS", res.ReasonerType)
	assert.Equal(t, 3, res.OriginalTriples)
	assert.GreaterOrEqual(t, res.NewTriples, 2)
	assert.Equal(t, res.InferredTriples-res.OriginalTriples, res.NewTriples)
	assert.Equal(t, res.NewTriples, res.Diff.Len())
	assert.False(t, res.Persisted)
	assert.Empty(t, res.PersistError)

	john := triple.NewIRI(ont + "John")
	assert.True(t, res.Result.Contains(triple.T(john, triple.TypeIRI, triple.NewIRI(ont+"Employee"))))
	assert.True(t, res.Result.Contains(triple.T(john, triple.TypeIRI, triple.NewIRI(ont+"Person"))))

	// ResultData is Turtle holding the whole result.
	reparsed, err := triple.Parse(context.Background(), []byte(res.ResultData), triple.Turtle)
	require.NoError(t, err)
	assert.Equal(t, res.InferredTriples, reparsed.Len())
}

func TestInferredOnlyEqualsExecuteDiff(t *testing.T) {
	f := newFixture(t, reasoning.OrchestratorOptions{})
	ctx := context.Background()
	req := reasoning.Request{Data: managers, Reasoner: "OWL_MICRO"}

	res, err := f.orch.Execute(ctx, req)
	require.NoError(t, err)
	base, err := triple.Parse(ctx, []byte(managers), triple.Turtle)
	require.NoError(t, err)

	diff, err := f.orch.InferredOnly(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, res.Result.Difference(base).Triples(), diff.Triples())
	for _, tr := range diff.Triples() {
		assert.False(t, base.Contains(tr))
	}
	assert.Equal(t, res.Result.Triples(), base.Union(diff).Triples())
}

func TestExecuteRequestValidation(t *testing.T) {
	f := newFixture(t, reasoning.OrchestratorOptions{})
	ctx := context.Background()

	tests := []struct {
		name   string
		req    reasoning.Request
		marker error
	}{
		{"missing reasoner", reasoning.Request{Data: managers}, errors.ErrReasonerSelection},
		{"unknown reasoner", reasoning.Request{Data: managers, Reasoner: "HERMIT"}, errors.ErrReasonerSelection},
		// Reasoner selection is checked before the payload is looked at.
		{"custom without rules", reasoning.Request{Data: "not rdf at all {", Reasoner: "CUSTOM"}, errors.ErrReasonerSelection},
		{"missing data", reasoning.Request{Reasoner: "RDFS"}, errors.ErrValidation},
		{"bad payload", reasoning.Request{Data: "@prefix : <http://x/> . :a :b", Reasoner: "RDFS"}, errors.ErrParse},
		{"bad custom rules", reasoning.Request{Data: managers, Reasoner: "custom", CustomRules: "[r: (?x ex:p ?y) -> (?y ex:p ?x)]"}, errors.ErrRuleSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.Execute(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.marker), "want %v, got %v", tt.marker, err)
			assert.True(t, errors.IsClientError(err))
			assert.Contains(t, errors.FlattenDetails(err), "failed at stage")
		})
	}
}

func TestExecuteCustomRules(t *testing.T) {
	f := newFixture(t, reasoning.OrchestratorOptions{})
	data := `@prefix : <http://example.org/ont#> .
:ann :hasParent :bob . :bob :hasParent :cat .`
	rules := `[rule1: (?x <http://example.org/ont#hasParent> ?y) (?y <http://example.org/ont#hasParent> ?z) -> (?x <http://example.org/ont#hasGrandparent> ?z)]`

	res, err := f.orch.Execute(context.Background(), reasoning.Request{Data: data, Reasoner: "CUSTOM", CustomRules: rules})
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewTriples)
	assert.True(t, res.Diff.Contains(triple.T(triple.NewIRI(ont+"ann"), triple.NewIRI(ont+"hasGrandparent"), triple.NewIRI(ont+"cat"))))
}

func TestExecutePersistsResult(t *testing.T) {
	f := newFixture(t, reasoning.OrchestratorOptions{})
	ctx := context.Background()

	res, err := f.orch.Execute(ctx, reasoning.Request{Data: managers, Reasoner: "RDFS", Persist: true})
	require.NoError(t, err)
	assert.True(t, res.Persisted)

	nodes, err := f.store.Nodes(ctx, 0)
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Key == ont+"John" {
			assert.ElementsMatch(t, []string{"Manager", "Employee", "Person"}, n.Labels)
			return
		}
	}
	t.Fatal("John was not persisted")
}

type failingImporter struct{}

func (failingImporter) Import(context.Context, *triple.Model) (graph.ImportStats, error) {
	return graph.ImportStats{}, errors.WrapGraphStore(errors.New("connection refused"), "upsert node")
}

func TestExecutePersistFailureKeepsResult(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	orch := reasoning.NewOrchestrator(failingImporter{}, nil, reasoning.OrchestratorOptions{}, log)

	res, err := orch.Execute(context.Background(), reasoning.Request{Data: managers, Reasoner: "RDFS", Persist: true})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Persisted)
	assert.Contains(t, res.PersistError, "connection refused")
	assert.NotEmpty(t, res.ResultData)
}

func TestExecuteUseStoreData(t *testing.T) {
	f := newFixture(t, reasoning.OrchestratorOptions{})
	ctx := context.Background()

	_, err := f.orch.Execute(ctx, reasoning.Request{Reasoner: "RDFS", UseStoreData: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, errors.FlattenHints(err), "import RDF first")

	base, err := triple.Parse(ctx, []byte(managers), triple.Turtle)
	require.NoError(t, err)
	_, err = f.importer.Import(ctx, base)
	require.NoError(t, err)

	// Export is lossy: subClassOf comes back as an ont:SUBCLASSOF edge, so
	// RDFS finds nothing new, but the run itself succeeds over store data.
	res, err := f.orch.Execute(ctx, reasoning.Request{Reasoner: "RDFS", UseStoreData: true})
	require.NoError(t, err)
	assert.Greater(t, res.OriginalTriples, 0)
	assert.Equal(t, 0, res.NewTriples)
}

func TestExecuteRecordsMetrics(t *testing.T) {
	m := metrics.New()
	f := newFixture(t, reasoning.OrchestratorOptions{Metrics: m})
	_, err := f.orch.Execute(context.Background(), reasoning.Request{Data: managers, Reasoner: "RDFS"})
	require.NoError(t, err)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	assert.Contains(t, names, "kgbridge_inferences_total")
}

const transferData = `@prefix crm: <http://example.com/crm/transfer#> .
crm:T1 a crm:TransferProcess ;
    crm:sourceCustomer crm:Acme ;
    crm:targetCustomer crm:Acme .
crm:Acme crm:customerType "enterprise" ;
    crm:arrears 250 .
`

func TestInferTransferProcess(t *testing.T) {
	f := newFixture(t, reasoning.OrchestratorOptions{
		TransferRulesPaths: []string{filepath.Join(t.TempDir(), "missing.rules"), "../rules/transfer-process-rules.rules"},
	})

	res, err := f.orch.InferTransferProcess(context.Background(), transferData, "text/turtle")
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM (CRM Transfer Process Rules)", res.ReasonerType)
	assert.Equal(t, []string{
		"Step1_IdentityVerification",
		"Step2_ArrearsCheck",
		"Step2b_ManagerApproval",
		"Step3_ContractTransfer",
		"Step4_Completion",
	}, res.InferredSteps)
	assert.Equal(t, 5, res.InferredStepCount)
	assert.ElementsMatch(t, []string{"OutstandingArrears", "SameSourceAndTarget"}, res.RuleViolations)
	assert.True(t, res.HasViolations)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Contains(t, decoded, "inferredSteps")
	assert.Contains(t, decoded, "resultData")
}

func TestInferTransferProcessMissingRules(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.rules")
	f := newFixture(t, reasoning.OrchestratorOptions{TransferRulesPaths: []string{missing}})

	_, err := f.orch.InferTransferProcess(context.Background(), transferData, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, errors.FlattenHints(err), missing)
}

func TestInferTransferProcessUsesFirstExistingFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.rules")
	require.NoError(t, os.WriteFile(first,
		[]byte(`[s: (?p <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.com/crm/transfer#TransferProcess>) -> (?p <http://example.com/crm/transfer#hasProcessStep> <http://example.com/crm/transfer#OnlyStep>)]`),
		0o644))
	f := newFixture(t, reasoning.OrchestratorOptions{
		TransferRulesPaths: []string{first, "../rules/transfer-process-rules.rules"},
	})

	res, err := f.orch.InferTransferProcess(context.Background(), transferData, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"OnlyStep"}, res.InferredSteps)
	assert.Empty(t, res.RuleViolations)
	assert.False(t, res.HasViolations)
}

func TestReasonerTypes(t *testing.T) {
	types := reasoning.ReasonerTypes()
	assert.Len(t, types, 5)
	for _, rt := range []reasoning.ReasonerType{reasoning.RDFS, reasoning.OWL, reasoning.OWLMini, reasoning.OWLMicro, reasoning.Custom} {
		assert.NotEmpty(t, types[rt])
	}

	rt, err := reasoning.ParseReasonerType(" owl_mini ")
	require.NoError(t, err)
	assert.Equal(t, reasoning.OWLMini, rt)

	_, err = reasoning.ParseReasonerType("pellet")
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "OWL_MICRO")
}

func TestExamplesCatalogue(t *testing.T) {
	cat, err := reasoning.Examples()
	require.NoError(t, err)

	names := make([]string, len(cat))
	for i, e := range cat {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"rdfs_subclass", "owl_symmetric", "owl_transitive", "custom_family", "telecom_transfer"}, names)

	raw, err := json.Marshal(cat)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"rdfs_subclass":".*","owl_symmetric":.*"telecom_transfer":".*"\}$`, string(raw))

	e, ok := cat.Get("rdfs_subclass")
	require.True(t, ok)
	f := newFixture(t, reasoning.OrchestratorOptions{})
	res, err := f.orch.Execute(context.Background(), reasoning.Request{Data: e.Content, Reasoner: e.Reasoner})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.NewTriples, 2)
}
