package reasoning

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/metrics"
	"github.com/teranos/kgbridge/sym"
	"github.com/teranos/kgbridge/triple"
)

// ModelImporter persists a model into the graph store.
type ModelImporter interface {
	Import(ctx context.Context, model *triple.Model) (graph.ImportStats, error)
}

// ModelExporter reads the graph store back as a model.
type ModelExporter interface {
	Export(ctx context.Context) (*triple.Model, error)
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Limits Limits
	// TransferRulesPaths are tried in order by InferTransferProcess.
	TransferRulesPaths []string
	Metrics            *metrics.Metrics
}

// Orchestrator runs reasoning requests end to end: payload detection and
// parsing, reasoner selection, inference, diffing and optional
// persistence.
type Orchestrator struct {
	importer      ModelImporter
	exporter      ModelExporter
	limits        Limits
	transferPaths []string
	metrics       *metrics.Metrics
	logger        *zap.SugaredLogger
}

// NewOrchestrator creates an orchestrator. importer and exporter may be
// nil, in which case Persist and UseStoreData requests fail validation.
func NewOrchestrator(importer ModelImporter, exporter ModelExporter, opts OrchestratorOptions, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = logger.Logger
	}
	paths := opts.TransferRulesPaths
	if len(paths) == 0 {
		paths = DefaultTransferRulesPaths
	}
	return &Orchestrator{
		importer:      importer,
		exporter:      exporter,
		limits:        opts.Limits,
		transferPaths: paths,
		metrics:       opts.Metrics,
		logger:        logger.WithSymbol(log.Named("reasoning.orchestrator"), sym.SE),
	}
}

// run tracks the stage of one request so failures name where they happened.
type run struct {
	log   *zap.SugaredLogger
	stage Stage
	start time.Time
}

func (r *run) enter(s Stage, keysAndValues ...interface{}) {
	r.stage = s
	r.log.Debugw("Reasoning stage", append([]interface{}{logger.FieldStage, s}, keysAndValues...)...)
}

func (r *run) fail(err error) error {
	failedAt := r.stage
	r.stage = StageFailed
	r.log.Warnw("Reasoning failed",
		logger.FieldStage, failedAt,
		logger.FieldError, err,
		logger.FieldDurationMS, time.Since(r.start).Milliseconds())
	return errors.WithDetailf(err, "failed at stage %s", failedAt)
}

// inference is what Execute and InferredOnly share.
type inference struct {
	reasoner ReasonerType
	base     *triple.Model
	result   *triple.Model
	diff     *triple.Model
	stats    InferenceStats
}

func (o *Orchestrator) begin(ctx context.Context) *run {
	r := &run{log: logger.FromContext(ctx, o.logger), start: time.Now()}
	r.enter(StageReceived)
	return r
}

func (o *Orchestrator) infer(ctx context.Context, r *run, req Request) (*inference, error) {
	rt, err := ParseReasonerType(req.Reasoner)
	if err != nil {
		return nil, err
	}
	if rt == Custom && strings.TrimSpace(req.CustomRules) == "" {
		return nil, errors.WithHint(
			errors.NewReasonerSelectionError("custom rules are required for reasoner type CUSTOM"),
			"send the rules in customRules, or pick RDFS, OWL, OWL_MINI or OWL_MICRO")
	}
	if !req.UseStoreData && strings.TrimSpace(req.Data) == "" {
		return nil, errors.NewValidationError("rdfData is required unless useStoreData is set")
	}

	base, err := o.baseModel(ctx, r, req)
	if err != nil {
		return nil, err
	}
	r.enter(StageParsed, logger.FieldTriples, base.Len())

	reasoner, err := NewReasoner(rt, req.CustomRules, o.limits)
	if err != nil {
		return nil, err
	}
	r.enter(StageReasonerSelected, logger.FieldReasoner, rt)

	started := time.Now()
	result, stats, err := reasoner.Infer(ctx, base)
	if err != nil {
		o.metrics.Inference(string(rt), 0, time.Since(started), err)
		return nil, err
	}
	r.enter(StageInferred,
		logger.FieldInferred, result.Len(),
		logger.FieldRounds, stats.Rounds)

	diff := result.Difference(base)
	o.metrics.Inference(string(rt), diff.Len(), time.Since(started), nil)
	r.enter(StageDiffed, "new_triples", diff.Len())

	return &inference{reasoner: rt, base: base, result: result, diff: diff, stats: stats}, nil
}

func (o *Orchestrator) baseModel(ctx context.Context, r *run, req Request) (*triple.Model, error) {
	if req.UseStoreData {
		if o.exporter == nil {
			return nil, errors.NewValidationError("useStoreData requires a graph store")
		}
		model, err := o.exporter.Export(ctx)
		if err != nil {
			return nil, err
		}
		if model.Len() == 0 {
			return nil, errors.WithHint(
				errors.NewValidationError("the graph store holds no data to reason over"),
				"import RDF first")
		}
		return model, nil
	}

	payload := []byte(req.Data)
	det := triple.DetectFormat(payload, req.ContentType)
	r.enter(StageFormatDetected,
		logger.FieldFormat, det.Format,
		"detected_by", det.Source)
	return triple.Parse(ctx, payload, det.Format)
}

// Execute runs the full pipeline. A failed persist is reported in the
// result and does not fail the request.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*InferenceResult, error) {
	r := o.begin(ctx)
	inf, err := o.infer(ctx, r, req)
	if err != nil {
		return nil, r.fail(err)
	}

	res := &InferenceResult{
		Success:         true,
		ReasonerType:    string(inf.reasoner),
		OriginalTriples: inf.base.Len(),
		InferredTriples: inf.result.Len(),
		NewTriples:      inf.result.Len() - inf.base.Len(),
		Rounds:          inf.stats.Rounds,
		Result:          inf.result,
		Diff:            inf.diff,
	}

	if req.Persist {
		o.persist(ctx, r, inf.result, res)
	}

	res.ResultData, err = triple.SerializeString(ctx, inf.result, triple.Turtle, triple.SerializeOptions{})
	if err != nil {
		return nil, r.fail(err)
	}
	res.ExecutionTimeMS = time.Since(r.start).Milliseconds()
	r.enter(StageCompleted)

	r.log.Infow("Reasoning finished",
		logger.FieldReasoner, res.ReasonerType,
		"original_triples", res.OriginalTriples,
		logger.FieldInferred, res.InferredTriples,
		"new_triples", res.NewTriples,
		logger.FieldRounds, res.Rounds,
		"persisted", res.Persisted,
		logger.FieldDurationMS, res.ExecutionTimeMS)
	return res, nil
}

func (o *Orchestrator) persist(ctx context.Context, r *run, model *triple.Model, res *InferenceResult) {
	if o.importer == nil {
		res.PersistError = "no graph store configured"
		r.log.Warnw("Persist skipped", logger.FieldError, res.PersistError)
		return
	}
	stats, err := o.importer.Import(ctx, model)
	if err != nil {
		res.PersistError = err.Error()
		r.log.Warnw("Persist failed, returning inference result anyway", logger.FieldError, err)
		return
	}
	res.Persisted = true
	r.enter(StagePersisted,
		logger.FieldNodes, stats.Nodes,
		logger.FieldEdges, stats.Edges)
}

// InferredOnly runs the pipeline up to diffing and returns only the
// triples the reasoner added. It never persists.
func (o *Orchestrator) InferredOnly(ctx context.Context, req Request) (*triple.Model, error) {
	r := o.begin(ctx)
	req.Persist = false
	inf, err := o.infer(ctx, r, req)
	if err != nil {
		return nil, r.fail(err)
	}
	r.enter(StageCompleted)
	r.log.Infow("Inferred triples computed",
		logger.FieldReasoner, inf.reasoner,
		"new_triples", inf.diff.Len(),
		logger.FieldDurationMS, time.Since(r.start).Milliseconds())
	return inf.diff, nil
}
