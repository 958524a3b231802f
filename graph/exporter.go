package graph

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/metrics"
	"github.com/teranos/kgbridge/sym"
	"github.com/teranos/kgbridge/triple"
)

// DefaultBaseNamespace prefixes every exported class and predicate.
const DefaultBaseNamespace = "http://example.org/ont#"

// ExportOptions configures an Exporter.
type ExportOptions struct {
	BaseNamespace string
	Metrics       *metrics.Metrics
}

// Exporter rebuilds an RDF model from a Store.
type Exporter struct {
	store   Store
	base    string
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// NewExporter creates an exporter over store. A nil logger uses the global one.
func NewExporter(store Store, opts ExportOptions, log *zap.SugaredLogger) *Exporter {
	if log == nil {
		log = logger.Logger
	}
	base := opts.BaseNamespace
	if base == "" {
		base = DefaultBaseNamespace
	}
	return &Exporter{
		store:   store,
		base:    base,
		metrics: opts.Metrics,
		logger:  logger.WithSymbol(log.Named("graph.export"), sym.AX),
	}
}

// BaseNamespace returns the namespace used for exported classes and predicates.
func (ex *Exporter) BaseNamespace() string {
	return ex.base
}

// Export reads every node and edge and returns them as triples.
//
// The mapping is lossy. Labels come back as rdf:type <base+label>, every
// property as <base+name> with a plain literal, and every edge as
// <base+TYPE>. Blank-node keys become fresh blank nodes, one per key.
func (ex *Exporter) Export(ctx context.Context) (*triple.Model, error) {
	start := time.Now()
	log := logger.FromContext(ctx, ex.logger)

	nodes, err := ex.store.Nodes(ctx, 0)
	if err != nil {
		return nil, err
	}
	edges, err := ex.store.Edges(ctx, 0)
	if err != nil {
		return nil, err
	}

	model := triple.NewModel()
	resources := newResourceMap()
	skipped := 0

	for _, n := range nodes {
		if n.Key == "" {
			skipped++
			continue
		}
		subject := resources.resolve(n.Key)
		for _, label := range n.Labels {
			model.Add(triple.T(subject, triple.TypeIRI, triple.NewIRI(ex.base+label)))
		}
		for name, value := range n.Properties {
			if name == triple.IdentityProperty {
				continue
			}
			model.Add(triple.T(subject, triple.NewIRI(ex.base+name), triple.NewLiteral(value)))
		}
	}

	for _, e := range edges {
		if e.SourceKey == "" || e.TargetKey == "" {
			skipped++
			continue
		}
		model.Add(triple.T(
			resources.resolve(e.SourceKey),
			triple.NewIRI(ex.base+e.Type),
			resources.resolve(e.TargetKey),
		))
	}

	ex.metrics.TriplesExported(model.Len())
	log.Infow("Export finished",
		logger.FieldNodes, len(nodes),
		logger.FieldEdges, len(edges),
		logger.FieldTriples, model.Len(),
		"skipped", skipped,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return model, nil
}

// ExportTo exports and serializes in one step. Turtle output declares the
// base namespace as the "ont" prefix.
func (ex *Exporter) ExportTo(ctx context.Context, w io.Writer, format triple.Format) error {
	model, err := ex.Export(ctx)
	if err != nil {
		return err
	}
	return triple.Serialize(ctx, w, model, format, triple.SerializeOptions{
		Prefixes: map[string]string{"ont": ex.base},
	})
}

// resourceMap caches the resource minted for each node key during one export.
type resourceMap struct {
	scope string
	terms map[string]triple.Term
}

func newResourceMap() *resourceMap {
	return &resourceMap{
		scope: strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		terms: make(map[string]triple.Term),
	}
}

func (r *resourceMap) resolve(key string) triple.Term {
	if t, ok := r.terms[key]; ok {
		return t
	}
	var t triple.Term
	if triple.IsBlankKey(key) {
		t = triple.NewBlank("x" + r.scope + "_" + triple.SanitizeLabel(strings.TrimPrefix(key, triple.BlankKeyPrefix)))
	} else {
		t = triple.NewIRI(key)
	}
	r.terms[key] = t
	return t
}
