package graph

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/metrics"
	"github.com/teranos/kgbridge/sym"
	"github.com/teranos/kgbridge/triple"
)

// ImportStats counts what one Import wrote. Nodes, Labels and Edges count
// distinct items touched, not items newly created.
type ImportStats struct {
	Triples    int `json:"triples"`
	Nodes      int `json:"nodes"`
	Labels     int `json:"labels"`
	Properties int `json:"properties"`
	Edges      int `json:"edges"`
	Skipped    int `json:"skipped"`
}

// ImportOptions configures an Importer.
type ImportOptions struct {
	// Atomic runs the whole import in one store transaction when the store
	// implements Batcher.
	Atomic  bool
	Metrics *metrics.Metrics
}

// Importer writes RDF models into a Store.
type Importer struct {
	store   Store
	atomic  bool
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// NewImporter creates an importer over store. A nil logger uses the global one.
func NewImporter(store Store, opts ImportOptions, log *zap.SugaredLogger) *Importer {
	if log == nil {
		log = logger.Logger
	}
	return &Importer{
		store:   store,
		atomic:  opts.Atomic,
		metrics: opts.Metrics,
		logger:  logger.WithSymbol(log.Named("graph.import"), sym.IX),
	}
}

// Import maps model onto the store in two passes.
//
// Pass 1 creates a node for every resource subject and object and applies
// rdf:type labels, literal type values included. Pass 2 visits every
// triple again: literal objects become node properties and resource
// objects become typed edges, so an rdf:type statement also yields a
// TYPE edge to its class node (or a "type" property when the value is a
// literal). Re-importing the same model changes nothing.
func (im *Importer) Import(ctx context.Context, model *triple.Model) (ImportStats, error) {
	start := time.Now()
	log := logger.FromContext(ctx, im.logger)
	triples := model.Triples()

	var (
		stats ImportStats
		err   error
	)
	batcher, canBatch := im.store.(Batcher)
	if im.atomic && canBatch {
		err = batcher.Batch(ctx, func(tx Store) error {
			stats = ImportStats{}
			return im.run(ctx, tx, triples, &stats)
		})
		if err != nil {
			// Rolled back: nothing was written.
			stats = ImportStats{}
		}
	} else {
		err = im.run(ctx, im.store, triples, &stats)
	}
	stats.Triples = len(triples)

	if err != nil {
		im.metrics.ImportFailed()
		log.Errorw("Import failed",
			logger.FieldTriples, len(triples),
			logger.FieldNodes, stats.Nodes,
			logger.FieldEdges, stats.Edges,
			logger.FieldError, err)
		return stats, err
	}

	im.metrics.TriplesImported(len(triples))
	log.Infow("Import finished",
		logger.FieldTriples, stats.Triples,
		logger.FieldNodes, stats.Nodes,
		logger.FieldEdges, stats.Edges,
		"labels", stats.Labels,
		"properties", stats.Properties,
		"skipped", stats.Skipped,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return stats, nil
}

func (im *Importer) run(ctx context.Context, s Store, triples []triple.Triple, stats *ImportStats) error {
	if err := im.upsertPass(ctx, s, triples, stats); err != nil {
		return partialImportError(err, 1, stats)
	}
	if err := im.relatePass(ctx, s, triples, stats); err != nil {
		return partialImportError(err, 2, stats)
	}
	return nil
}

func partialImportError(err error, pass int, stats *ImportStats) error {
	err = errors.Wrapf(err, "import pass %d", pass)
	return errors.WithDetailf(err, "written before failure: %d nodes, %d labels, %d properties, %d edges",
		stats.Nodes, stats.Labels, stats.Properties, stats.Edges)
}

func (im *Importer) upsertPass(ctx context.Context, s Store, triples []triple.Triple, stats *ImportStats) error {
	seen := make(map[string]struct{})
	labeled := make(map[[2]string]struct{})

	upsert := func(t triple.Term) (string, error) {
		key, ok := triple.NodeKey(t)
		if !ok {
			return "", nil
		}
		if _, done := seen[key]; done {
			return key, nil
		}
		if err := s.UpsertNode(ctx, key); err != nil {
			return "", err
		}
		seen[key] = struct{}{}
		stats.Nodes++
		return key, nil
	}

	for _, t := range triples {
		if err := ctx.Err(); err != nil {
			return err
		}
		sKey, err := upsert(t.S)
		if err != nil {
			return err
		}
		if _, err := upsert(t.O); err != nil {
			return err
		}

		if t.P.Value != triple.RDFType {
			continue
		}
		label := triple.LabelFor(t.O.Value)
		if label == "" {
			stats.Skipped++
			continue
		}
		if _, done := labeled[[2]string{sKey, label}]; done {
			continue
		}
		if err := s.AddLabel(ctx, sKey, label); err != nil {
			return err
		}
		labeled[[2]string{sKey, label}] = struct{}{}
		stats.Labels++
	}
	return nil
}

func (im *Importer) relatePass(ctx context.Context, s Store, triples []triple.Triple, stats *ImportStats) error {
	merged := make(map[[3]string]struct{})

	for _, t := range triples {
		if err := ctx.Err(); err != nil {
			return err
		}
		sKey, _ := triple.NodeKey(t.S)

		if t.O.IsLiteral() {
			name := triple.PropertyName(t.P.Value)
			if name == triple.IdentityProperty {
				im.logger.Debugw("Skipping property that would overwrite node identity",
					logger.FieldKey, sKey,
					logger.FieldPredicate, t.P.Value)
				stats.Skipped++
				continue
			}
			if err := s.SetProperty(ctx, sKey, name, t.O.Value); err != nil {
				return err
			}
			stats.Properties++
			continue
		}

		oKey, _ := triple.NodeKey(t.O)
		relType := triple.RelationshipType(t.P.Value)
		edge := [3]string{sKey, oKey, relType}
		if _, done := merged[edge]; done {
			continue
		}
		if err := s.MergeEdge(ctx, sKey, oKey, relType); err != nil {
			return err
		}
		if logger.TraceEnabled() {
			im.logger.Debugw("Edge merged",
				logger.FieldKey, sKey,
				logger.FieldPredicate, t.P.Value,
				"type", relType,
				"target", oKey)
		}
		merged[edge] = struct{}{}
		stats.Edges++
	}
	return nil
}
