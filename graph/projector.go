package graph

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/sym"
)

// Snapshot window defaults
const (
	DefaultSnapshotNodeLimit = 500
	DefaultSnapshotEdgeLimit = 1000
)

// ProjectorOptions configures a Projector. Zero limits use the defaults.
type ProjectorOptions struct {
	NodeLimit int
	EdgeLimit int
}

// Projector produces bounded graph snapshots for visualization.
type Projector struct {
	store     Store
	nodeLimit int
	edgeLimit int
	logger    *zap.SugaredLogger
}

// NewProjector creates a projector over store. A nil logger uses the global one.
func NewProjector(store Store, opts ProjectorOptions, log *zap.SugaredLogger) *Projector {
	if log == nil {
		log = logger.Logger
	}
	if opts.NodeLimit <= 0 {
		opts.NodeLimit = DefaultSnapshotNodeLimit
	}
	if opts.EdgeLimit <= 0 {
		opts.EdgeLimit = DefaultSnapshotEdgeLimit
	}
	return &Projector{
		store:     store,
		nodeLimit: opts.NodeLimit,
		edgeLimit: opts.EdgeLimit,
		logger:    logger.WithSymbol(log.Named("graph.snapshot"), sym.AX),
	}
}

// Snapshot returns at most nodeLimit nodes and edgeLimit edges. Edges are
// not filtered against the node window, so links may reference nodes the
// snapshot does not include.
func (p *Projector) Snapshot(ctx context.Context) (*Graph, error) {
	nodes, err := p.store.Nodes(ctx, p.nodeLimit)
	if err != nil {
		return nil, err
	}
	edges, err := p.store.Edges(ctx, p.edgeLimit)
	if err != nil {
		return nil, err
	}
	totalNodes, totalEdges, err := p.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Nodes: make([]Node, 0, len(nodes)),
		Links: make([]Link, 0, len(edges)),
		Meta: Meta{
			GeneratedAt: time.Now(),
			Stats: Stats{
				TotalNodes:    totalNodes,
				TotalEdges:    totalEdges,
				ReturnedNodes: len(nodes),
				ReturnedEdges: len(edges),
			},
			Truncated: totalNodes > len(nodes) || totalEdges > len(edges),
		},
	}

	for _, n := range nodes {
		props := n.Properties
		if props == nil {
			props = map[string]string{}
		}
		labels := n.SortedLabels()
		if labels == nil {
			labels = []string{}
		}
		g.Nodes = append(g.Nodes, Node{ID: n.DisplayID(), Labels: labels, Properties: props})
	}
	for _, e := range edges {
		g.Links = append(g.Links, Link{Source: e.SourceDisplayID(), Target: e.TargetDisplayID(), Type: e.Type})
	}

	g.Meta.NodeTypes = collectNodeTypeInfo(g.Nodes)
	g.Meta.RelationshipTypes = collectRelationshipTypeInfo(g.Links)

	logger.FromContext(ctx, p.logger).Debugw("Snapshot built",
		logger.FieldNodes, len(g.Nodes),
		logger.FieldEdges, len(g.Links),
		"truncated", g.Meta.Truncated)
	return g, nil
}

// collectNodeTypeInfo counts nodes per label, most common first.
func collectNodeTypeInfo(nodes []Node) []NodeTypeInfo {
	counts := make(map[string]int)
	for _, n := range nodes {
		for _, l := range n.Labels {
			counts[l]++
		}
	}
	out := make([]NodeTypeInfo, 0, len(counts))
	for t, c := range counts {
		out = append(out, NodeTypeInfo{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// collectRelationshipTypeInfo counts links per type, most common first.
func collectRelationshipTypeInfo(links []Link) []RelationshipTypeInfo {
	counts := make(map[string]int)
	for _, l := range links {
		counts[l.Type]++
	}
	out := make([]RelationshipTypeInfo, 0, len(counts))
	for t, c := range counts {
		out = append(out, RelationshipTypeInfo{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
