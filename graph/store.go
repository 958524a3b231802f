package graph

import (
	"context"
	"sort"
)

// Store is the property-graph capability set the bridge needs. Backends
// live in the sqlitestore, neo4jstore and redisstore subpackages.
//
// Writes use merge semantics: UpsertNode creates a node only when no node
// with that key exists; AddLabel and SetProperty are no-ops on a missing
// node; MergeEdge creates at most one edge per (from, to, relType) and
// does nothing when either endpoint is missing.
type Store interface {
	UpsertNode(ctx context.Context, key string) error
	AddLabel(ctx context.Context, key, label string) error
	SetProperty(ctx context.Context, key, name, value string) error
	MergeEdge(ctx context.Context, from, to, relType string) error

	// Nodes returns up to limit nodes; limit <= 0 means no limit.
	Nodes(ctx context.Context, limit int) ([]StoredNode, error)
	// Edges returns up to limit edges; limit <= 0 means no limit.
	Edges(ctx context.Context, limit int) ([]StoredEdge, error)
	Count(ctx context.Context) (nodes, edges int, err error)

	Clear(ctx context.Context) error
	Close() error
}

// Batcher is implemented by stores that can run several writes as one
// all-or-nothing unit. fn receives a Store bound to the transaction.
type Batcher interface {
	Batch(ctx context.Context, fn func(tx Store) error) error
}

// StoredNode is a node as read back from a store. Key is empty for nodes
// created outside the bridge without an identity property.
type StoredNode struct {
	InternalID string
	Key        string
	Labels     []string
	Properties map[string]string
}

// StoredEdge is a directed, typed edge as read back from a store.
type StoredEdge struct {
	SourceID  string
	SourceKey string
	TargetID  string
	TargetKey string
	Type      string
}

// DisplayID is the key, or "node_<internal id>" for keyless nodes.
func (n StoredNode) DisplayID() string {
	return displayID(n.Key, n.InternalID)
}

// SortedLabels returns the labels in lexical order.
func (n StoredNode) SortedLabels() []string {
	out := append([]string(nil), n.Labels...)
	sort.Strings(out)
	return out
}

func (e StoredEdge) SourceDisplayID() string { return displayID(e.SourceKey, e.SourceID) }
func (e StoredEdge) TargetDisplayID() string { return displayID(e.TargetKey, e.TargetID) }

func displayID(key, internal string) string {
	if key != "" {
		return key
	}
	return "node_" + internal
}
