package graph

import (
	"time"
)

// Graph is the bounded snapshot handed to visualization clients.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"relationships"`
	Meta  Meta   `json:"meta"`
}

// Node represents a stored node in the snapshot
type Node struct {
	ID         string            `json:"id"`
	Labels     []string          `json:"labels"`
	Properties map[string]string `json:"properties"`
}

// Link represents a relationship between nodes
type Link struct {
	Source string `json:"source"` // Node ID
	Target string `json:"target"` // Node ID
	Type   string `json:"type"`   // Relationship type, e.g. "FRIENDOF"
}

// Meta contains metadata about the snapshot
type Meta struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	Stats             Stats                  `json:"stats"`
	Truncated         bool                   `json:"truncated"`
	NodeTypes         []NodeTypeInfo         `json:"node_types"`
	RelationshipTypes []RelationshipTypeInfo `json:"relationship_types"`
}

// NodeTypeInfo counts the returned nodes carrying a label
type NodeTypeInfo struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// RelationshipTypeInfo counts the returned links of a type
type RelationshipTypeInfo struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats provides graph statistics. Totals cover the whole store, the
// returned counts only the snapshot window.
type Stats struct {
	TotalNodes    int `json:"total_nodes"`
	TotalEdges    int `json:"total_edges"`
	ReturnedNodes int `json:"returned_nodes"`
	ReturnedEdges int `json:"returned_edges"`
}
