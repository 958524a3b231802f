// Package sym defines canonical glyphs for kgbridge subsystems.
// These symbols are stable across CLI output, logs and documentation.
package sym

// Primary operators, one per pipeline direction.
const (
	AM = "≡" // am: configuration and system settings
	IX = "⨳" // ix: ingest RDF into the property graph
	AX = "⋈" // ax: read the graph back (export, snapshot)
	SE = "⊨" // se: entailment/reasoning
)

// System infrastructure symbols.
const (
	DB = "⊔" // graph store layer
)

// entry binds a glyph to its label and description.
type entry struct {
	glyph       string
	label       string
	description string
}

var registry = []entry{
	{AM, "Configuration", "System settings and state"},
	{IX, "Import", "Materialize RDF triples as nodes, labels, properties and edges"},
	{AX, "Export", "Reconstruct RDF or a bounded snapshot from the graph"},
	{SE, "Entailment", "Forward-chaining RDFS, OWL and custom rule inference"},
	{DB, "Storage", "Graph store backend"},
}

// PaletteOrder defines the canonical ordering for CLI help and banners.
var PaletteOrder = []string{AM, IX, AX, SE}

// Descriptions maps glyphs to a "Label: description" line.
var Descriptions = map[string]string{}

func init() {
	for _, e := range registry {
		Descriptions[e.glyph] = e.label + ": " + e.description
	}
}

// Label returns the short label for a glyph, or "" when unknown.
func Label(glyph string) string {
	for _, e := range registry {
		if e.glyph == glyph {
			return e.label
		}
	}
	return ""
}
