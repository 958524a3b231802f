package commands

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/sym"
	"github.com/teranos/kgbridge/triple"
)

// ImportCmd imports an RDF file into the graph store
var ImportCmd = &cobra.Command{
	Use:     "import <file>",
	Aliases: []string{"ix"},
	Short:   sym.IX + " Import an RDF file into the graph store",
	Long: sym.IX + ` import - Materialize RDF triples as nodes, labels, properties and edges

The syntax is taken from --format, then the file extension, then the
content itself.

Examples:
  kgbridge import family.ttl
  kgbridge import ontology.owl --format rdfxml
  kgbridge import data.jsonld --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importFormat string
	importClear  bool
)

func init() {
	ImportCmd.Flags().StringVarP(&importFormat, "format", "f", "", "RDF syntax: turtle, rdfxml, jsonld, ntriples, n3")
	ImportCmd.Flags().BoolVar(&importClear, "clear", false, "Delete every node and edge before importing")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	payload, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	format, err := resolveFormat(importFormat, path, payload)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	model, err := triple.Parse(ctx, payload, format)
	if err != nil {
		return err
	}
	if importClear {
		if err := store.Clear(ctx); err != nil {
			return err
		}
	}
	stats, err := newImporter(store, cfg).Import(ctx, model)
	if err != nil {
		return err
	}

	pterm.Success.Printf("Imported %d triples from %s (%s) in %s\n",
		stats.Triples, filepath.Base(path), format, time.Since(start).Round(time.Millisecond))
	pterm.Printf("  Nodes: %d  Labels: %d  Properties: %d  Edges: %d  Skipped: %d\n",
		stats.Nodes, stats.Labels, stats.Properties, stats.Edges, stats.Skipped)
	return nil
}

// resolveFormat picks the syntax: explicit flag, then file extension,
// then content sniffing.
func resolveFormat(flag, path string, payload []byte) (triple.Format, error) {
	if flag != "" {
		return triple.ParseFormatName(flag)
	}
	if ext := filepath.Ext(path); ext != "" {
		if f, err := triple.ParseFormatName(ext); err == nil {
			return f, nil
		}
	}
	return triple.DetectFormat(payload, "").Format, nil
}
