package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/display"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/sym"
	"github.com/teranos/kgbridge/triple"
)

// ExportCmd writes the graph store as RDF
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: sym.AX + " Export the graph store as RDF",
	Long: sym.AX + ` export - Reconstruct RDF from the graph store

The mapping is lossy: labels, properties and edge types come back under
graph.base_namespace and literal datatypes are not preserved.

Examples:
  kgbridge export > graph.ttl
  kgbridge export --format ntriples -o graph.nt`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// SnapshotCmd prints a bounded JSON snapshot of the graph
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: sym.AX + " Print a bounded JSON snapshot of the graph",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	ExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "turtle", "Output syntax: turtle, ntriples")
	ExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := triple.ParseFormatName(exportFormat)
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

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", exportOutput)
		}
		defer f.Close()
		out = f
	}
	return newExporter(store, cfg).ExportTo(ctx, out, format)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
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

	g, err := graph.NewProjector(store, graph.ProjectorOptions{
		NodeLimit: cfg.Graph.SnapshotNodeLimit,
		EdgeLimit: cfg.Graph.SnapshotEdgeLimit,
	}, logger.Logger).Snapshot(ctx)
	if err != nil {
		return err
	}
	return display.OutputJSON(cmd.OutOrStdout(), g)
}
