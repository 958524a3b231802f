package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/cmd/kgbridge/commands"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/logger"
)

var rootCmd = &cobra.Command{
	Use:   "kgbridge",
	Short: "kgbridge - RDF to property-graph bridge with rule-based inference",
	Long: `kgbridge - RDF to property-graph bridge with rule-based inference.

kgbridge imports RDF (Turtle, RDF/XML, JSON-LD, N-Triples) into a property
graph store, exports the graph back as RDF, and runs RDFS, OWL and custom
forward-chaining rules over RDF data.

Available commands:
  am       - Manage kgbridge configuration ("I am")
  import   - Import an RDF file into the graph store
  export   - Export the graph store as RDF
  snapshot - Print a bounded JSON snapshot of the graph
  reason   - Run a reasoner over an RDF file or the store
  rules    - Validate rule documents and list examples
  server   - Start the HTTP API

Examples:
  kgbridge am show                       # Show current configuration
  kgbridge import family.ttl             # Import a Turtle file
  kgbridge reason family.ttl -r rdfs     # Print RDFS inferences
  kgbridge rules validate family.rules   # Check a rule document
  kgbridge server                        # Start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'am show' writes the config to stdout; keep it free of log lines
		if cmd.Name() != "show" {
			if err := logger.Initialize(false); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logger.SetVerbosity(verbosity)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON (also KGBRIDGE_OUTPUT=json)")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.ImportCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.SnapshotCmd)
	rootCmd.AddCommand(commands.ReasonCmd)
	rootCmd.AddCommand(commands.RulesCmd)
	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
