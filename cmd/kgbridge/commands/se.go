package commands

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/display"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/reasoning"
	"github.com/teranos/kgbridge/sym"
	"github.com/teranos/kgbridge/triple"
)

// ReasonCmd runs a reasoner over an RDF file or the store
var ReasonCmd = &cobra.Command{
	Use:     "reason [file]",
	Aliases: []string{"se"},
	Short:   sym.SE + " Run a reasoner over an RDF file or the graph store",
	Long: sym.SE + ` reason - Forward-chaining RDFS, OWL and custom rule inference

By default only the newly inferred triples are printed, as Turtle.

Examples:
  kgbridge reason family.ttl -r rdfs
  kgbridge reason family.ttl -r custom --rules family.rules --full
  kgbridge reason --from-store -r owl_micro --persist`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReason,
}

var (
	reasonType      string
	reasonRulesFile string
	reasonFromStore bool
	reasonPersist   bool
	reasonFull      bool
	reasonTransfer  bool
)

func init() {
	ReasonCmd.Flags().StringVarP(&reasonType, "reasoner", "r", string(reasoning.RDFS), "Reasoner: rdfs, owl, owl_mini, owl_micro, custom")
	ReasonCmd.Flags().StringVar(&reasonRulesFile, "rules", "", "Rule document for the custom reasoner")
	ReasonCmd.Flags().BoolVar(&reasonFromStore, "from-store", false, "Reason over the graph store instead of a file")
	ReasonCmd.Flags().BoolVar(&reasonPersist, "persist", false, "Import the enlarged model into the graph store")
	ReasonCmd.Flags().BoolVar(&reasonFull, "full", false, "Print the whole inferred model, not just the new triples")
	ReasonCmd.Flags().BoolVar(&reasonTransfer, "transfer", false, "Run the transfer-process rules and report steps and violations")
}

func runReason(cmd *cobra.Command, args []string) error {
	req := reasoning.Request{
		Reasoner:     reasonType,
		Persist:      reasonPersist,
		UseStoreData: reasonFromStore,
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", args[0])
		}
		req.Data = string(data)
		if f, err := triple.ParseFormatName(filepath.Ext(args[0])); err == nil {
			req.ContentType = f.ContentType()
		}
	} else if !reasonFromStore {
		return errors.New("an RDF file is required unless --from-store is set")
	}
	if reasonRulesFile != "" {
		rules, err := os.ReadFile(reasonRulesFile)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", reasonRulesFile)
		}
		req.CustomRules = string(rules)
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

	importer := newImporter(store, cfg)
	orch := reasoning.NewOrchestrator(importer, newExporter(store, cfg), reasoning.OrchestratorOptions{
		Limits: reasoning.Limits{
			MaxRounds:  cfg.Reasoning.MaxRounds,
			MaxTriples: cfg.Reasoning.MaxTriples,
		},
		TransferRulesPaths: cfg.GetTransferRulesPaths(),
	}, logger.Logger)

	if reasonTransfer {
		res, err := orch.InferTransferProcess(ctx, req.Data, req.ContentType)
		if err != nil {
			return err
		}
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), res)
		}
		pterm.Info.Printf("Steps (%d): %v\n", res.InferredStepCount, res.InferredSteps)
		if res.HasViolations {
			pterm.Warning.Printf("Violations: %v\n", res.RuleViolations)
		} else {
			pterm.Success.Println("No rule violations")
		}
		return nil
	}

	res, err := orch.Execute(ctx, req)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), res)
	}
	pterm.Info.Printf("%s %s: %d original, %d inferred, %d new in %dms (%d rounds)\n",
		sym.SE, res.ReasonerType, res.OriginalTriples, res.InferredTriples, res.NewTriples, res.ExecutionTimeMS, res.Rounds)
	if reasonPersist {
		if res.Persisted {
			pterm.Success.Println("Result persisted to the graph store")
		} else {
			pterm.Warning.Printf("Persist failed: %s\n", res.PersistError)
		}
	}

	model := res.Diff
	if reasonFull {
		model = res.Result
	}
	return triple.Serialize(ctx, cmd.OutOrStdout(), model, triple.Turtle, triple.SerializeOptions{})
}
