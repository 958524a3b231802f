package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/display"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/reasoning"
	"github.com/teranos/kgbridge/sym"
)

// RulesCmd groups the rule document tools
var RulesCmd = &cobra.Command{
	Use:   "rules",
	Short: sym.SE + " Validate rule documents and browse the built-in rule sets",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a rule document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesValidate,
}

var rulesExamplesCmd = &cobra.Command{
	Use:   "examples [name]",
	Short: "List the example catalogue, or print one example",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesExamples,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <reasoner>",
	Short: "Print the built-in rules of a reasoner",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

func init() {
	RulesCmd.AddCommand(rulesValidateCmd)
	RulesCmd.AddCommand(rulesExamplesCmd)
	RulesCmd.AddCommand(rulesShowCmd)
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", args[0])
	}
	report := reasoning.ValidateRules(string(text))

	if display.ShouldOutputJSON(cmd) {
		if err := display.OutputJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else if report.Valid {
		pterm.Success.Println(report.Message)
		for _, r := range report.Rules {
			pterm.Printf("  %s: %s -> %s\n", r.Name, r.Body, r.Head)
		}
	} else {
		pterm.Error.Println(report.Message)
		if report.Error != "" {
			pterm.Printf("  %s\n", report.Error)
		}
		if report.Suggestion != "" {
			pterm.Info.Println(report.Suggestion)
		}
	}

	if !report.Valid {
		return errors.NewValidationError("%s: %s", args[0], report.Message)
	}
	return nil
}

func runRulesExamples(cmd *cobra.Command, args []string) error {
	catalogue, err := reasoning.Examples()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		ex, ok := catalogue.Get(args[0])
		if !ok {
			return errors.NewNotFoundError("no example named %q", args[0])
		}
		fmt.Fprint(cmd.OutOrStdout(), ex.Content)
		return nil
	}

	data := pterm.TableData{{"Name", "Kind", "Reasoner"}}
	for _, ex := range catalogue {
		data = append(data, []string{ex.Name, ex.Kind, ex.Reasoner})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	rt, err := reasoning.ParseReasonerType(args[0])
	if err != nil {
		return err
	}
	rules, err := reasoning.BuiltinRuleSet(rt)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, r := range rules.Rules {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
