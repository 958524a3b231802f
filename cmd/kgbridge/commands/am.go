package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/kgbridge/am"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Manage kgbridge configuration",
	Long: sym.AM + ` am - Manage kgbridge configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (KGBRIDGE_* prefix, e.g. KGBRIDGE_STORE_BACKEND)
2. Project config (./am.toml, searched upwards from the working directory)
3. User config (~/.kgbridge/am.toml)
4. System config (/etc/kgbridge/am.toml)
5. Default values

Examples:
  kgbridge am show                    # Show current configuration
  kgbridge am show --format yaml      # Show configuration as YAML
  kgbridge am validate                # Validate current configuration
  kgbridge am where                   # Show which files are consulted`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective kgbridge configuration from all sources",
	RunE:  runAmShow,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	out, err := renderConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// renderConfig marshals cfg in the requested format with passwords masked.
func renderConfig(cfg *am.Config, format string) (string, error) {
	redacted := *cfg
	redacted.Store.Neo4j.Password = redact(cfg.Store.Neo4j.Password)
	redacted.Store.Redis.Password = redact(cfg.Store.Redis.Password)

	switch format {
	case "json":
		data, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to JSON")
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(redacted)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to YAML")
		}
		return "# kgbridge configuration\n" + string(data), nil
	case "toml":
		data, err := toml.Marshal(redacted)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to TOML")
		}
		return "# kgbridge configuration\n" + string(data), nil
	default:
		return "", errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	active := am.ActiveConfigFile()
	paths := am.ConfigPaths()
	// Highest precedence first
	for i := len(paths) - 1; i >= 0; i-- {
		p := paths[i]
		switch _, err := os.Stat(p); {
		case p == active:
			pterm.Success.Printf("%s (active)\n", p)
		case err == nil:
			pterm.Info.Printf("%s\n", p)
		default:
			pterm.FgGray.Printf("  %s (missing)\n", p)
		}
	}
	return nil
}
