package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/display"
	"github.com/teranos/kgbridge/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show kgbridge version information",
	Long:  `Display version, build time, commit hash, and platform information for the kgbridge binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), info)
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return nil
	},
}
