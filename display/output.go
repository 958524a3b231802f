// Package display renders command results for humans or as JSON.
package display

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/errors"
)

// OutputEnv set to "json" makes JSON the default output.
const OutputEnv = "KGBRIDGE_OUTPUT"

// ShouldOutputJSON reports whether cmd should print JSON: an explicit
// --json on the command wins, then the global --json flag, then OutputEnv.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
			v, _ := cmd.Flags().GetBool("json")
			return v
		}
		if v, err := cmd.Root().PersistentFlags().GetBool("json"); err == nil && v {
			return true
		}
	}
	return strings.EqualFold(os.Getenv(OutputEnv), "json")
}

// OutputJSON writes v as indented JSON followed by a newline.
func OutputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	return nil
}
