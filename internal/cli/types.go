package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types <text>",
	Short: "Look up an address object type in the catalog",
	Long: `List the levels at which text is a known address object type,
with the canonical name and abbreviation.

Example:
  addrctl types ул
  addrctl types "р-н"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := newFormatService()
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		matches := fs.LookupTypes(text)
		if len(matches) == 0 {
			return fmt.Errorf("%q is not a known type", text)
		}
		for _, m := range matches {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-30s %-10s %d\n", m.Level, m.Type, m.Abbreviation, m.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
