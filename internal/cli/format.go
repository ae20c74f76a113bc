package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/address-classifier/app/services"
	"github.com/address-classifier/internal/catalog"
	"github.com/address-classifier/internal/format"
	"github.com/spf13/cobra"
)

var (
	renderNames  []string
	renderTypes  []string
	renderPostal string
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Validate and render format strings",
}

var formatValidateCmd = &cobra.Command{
	Use:   "validate <format>",
	Short: "Check a format string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pf, err := format.Parse(args[0])
		if err != nil {
			return describeFormatError(args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d items\n", pf.Len())
		return nil
	},
}

var formatRenderCmd = &cobra.Command{
	Use:   "render <format>",
	Short: "Render a format string over the given components",
	Long: `Render a format string over components given as LEVEL=value.

Example:
  addrctl format render "[CITY], [STREET] [HOUSE]" \
    --name CITY=Москва --type CITY=город --name STREET=Тверская --type STREET=улица --name HOUSE=1`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(formatCmd)
	formatCmd.AddCommand(formatValidateCmd, formatRenderCmd)

	formatRenderCmd.Flags().StringArrayVar(&renderNames, "name", nil, "component name as LEVEL=value")
	formatRenderCmd.Flags().StringArrayVar(&renderTypes, "type", nil, "component type as LEVEL=value")
	formatRenderCmd.Flags().StringVar(&renderPostal, "postal-code", "", "postal code")
}

func runRender(cmd *cobra.Command, args []string) error {
	names, err := keyValues(renderNames)
	if err != nil {
		return err
	}
	types, err := keyValues(renderTypes)
	if err != nil {
		return err
	}
	fs, err := newFormatService()
	if err != nil {
		return err
	}
	text, err := fs.Render(args[0], names, types, renderPostal)
	if err != nil {
		return describeFormatError(args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// newFormatService builds a format service over the embedded catalog only.
func newFormatService() (*services.FormatService, error) {
	rules, err := catalog.LoadRules()
	if err != nil {
		return nil, err
	}
	return services.NewFormatService(catalog.New(rules.Classifier, rules)), nil
}

func keyValues(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("expected LEVEL=value, got %q", p)
		}
		out[strings.TrimSpace(k)] = val
	}
	return out, nil
}

func describeFormatError(src string, err error) error {
	var syn *format.SyntaxError
	if !errors.As(err, &syn) {
		return err
	}
	return fmt.Errorf("%s\n  %s\n  %s", syn.Msg, src, syn.Caret(src))
}
