package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/address-classifier/app/bootstrap"
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/internal/format"
	"github.com/spf13/cobra"
)

var (
	parseFormat   string
	parseNoFill   bool
	parseSplitter string
	parseJSON     bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [address]",
	Short: "Parse addresses",
	Long: `Parse one address given as arguments, or one address per line
from stdin when no arguments are given.

Example:
  addrctl parse "г Москва, ул Тверская, д 1"
  addrctl parse --format "[CITY] [STREET] [HOUSE]" < addresses.txt
  addrctl parse --json --no-fill "Москва Тверская 1"`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "", "format string for the formatted field")
	parseCmd.Flags().BoolVar(&parseNoFill, "no-fill", false, "skip classifier lookups")
	parseCmd.Flags().StringVar(&parseSplitter, "splitter", "", `splitter override ("comma")`)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print full results as JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseFormat != "" {
		if _, err := format.Parse(parseFormat); err != nil {
			return describeFormatError(parseFormat, err)
		}
	}
	opts := requests.ParseOptions{
		Format:   parseFormat,
		NoFill:   parseNoFill,
		Splitter: parseSplitter,
		NoCache:  true,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return withApp(ctx, nil, func(app *bootstrap.App) error {
		if len(args) > 0 {
			return parseOne(ctx, app, cmd.OutOrStdout(), strings.Join(args, " "), opts)
		}
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := parseOne(ctx, app, cmd.OutOrStdout(), line, opts); err != nil {
				return err
			}
		}
		return scanner.Err()
	})
}

func parseOne(ctx context.Context, app *bootstrap.App, w io.Writer, text string, opts requests.ParseOptions) error {
	result, _, err := app.Address.Parse(ctx, requests.ParseAddressRequest{Address: text, Options: opts})
	if err != nil {
		return err
	}
	if parseJSON {
		return printJSON(w, result)
	}
	printResult(w, result)
	return nil
}

func printResult(w io.Writer, r *models.AddressResult) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", r.Status, r.Formatted, r.Tail)
	for _, m := range r.Messages {
		fmt.Fprintf(w, "\t%s %s: %s\n", m.Severity, m.Level, m.Text)
	}
}
