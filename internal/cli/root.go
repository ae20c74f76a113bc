// Package cli implements the addrctl command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/address-classifier/app/bootstrap"
	"github.com/address-classifier/app/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "addrctl",
	Short: "Parse, classify and format Russian postal addresses",
	Long: `addrctl parses free-form Russian addresses into structured
components, validates them against the address object type catalog and
the classifier, and renders them with format strings.

Configuration is read from --config, then ADDR_* environment variables,
then flags.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "addrctl v0.3.0")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/addrsvc.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	rootCmd.PersistentFlags().String("cache", "", "result cache backend (none, memory, redis, mongo, hybrid)")
	rootCmd.PersistentFlags().String("classifier", "", "classifier backend (memory, meili)")
	rootCmd.PersistentFlags().String("data", "", "classifier data: YAML file, mongo, or empty for the sample")
	rootCmd.PersistentFlags().Bool("libpostal", false, "split addresses with libpostal")

	bindFlag("cache.backend", "cache")
	bindFlag("classifier.backend", "classifier")
	bindFlag("classifier.data", "data")
	bindFlag("parser.use_libpostal", "libpostal")

	rootCmd.AddCommand(versionCmd)
}

func bindFlag(key, flag string) {
	_ = v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
}

// loadConfig merges the config file, environment and flags.
func loadConfig(vp *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Override(vp)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return bootstrap.NewLogger(cfg)
}

// withApp assembles the service, runs fn and releases it.
func withApp(ctx context.Context, mutate func(*config.Config), fn func(*bootstrap.App) error) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())
	return fn(app)
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(value)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

// Main runs the tool and returns the process exit code.
func Main() int {
	return exitCode(Execute())
}
