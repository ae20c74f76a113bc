package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/address-classifier/app/bootstrap"
	"github.com/address-classifier/app/config"
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/app/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	output  string
	fmtStr  string
	noFill  bool
)

var rootCmd = &cobra.Command{
	Use:   "worker <input>",
	Short: "Parse a file of addresses in bulk",
	Long: `Parse one address per line of <input> with the job worker pool and
write the results to --output. A .xlsx output gets a spreadsheet, any
other name gets NDJSON.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "config/addrsvc.yaml", "config file")
	rootCmd.Flags().StringVarP(&output, "output", "o", "results.xlsx", "output file")
	rootCmd.Flags().StringVar(&fmtStr, "format", "", "format string for the formatted column")
	rootCmd.Flags().BoolVar(&noFill, "no-fill", false, "skip classifier lookups")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Override(config.NewViper()); err != nil {
		return err
	}
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addresses, err := readLines(args[0])
	if err != nil {
		return err
	}
	logger.Info("Starting address worker",
		zap.String("input", args[0]),
		zap.Int("addresses", len(addresses)),
		zap.Int("workers", cfg.Jobs.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Close(shutdownCtx); err != nil {
			logger.Error("Worker shutdown failed", zap.Error(err))
		}
	}()

	opts := requests.ParseOptions{Format: fmtStr, NoFill: noFill}
	results, err := parseAll(ctx, app.Jobs, addresses, cfg.Jobs.MaxAddresses, opts, logger)
	if err != nil {
		return err
	}
	if err := writeResults(output, results); err != nil {
		return err
	}
	logger.Info("Worker finished", zap.String("output", output), zap.Int("results", len(results)))
	return nil
}

// parseAll submits addresses in chunks no larger than the job limit.
func parseAll(ctx context.Context, jobs *services.JobService, addresses []string, chunk int, opts requests.ParseOptions, logger *zap.Logger) ([]*models.AddressResult, error) {
	if chunk <= 0 {
		chunk = len(addresses)
	}
	results := make([]*models.AddressResult, 0, len(addresses))
	for start := 0; start < len(addresses); start += chunk {
		end := min(start+chunk, len(addresses))
		job, err := jobs.Submit(addresses[start:end], opts)
		if err != nil {
			return nil, err
		}
		job, err = jobs.Wait(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		logger.Info("Chunk done",
			zap.String("job_id", job.ID),
			zap.Int("processed", job.Processed),
			zap.Int("failed", job.Failed))
		part, err := jobs.Results(job.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, part...)
	}
	return results, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeResults(path string, results []*models.AddressResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	var w io.Writer = f
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = services.WriteXLSX(w, results)
	} else {
		bw := bufio.NewWriter(f)
		if err = services.WriteNDJSON(bw, results); err == nil {
			err = bw.Flush()
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
