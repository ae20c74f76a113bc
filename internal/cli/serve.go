package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/address-classifier/app/bootstrap"
	"github.com/address-classifier/app/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	verbose = true
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mutate := func(cfg *config.Config) {
		if servePort != "" {
			cfg.Server.Port = servePort
		}
	}
	return withApp(ctx, mutate, func(app *bootstrap.App) error {
		srv := &http.Server{
			Addr:              ":" + app.Config.Server.Port,
			Handler:           app.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting HTTP server", zap.String("port", app.Config.Server.Port))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		app.Logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
