package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehr/hospital-console/internal/config"
	"github.com/ehr/hospital-console/internal/console"
	"github.com/ehr/hospital-console/internal/platform/logging"
)

// cli carries what every command needs, so tests can swap the app.
type cli struct {
	config func() (*config.Config, error)
	open   func(ctx context.Context) (*console.App, error)
	in     io.Reader
}

func main() {
	c := &cli{config: loadConfig, in: os.Stdin}
	c.open = c.openApp

	if err := newRootCmd(c).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hospital-console",
		Short:        "Hospital administration console",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd(c))
	rootCmd.AddCommand(loginCmd(c), logoutCmd(c), whoamiCmd(c), menuCmd(c))
	rootCmd.AddCommand(listCmd(c), getCmd(c), deleteCmd(c), reactivateCmd(c), purgeCmd(c))
	rootCmd.AddCommand(dashboardCmd(c))
	rootCmd.AddCommand(migrateCmd(c))
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) openApp(ctx context.Context) (*console.App, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	return console.NewApp(ctx, cfg, logger)
}

// withApp opens the app for one command and closes it afterwards.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *console.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func serveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				return runServer(app)
			})
		},
	}
}

func runServer(app *console.App) error {
	logger := app.Logger
	e := app.NewServer()

	// Graceful shutdown
	go func() {
		addr := app.Config.ListenAddr()
		logger.Info().Str("addr", addr).Str("backend", app.Config.APIBaseURL).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
