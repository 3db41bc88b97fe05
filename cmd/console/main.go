package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"kommand-console/internal/config"
	"kommand-console/internal/console"
	"kommand-console/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flags struct {
	apiURL  string
	env     string
	backend string
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "kommand",
		Short:         "Terminal console for the KommandAI marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			f.apply(cfg)
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "marketplace API base URL (overrides API_BASE_URL)")
	cmd.Flags().StringVar(&f.env, "env", "", "environment name (overrides APP_ENV)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "session backend: file, redis or postgres (overrides STATE_BACKEND)")
	return cmd
}

func (f *flags) apply(cfg *config.Config) {
	if f.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(f.apiURL, "/")
	}
	if f.env != "" {
		cfg.App.Env = f.env
	}
	if f.backend != "" {
		cfg.State.Backend = strings.ToLower(f.backend)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.App.Env, cfg.App.LogOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger, using defaults: %v\n", err)
		log = logger.NewWithDefaults()
	}
	defer log.Sync()

	log.Info("Starting KommandAI console",
		zap.String("env", cfg.App.Env),
		zap.String("api", cfg.API.BaseURL),
		zap.String("backend", cfg.State.Backend),
	)

	// SIGINT ends the readline prompt itself; the signal context covers SIGTERM
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	app, err := console.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize console: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error closing console resources", zap.Error(err))
		}
		log.Info("Console exiting")
	}()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}

	prompter, closer, err := console.NewReadlinePrompter(cfg.App.HistoryFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Unblock a pending prompt when a termination signal arrives
	go func() {
		<-ctx.Done()
		closer.Close()
	}()

	return console.NewREPL(app, prompter, os.Stdout, cfg.App.LogDisplayLimit).Run(ctx)
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
