package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/radulovicigor/CBCGchatbot/internal/app"
	"github.com/radulovicigor/CBCGchatbot/internal/config"
	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
)

var rootCmd = &cobra.Command{
	Use:   "cbcgctl",
	Short: "Operate the CBCG chatbot",
	Long: `cbcgctl imports documents into the collection, rebuilds the semantic index,
and runs the question-answering pipeline without the HTTP server.
Configuration is read from the environment and .env, like the API server.`,
	SilenceUsage: true,
}

// withApp loads configuration, wires the application and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := app.NewLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = contextutil.WithLogger(ctx, logger)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	return fn(ctx, a)
}

// loadLocalIndex publishes the semantic index unless retrieval is hosted.
func loadLocalIndex(ctx context.Context, a *app.App) error {
	if a.Config.UseHostedRetrieval() {
		return nil
	}
	return a.LoadIndex(ctx)
}
