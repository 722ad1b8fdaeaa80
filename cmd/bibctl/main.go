// Command bibctl drives the ingestion engine from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bibliophage/internal/app"
	"bibliophage/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bibctl",
		Short:         "Load, search and maintain the TTRPG document index",
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("json", false, "output results as JSON")

	root.AddCommand(loadCmd(), searchCmd(), reconcileCmd(), migrateCmd())
	return root
}

// loadConfig reads the environment and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(app.NewLogger(cfg))
	return cfg, nil
}

// withEngine builds the engine for one command and closes it afterwards.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, engine *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	engine, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer engine.Close()
	return fn(ctx, engine)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
