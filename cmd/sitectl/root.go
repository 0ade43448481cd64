package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/northbeam/leadsite/internal/config"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.Getenv

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitectl",
		Short: "Operate the lead-site API",
		Long: `sitectl manages the lead-site API outside the HTTP surface.

Available commands:
  migrate - apply or roll back the embedded schema migrations
  user    - manage back-office users
  calc    - run a calculator locally and print the result
  crm     - verify signatures of captured CRM events`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd(), newUserCmd(), newCalcCmd(), newCRMCmd())
	return root
}

// loadConfig reads the same environment as the API server.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.LogLevel == "debug" {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, opts)).With("component", "sitectl")
	return cfg, logger, nil
}
