// Package cmd defines and implements the CLI commands for the boe-ingest
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iurisdata/boe-ingest/internal/config"
	"github.com/iurisdata/boe-ingest/internal/logging"
)

var (
	cfgFile string

	// cfg and logger are initialized by the root PersistentPreRunE and
	// shared by every subcommand.
	cfg    config.Config
	logger *zap.Logger
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boe-ingest",
		Short: "Ingests Spain's consolidated legislation corpus.",
		Long: `boe-ingest enumerates the BOE consolidated-legislation catalog,
fetches each item's full text under a politeness contract, parses the
markup into normalized provisions and definitions, and persists seed
records for the downstream query database.`,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	cmd.AddCommand(newCensusCmd())
	cmd.AddCommand(newIngestCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
