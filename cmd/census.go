package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iurisdata/boe-ingest/internal/census"
	"github.com/iurisdata/boe-ingest/internal/clock/system"
	"github.com/iurisdata/boe-ingest/internal/fetcher"
	"github.com/iurisdata/boe-ingest/internal/store"
)

// newCensusCmd creates the 'census' subcommand, which enumerates the
// full remote catalog into the worklist document.
func newCensusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "census",
		Short: "Builds or refreshes the legislative worklist",
		Long: `Pages through the consolidated-legislation catalog API and writes
the complete worklist document, classifying each item and cross-referencing
already-ingested seed records. Any catalog-level failure aborts the census:
a partial catalog would silently under-enumerate the corpus.`,
		RunE: runCensusCommand,
	}
}

func runCensusCommand(cmd *cobra.Command, _ []string) error {
	seeds, err := store.NewSeedDir(cfg.Storage.SeedDir)
	if err != nil {
		return fmt.Errorf("init seed store: %w", err)
	}

	// The catalog API gets its own throttle; it is a distinct endpoint
	// from the document source with its own politeness budget.
	catalogFetcher := fetcher.New(fetcher.Config{
		UserAgent:   cfg.Fetch.UserAgent,
		MinDelay:    cfg.Fetch.MinDelay(),
		MaxRetries:  cfg.Fetch.MaxRetries,
		BackoffBase: cfg.Fetch.BackoffBase(),
		Timeout:     cfg.Fetch.Timeout(),
	}, logger)

	builder := census.New(catalogFetcher, seeds, system.New(), census.Config{
		BaseURL:  cfg.Catalog.BaseURL,
		PageSize: cfg.Catalog.PageSize,
	}, logger)

	worklist, err := builder.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("build census: %w", err)
	}

	if err := store.NewWorklistFile(cfg.Storage.WorklistPath).Save(worklist); err != nil {
		return fmt.Errorf("save worklist: %w", err)
	}

	logger.Info("census complete",
		zap.Int("total", worklist.Summary.Total),
		zap.Int("ingested", worklist.Summary.TotalIngested),
		zap.String("path", cfg.Storage.WorklistPath),
	)
	return nil
}
