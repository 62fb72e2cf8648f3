package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iurisdata/boe-ingest/internal/clock/system"
	"github.com/iurisdata/boe-ingest/internal/fetcher"
	"github.com/iurisdata/boe-ingest/internal/ingest"
	"github.com/iurisdata/boe-ingest/internal/store"
)

// newIngestCmd creates the 'ingest' subcommand, which runs the
// fetch-parse-persist pipeline over the worklist.
func newIngestCmd() *cobra.Command {
	var (
		limit     int
		force     bool
		skipFetch bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Runs the ingestion pipeline over the worklist",
		Long: `Processes worklist entries in census order: fetch the consolidated
text, parse it into provisions and definitions, and persist one seed record
per item. Progress is flushed every batch, so an interrupted run resumes
from at most one batch back.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngestCommand(cmd, ingest.Options{
				Limit:     limit,
				Force:     force,
				SkipFetch: skipFetch,
				BatchSize: batchSize,
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "cap on items processed this run (0 = all)")
	cmd.Flags().BoolVar(&force, "force", false, "re-ingest items that already have a seed record")
	cmd.Flags().BoolVar(&skipFetch, "skip-fetch", false, "parse cached markup instead of fetching")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "entries between worklist flushes (default from config)")

	return cmd
}

func runIngestCommand(cmd *cobra.Command, opts ingest.Options) error {
	seeds, err := store.NewSeedDir(cfg.Storage.SeedDir)
	if err != nil {
		return fmt.Errorf("init seed store: %w", err)
	}
	raws, err := store.NewRawCacheDir(cfg.Storage.RawCacheDir)
	if err != nil {
		return fmt.Errorf("init raw cache: %w", err)
	}

	docFetcher := fetcher.New(fetcher.Config{
		UserAgent:   cfg.Fetch.UserAgent,
		MinDelay:    cfg.Fetch.MinDelay(),
		MaxRetries:  cfg.Fetch.MaxRetries,
		BackoffBase: cfg.Fetch.BackoffBase(),
		Timeout:     cfg.Fetch.Timeout(),
	}, logger)

	if opts.BatchSize <= 0 {
		opts.BatchSize = cfg.Ingest.BatchSize
	}

	runner := ingest.New(
		docFetcher,
		seeds,
		raws,
		store.NewWorklistFile(cfg.Storage.WorklistPath),
		system.New(),
		opts,
		logger,
	)

	report, err := runner.Run(cmd.Context())
	if report != nil {
		fmt.Print(report.String())
	}
	if err != nil {
		return fmt.Errorf("run ingestion: %w", err)
	}
	return nil
}
