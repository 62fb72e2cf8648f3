// Package ingest drives the fetch-parse-persist pipeline over the census
// worklist, batching progress so an interrupted run resumes cleanly.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iurisdata/boe-ingest/internal/boe"
	"github.com/iurisdata/boe-ingest/internal/metrics"
	"github.com/iurisdata/boe-ingest/internal/parser"
	"github.com/iurisdata/boe-ingest/internal/store"
)

// Options are the operational knobs for one run.
type Options struct {
	// Limit caps the number of non-skipped items processed; 0 means all.
	Limit int
	// Force re-ingests items that already have a seed record.
	Force bool
	// SkipFetch reuses cached markup instead of hitting the network,
	// for parser iteration without politeness cost.
	SkipFetch bool
	// BatchSize controls how often the worklist is flushed to disk.
	BatchSize int
}

const defaultBatchSize = 25

// Runner executes the ingestion pipeline. Items are processed one at a
// time in worklist order: the politeness contract toward the gazette is
// the controlling constraint, not throughput.
type Runner struct {
	fetcher   boe.Fetcher
	seeds     boe.SeedStore
	raws      boe.RawCache
	worklists boe.WorklistStore
	clock     boe.Clock
	logger    *zap.Logger
	opts      Options
}

// New constructs a Runner.
func New(
	f boe.Fetcher,
	seeds boe.SeedStore,
	raws boe.RawCache,
	worklists boe.WorklistStore,
	clock boe.Clock,
	opts Options,
	logger *zap.Logger,
) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Runner{
		fetcher:   f,
		seeds:     seeds,
		raws:      raws,
		worklists: worklists,
		clock:     clock,
		logger:    logger,
		opts:      opts,
	}
}

// Run loads the worklist and processes its ingestable entries in order.
// Per-item failures degrade to fallback records and never abort the run;
// persistence failures do, because worklist integrity is gone.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	w, err := r.worklists.Load()
	if err != nil {
		return nil, fmt.Errorf("load worklist: %w", err)
	}

	report := &Report{RunID: uuid.NewString(), Started: r.clock.Now()}
	sinceFlush := 0
	attempted := 0

	for i := range w.Entries {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		if r.opts.Limit > 0 && attempted >= r.opts.Limit {
			break
		}

		entry := &w.Entries[i]
		if entry.Classification != boe.ClassIngestable {
			continue
		}

		outcome, err := r.processEntry(ctx, entry, report)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Interrupted mid-fetch: the item's output is either fully
				// written or not written at all, so flushing here leaves a
				// resumable worklist.
				report.Interrupted = true
				break
			}
			// Only persistence-level problems reach here.
			if ferr := r.worklists.Save(w); ferr != nil {
				r.logger.Error("flush after fatal error failed", zap.Error(ferr))
			}
			return report, err
		}

		report.Processed++
		report.record(outcome)
		if outcome != OutcomeSkipped {
			attempted++
			sinceFlush++
		}

		if sinceFlush >= r.opts.BatchSize {
			if err := r.worklists.Save(w); err != nil {
				return report, fmt.Errorf("flush worklist: %w", err)
			}
			sinceFlush = 0
			r.logger.Info("progress flushed",
				zap.Int("processed", report.Processed),
				zap.Int("ingested", w.Summary.TotalIngested),
			)
		}
	}

	if err := r.worklists.Save(w); err != nil {
		return report, fmt.Errorf("final worklist flush: %w", err)
	}
	report.Finished = r.clock.Now()
	return report, nil
}

// processEntry walks one entry through the per-item state machine:
// pending -> (fetching -> parsing) -> success | fallback | failed,
// or skipped when a seed record already exists and force is off.
func (r *Runner) processEntry(ctx context.Context, entry *boe.WorklistEntry, report *Report) (Outcome, error) {
	stat, err := r.seeds.Stat(entry.ID)
	if err != nil {
		return "", fmt.Errorf("stat seed %s: %w", entry.ID, err)
	}
	if stat.Exists && !r.opts.Force {
		if !entry.Ingested {
			r.markIngested(entry, stat.ProvisionCount)
		}
		return OutcomeSkipped, nil
	}

	raw, fetchStatus, fetchErr := r.acquire(ctx, entry)
	if fetchErr != nil {
		if isFatal(fetchErr) {
			return "", fetchErr
		}
		r.logger.Error("fetch failed, writing fallback record",
			zap.String("id", entry.ID),
			zap.Error(fetchErr),
		)
		report.addFailure(entry.ID, fetchErr)
		if err := r.writeFallback(entry); err != nil {
			return "", err
		}
		return OutcomeFailed, nil
	}
	if fetchStatus != http.StatusOK {
		// Deliberate policy: downstream always gets a record per item,
		// even without text, so the corpus never silently loses entries.
		r.logger.Warn("non-200 response, writing fallback record",
			zap.String("id", entry.ID),
			zap.Int("status_code", fetchStatus),
		)
		if err := r.writeFallback(entry); err != nil {
			return "", err
		}
		return OutcomeFallback, nil
	}

	doc := parser.Parse(raw.Body, r.metaFor(entry))
	if err := r.seeds.Put(doc); err != nil {
		return "", fmt.Errorf("persist seed %s: %w", entry.ID, err)
	}

	r.markIngested(entry, len(doc.Provisions))
	report.Provisions += len(doc.Provisions)
	report.Definitions += len(doc.Definitions)
	r.logger.Info("item ingested",
		zap.String("id", entry.ID),
		zap.Int("provisions", len(doc.Provisions)),
		zap.Int("definitions", len(doc.Definitions)),
	)
	return OutcomeSuccess, nil
}

// acquire returns the markup for entry, from cache in skip-fetch mode or
// from the network otherwise. A successful network fetch is cached before
// returning.
func (r *Runner) acquire(ctx context.Context, entry *boe.WorklistEntry) (boe.RawDocument, int, error) {
	if r.opts.SkipFetch {
		raw, err := r.raws.Get(entry.ID)
		if err != nil {
			return boe.RawDocument{}, 0, fmt.Errorf("raw cache miss for %s: %w", entry.ID, err)
		}
		return raw, http.StatusOK, nil
	}

	res, err := r.fetcher.Fetch(ctx, entry.ConsolidatedURL)
	if err != nil {
		return boe.RawDocument{}, 0, err
	}
	if res.StatusCode != http.StatusOK {
		return boe.RawDocument{}, res.StatusCode, nil
	}

	raw := boe.RawDocument{
		ItemID:    entry.ID,
		URL:       res.FinalURL,
		FetchedAt: r.clock.Now(),
		Body:      res.Body,
	}
	if err := r.raws.Put(raw); err != nil {
		return boe.RawDocument{}, 0, fmt.Errorf("cache raw %s: %w", entry.ID, err)
	}
	return raw, http.StatusOK, nil
}

// writeFallback persists the metadata-only record and marks the entry
// ingested with zero provisions.
func (r *Runner) writeFallback(entry *boe.WorklistEntry) error {
	doc := &boe.NormalizedDocument{
		ID:          entry.ID,
		Title:       entry.Title,
		Status:      entry.Status(),
		URL:         entry.ConsolidatedURL,
		IssuedDate:  entry.DispositionDate,
		Provisions:  []boe.Provision{},
		Definitions: []boe.Definition{},
	}
	if err := r.seeds.Put(doc); err != nil {
		return fmt.Errorf("persist fallback %s: %w", entry.ID, err)
	}
	metrics.FallbackRecords.Inc()
	r.markIngested(entry, 0)
	return nil
}

func (r *Runner) markIngested(entry *boe.WorklistEntry, provisions int) {
	now := r.clock.Now()
	entry.Ingested = true
	entry.ProvisionCount = provisions
	entry.IngestionDate = &now
}

func (r *Runner) metaFor(entry *boe.WorklistEntry) parser.ItemMeta {
	return parser.ItemMeta{
		ID:         entry.ID,
		Title:      entry.Title,
		Status:     entry.Status(),
		IssuedDate: entry.DispositionDate,
		URL:        entry.ConsolidatedURL,
	}
}

// isFatal separates run-aborting errors from per-item degradation.
func isFatal(err error) bool {
	return errors.Is(err, store.ErrPersistence) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
