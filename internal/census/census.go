// Package census enumerates the remote legislation catalog into the
// authoritative worklist consumed by the ingestion run.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/iurisdata/boe-ingest/internal/boe"
)

// Config controls catalog pagination.
type Config struct {
	BaseURL  string
	PageSize int
}

const defaultPageSize = 500

// Builder pages through the catalog API and produces a complete,
// deterministically ordered worklist. A partial census is never accepted:
// any catalog-level failure aborts the build.
type Builder struct {
	fetcher boe.Fetcher
	seeds   boe.SeedStore
	clock   boe.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Builder. The fetcher must be a distinct throttle
// instance from the document fetcher; the catalog API is a different
// endpoint with its own politeness budget.
func New(f boe.Fetcher, seeds boe.SeedStore, clock boe.Clock, cfg Config, logger *zap.Logger) *Builder {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Builder{fetcher: f, seeds: seeds, clock: clock, cfg: cfg, logger: logger}
}

// statusEnvelope is the catalog API response wrapper.
type statusEnvelope struct {
	Data   []catalogRecord `json:"data"`
	Status struct {
		Code string `json:"code"`
		Text string `json:"text"`
	} `json:"status"`
}

// catalogRecord mirrors the upstream item shape.
type catalogRecord struct {
	Identifier      string     `json:"identificador"`
	Title           string     `json:"titulo"`
	ConsolidatedURL string     `json:"url_html_consolidada"`
	Scope           codedField `json:"ambito"`
	Rank            codedField `json:"rango"`
	Consolidation   codedField `json:"estado_consolidacion"`
	Expired         string     `json:"vigencia_agotada"`
	DispositionDate string     `json:"fecha_disposicion"`
}

type codedField struct {
	Code string `json:"codigo"`
	Text string `json:"texto"`
}

// Build enumerates the full catalog. The sole termination condition is a
// page shorter than the page size; no upstream total is trusted.
func (b *Builder) Build(ctx context.Context) (*boe.Worklist, error) {
	var entries []boe.WorklistEntry

	for offset := 0; ; offset += b.cfg.PageSize {
		page, err := b.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range page {
			entries = append(entries, b.toEntry(rec))
		}
		b.logger.Info("catalog page enumerated",
			zap.Int("offset", offset),
			zap.Int("items", len(page)),
		)
		if len(page) < b.cfg.PageSize {
			break
		}
	}

	sortEntries(entries)

	w := &boe.Worklist{
		Version:     "1",
		GeneratedAt: b.clock.Now(),
		Entries:     entries,
	}
	w.Recompute()
	return w, nil
}

func (b *Builder) fetchPage(ctx context.Context, offset int) ([]catalogRecord, error) {
	url := fmt.Sprintf("%s?offset=%d&limit=%d", b.cfg.BaseURL, offset, b.cfg.PageSize)
	res, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("catalog page at offset %d: %w", offset, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog page at offset %d: unexpected status %d", offset, res.StatusCode)
	}

	var envelope statusEnvelope
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode catalog page at offset %d: %w", offset, err)
	}
	if envelope.Status.Code != "200" {
		return nil, fmt.Errorf("catalog page at offset %d: upstream status %s (%s)",
			offset, envelope.Status.Code, envelope.Status.Text)
	}
	return envelope.Data, nil
}

// toEntry classifies a record and backfills ingestion state from any
// existing seed record. Outdated consolidations stay ingestable: they are
// flagged through the status mapping, not excluded.
func (b *Builder) toEntry(rec catalogRecord) boe.WorklistEntry {
	item := boe.CatalogItem{
		ID:                rec.Identifier,
		Title:             rec.Title,
		ConsolidatedURL:   rec.ConsolidatedURL,
		Scope:             rec.Scope.Text,
		Rank:              rec.Rank.Text,
		ConsolidationCode: rec.Consolidation.Code,
		Repealed:          rec.Expired == "S",
		DispositionDate:   parseDispositionDate(rec.DispositionDate),
	}

	entry := boe.WorklistEntry{CatalogItem: item, Classification: boe.ClassIngestable}
	if item.ID == "" || item.ConsolidatedURL == "" {
		entry.Classification = boe.ClassNotIngestable
		return entry
	}

	stat, err := b.seeds.Stat(item.ID)
	if err != nil {
		b.logger.Warn("seed stat failed", zap.String("id", item.ID), zap.Error(err))
		return entry
	}
	if stat.Exists {
		entry.Ingested = true
		entry.ProvisionCount = stat.ProvisionCount
		entry.IngestionDate = stat.IngestionDate
	}
	return entry
}

// sortEntries orders by disposition date descending, identifier ascending
// as tie-break. The ordering must be reproducible regardless of upstream
// response order.
func sortEntries(entries []boe.WorklistEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].DispositionDate, entries[j].DispositionDate
		switch {
		case di == nil && dj == nil:
			return entries[i].ID < entries[j].ID
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.After(*dj)
		default:
			return entries[i].ID < entries[j].ID
		}
	})
}

func parseDispositionDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return nil
	}
	return &t
}
