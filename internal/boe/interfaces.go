package boe

import (
	"context"
	"time"
)

// Fetcher retrieves a single URL under the politeness contract.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// FetchResult is the outcome of one fetch, post-redirect.
type FetchResult struct {
	StatusCode  int
	Body        []byte
	ContentType string
	FinalURL    string
}

// SeedStat summarizes an existing seed record without exposing its body.
type SeedStat struct {
	Exists         bool
	ProvisionCount int
	IngestionDate  *time.Time
}

// SeedStore persists one self-contained seed record per item.
type SeedStore interface {
	Put(doc *NormalizedDocument) error
	Get(id string) (*NormalizedDocument, error)
	Stat(id string) (SeedStat, error)
}

// RawCache stores fetched markup keyed by item identifier so the parse
// step can be re-run without re-fetching.
type RawCache interface {
	Put(doc RawDocument) error
	Get(id string) (RawDocument, error)
	Has(id string) bool
}

// WorklistStore loads and atomically rewrites the census document.
type WorklistStore interface {
	Load() (*Worklist, error)
	Save(w *Worklist) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
