// Package boe defines core types shared across the ingestion pipeline.
package boe

import (
	"time"
)

// Classification is assigned once at census time and not revisited.
type Classification string

// Classification values persisted in the worklist.
const (
	ClassIngestable    Classification = "ingestable"
	ClassNotIngestable Classification = "not_ingestable"
	ClassSkip          Classification = "skip"
)

// LegalStatus reflects the upstream consolidation state of an item.
type LegalStatus string

// Legal status values persisted in seed records and the worklist.
const (
	StatusRepealed LegalStatus = "repealed"
	StatusAmended  LegalStatus = "amended"
	StatusInForce  LegalStatus = "in_force"
)

// CatalogItem is one census entry as enumerated from the remote catalog.
// Immutable after census time.
type CatalogItem struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	ConsolidatedURL   string     `json:"consolidated_url"`
	Scope             string     `json:"scope"`
	Rank              string     `json:"rank"`
	ConsolidationCode string     `json:"consolidation_code"`
	Repealed          bool       `json:"repealed"`
	DispositionDate   *time.Time `json:"disposition_date,omitempty"`
}

// Status maps the upstream flags to a LegalStatus. The repeal flag takes
// precedence over a stale consolidation code.
func (c CatalogItem) Status() LegalStatus {
	switch {
	case c.Repealed:
		return StatusRepealed
	case c.ConsolidationCode == ConsolidationOutdated:
		return StatusAmended
	default:
		return StatusInForce
	}
}

// ConsolidationOutdated is the upstream code marking a consolidated text
// that lags behind later amendments.
const ConsolidationOutdated = "3"

// WorklistEntry is a CatalogItem plus its ingestion-mutable state.
// Invariant: Ingested implies IngestionDate != nil.
type WorklistEntry struct {
	CatalogItem
	Classification Classification `json:"classification"`
	Ingested       bool           `json:"ingested"`
	ProvisionCount int            `json:"provision_count"`
	IngestionDate  *time.Time     `json:"ingestion_date,omitempty"`
}

// Worklist is the full census, persisted as a single versioned document.
// The embedded Summary is a cache over Entries, recomputed on every save.
type Worklist struct {
	Version     string          `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     Summary         `json:"summary"`
	Entries     []WorklistEntry `json:"entries"`
}

// Summary aggregates the worklist. It must always equal ComputeSummary
// over the current entries.
type Summary struct {
	Total            int                    `json:"total"`
	TotalIngested    int                    `json:"total_ingested"`
	TotalProvisions  int                    `json:"total_provisions"`
	ByClassification map[Classification]int `json:"by_classification"`
	ByStatus         map[LegalStatus]int    `json:"by_status"`
}

// ComputeSummary recomputes the aggregate from scratch.
func ComputeSummary(entries []WorklistEntry) Summary {
	s := Summary{
		Total:            len(entries),
		ByClassification: make(map[Classification]int),
		ByStatus:         make(map[LegalStatus]int),
	}
	for _, e := range entries {
		if e.Ingested {
			s.TotalIngested++
		}
		s.TotalProvisions += e.ProvisionCount
		s.ByClassification[e.Classification]++
		s.ByStatus[e.Status()]++
	}
	return s
}

// Recompute refreshes the cached summary in place.
func (w *Worklist) Recompute() {
	w.Summary = ComputeSummary(w.Entries)
}

// RawDocument is the unparsed markup for one item.
type RawDocument struct {
	ItemID    string    `json:"item_id"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	Body      []byte    `json:"-"`
}

// Provision is one numbered article extracted from a consolidated text.
type Provision struct {
	Ref     string `json:"ref"`
	Chapter string `json:"chapter,omitempty"`
	Label   string `json:"label"`
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
}

// Definition is a legal term extracted from a definitions provision.
type Definition struct {
	Term      string `json:"term"`
	Text      string `json:"text"`
	SourceRef string `json:"source_ref,omitempty"`
}

// NormalizedDocument is the seed record written per ingested item. A
// fallback record is the same shape with empty Provisions/Definitions.
type NormalizedDocument struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	ShortName   string       `json:"short_name,omitempty"`
	Status      LegalStatus  `json:"status"`
	IssuedDate  *time.Time   `json:"issued_date,omitempty"`
	InForceDate *time.Time   `json:"in_force_date,omitempty"`
	URL         string       `json:"url"`
	Provisions  []Provision  `json:"provisions"`
	Definitions []Definition `json:"definitions"`
}
