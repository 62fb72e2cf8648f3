package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iurisdata/boe-ingest/internal/boe"
)

// SeedDir writes one self-contained JSON seed record per item under a
// directory, keyed by identifier. Records are immutable once written and
// superseded whole on re-ingestion; readers depend on no cross-record
// state.
type SeedDir struct {
	root string
}

// NewSeedDir creates root if needed and returns the store.
func NewSeedDir(root string) (*SeedDir, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create seed dir %s: %w", root, err)
	}
	return &SeedDir{root: root}, nil
}

// Put writes the seed record atomically.
func (s *SeedDir) Put(doc *boe.NormalizedDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("seed record missing identifier")
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seed %s: %w", doc.ID, err)
	}
	if err := writeAtomic(s.seedPath(doc.ID), payload); err != nil {
		return fmt.Errorf("put seed %s: %w", doc.ID, err)
	}
	return nil
}

// Get reads a previously written seed record.
func (s *SeedDir) Get(id string) (*boe.NormalizedDocument, error) {
	data, err := os.ReadFile(s.seedPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("seed %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read seed %s: %w", id, err)
	}
	var doc boe.NormalizedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", id, err)
	}
	return &doc, nil
}

// Stat reports whether a seed record exists and, if so, its provision
// count and write time. Used by the census to backfill ingestion state
// without re-fetching.
func (s *SeedDir) Stat(id string) (boe.SeedStat, error) {
	info, err := os.Stat(s.seedPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return boe.SeedStat{}, nil
		}
		return boe.SeedStat{}, fmt.Errorf("stat seed %s: %w", id, err)
	}

	doc, err := s.Get(id)
	if err != nil {
		return boe.SeedStat{}, err
	}
	mod := info.ModTime().UTC().Truncate(time.Second)
	return boe.SeedStat{
		Exists:         true,
		ProvisionCount: len(doc.Provisions),
		IngestionDate:  &mod,
	}, nil
}

func (s *SeedDir) seedPath(id string) string {
	return filepath.Join(s.root, id+".json")
}

// RawCacheDir stores fetched markup one file per identifier, so the
// parse step can be re-run without re-incurring fetch cost.
type RawCacheDir struct {
	root string
}

// NewRawCacheDir creates root if needed and returns the cache.
func NewRawCacheDir(root string) (*RawCacheDir, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create raw cache dir %s: %w", root, err)
	}
	return &RawCacheDir{root: root}, nil
}

// Put stores the markup and a metadata sidecar.
func (c *RawCacheDir) Put(doc boe.RawDocument) error {
	if doc.ItemID == "" {
		return fmt.Errorf("raw document missing identifier")
	}
	if err := writeAtomic(c.bodyPath(doc.ItemID), doc.Body); err != nil {
		return fmt.Errorf("cache body %s: %w", doc.ItemID, err)
	}
	meta, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal raw meta %s: %w", doc.ItemID, err)
	}
	if err := writeAtomic(c.metaPath(doc.ItemID), meta); err != nil {
		return fmt.Errorf("cache meta %s: %w", doc.ItemID, err)
	}
	return nil
}

// Get loads cached markup. Returns ErrNotFound when the item was never
// fetched.
func (c *RawCacheDir) Get(id string) (boe.RawDocument, error) {
	body, err := os.ReadFile(c.bodyPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return boe.RawDocument{}, fmt.Errorf("raw cache %s: %w", id, ErrNotFound)
		}
		return boe.RawDocument{}, fmt.Errorf("read raw cache %s: %w", id, err)
	}

	doc := boe.RawDocument{ItemID: id, Body: body}
	if meta, err := os.ReadFile(c.metaPath(id)); err == nil {
		// Sidecar is best-effort; a missing one still yields the markup.
		_ = json.Unmarshal(meta, &doc)
		doc.Body = body
	}
	return doc, nil
}

// Has reports whether markup is cached for id.
func (c *RawCacheDir) Has(id string) bool {
	_, err := os.Stat(c.bodyPath(id))
	return err == nil
}

func (c *RawCacheDir) bodyPath(id string) string {
	return filepath.Join(c.root, id+".html")
}

func (c *RawCacheDir) metaPath(id string) string {
	return filepath.Join(c.root, id+".json")
}
