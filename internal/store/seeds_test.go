package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iurisdata/boe-ingest/internal/boe"
)

func sampleDoc() *boe.NormalizedDocument {
	return &boe.NormalizedDocument{
		ID:     "BOE-A-2015-10566",
		Title:  "Ley 39/2015, de 1 de octubre",
		Status: boe.StatusInForce,
		URL:    "https://example.org/doc",
		Provisions: []boe.Provision{
			{Ref: "art1", Label: "Artículo 1. Objeto", Text: "Esta ley regula el procedimiento."},
			{Ref: "art2", Label: "Artículo 2. Ámbito", Text: "Se aplica al sector público."},
		},
		Definitions: []boe.Definition{
			{Term: "Interesado", Text: "la persona que promueve el procedimiento.", SourceRef: "art2"},
		},
	}
}

func TestSeedPutGet(t *testing.T) {
	seeds, err := NewSeedDir(t.TempDir())
	require.NoError(t, err)

	doc := sampleDoc()
	require.NoError(t, seeds.Put(doc))

	got, err := seeds.Get(doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestSeedPutRejectsMissingID(t *testing.T) {
	seeds, err := NewSeedDir(t.TempDir())
	require.NoError(t, err)
	require.Error(t, seeds.Put(&boe.NormalizedDocument{}))
}

func TestSeedGetMissing(t *testing.T) {
	seeds, err := NewSeedDir(t.TempDir())
	require.NoError(t, err)
	_, err = seeds.Get("BOE-A-1900-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSeedStat(t *testing.T) {
	seeds, err := NewSeedDir(t.TempDir())
	require.NoError(t, err)

	stat, err := seeds.Stat("BOE-A-2015-10566")
	require.NoError(t, err)
	require.False(t, stat.Exists)

	require.NoError(t, seeds.Put(sampleDoc()))
	stat, err = seeds.Stat("BOE-A-2015-10566")
	require.NoError(t, err)
	require.True(t, stat.Exists)
	require.Equal(t, 2, stat.ProvisionCount)
	require.NotNil(t, stat.IngestionDate)
	require.WithinDuration(t, time.Now().UTC(), *stat.IngestionDate, time.Minute)
}

func TestSeedRecordsSerializeEmptySlices(t *testing.T) {
	dir := t.TempDir()
	seeds, err := NewSeedDir(dir)
	require.NoError(t, err)

	fallback := &boe.NormalizedDocument{
		ID:          "BOE-A-1950-7",
		Title:       "Decreto antiguo",
		Status:      boe.StatusRepealed,
		Provisions:  []boe.Provision{},
		Definitions: []boe.Definition{},
	}
	require.NoError(t, seeds.Put(fallback))

	raw, err := os.ReadFile(filepath.Join(dir, "BOE-A-1950-7.json"))
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.JSONEq(t, "[]", string(decoded["provisions"]))
	require.JSONEq(t, "[]", string(decoded["definitions"]))
}

func TestRawCacheRoundTrip(t *testing.T) {
	cache, err := NewRawCacheDir(t.TempDir())
	require.NoError(t, err)

	require.False(t, cache.Has("BOE-A-2015-1"))

	doc := boe.RawDocument{
		ItemID:    "BOE-A-2015-1",
		URL:       "https://example.org/doc",
		FetchedAt: time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		Body:      []byte("<html>texto consolidado</html>"),
	}
	require.NoError(t, cache.Put(doc))
	require.True(t, cache.Has("BOE-A-2015-1"))

	got, err := cache.Get("BOE-A-2015-1")
	require.NoError(t, err)
	require.Equal(t, doc.Body, got.Body)
	require.Equal(t, doc.URL, got.URL)
	require.Equal(t, doc.FetchedAt, got.FetchedAt)
}

func TestRawCacheGetMissing(t *testing.T) {
	cache, err := NewRawCacheDir(t.TempDir())
	require.NoError(t, err)
	_, err = cache.Get("BOE-A-1900-2")
	require.ErrorIs(t, err, ErrNotFound)
}
