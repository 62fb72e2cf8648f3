package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iurisdata/boe-ingest/internal/boe"
)

// WorklistFile persists the census as a single versioned JSON document.
// Saves are atomic (temp file + rename) so an interrupted run can never
// observe a half-written worklist, and the embedded summary is recomputed
// on every save.
type WorklistFile struct {
	path string
}

// NewWorklistFile returns a store backed by path.
func NewWorklistFile(path string) *WorklistFile {
	return &WorklistFile{path: path}
}

// Load reads the worklist. Returns ErrNotFound if no census exists yet.
func (s *WorklistFile) Load() (*boe.Worklist, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("worklist %s: %w", s.path, ErrNotFound)
		}
		return nil, fmt.Errorf("read worklist %s: %w", s.path, err)
	}
	var w boe.Worklist
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode worklist %s: %w", s.path, err)
	}
	return &w, nil
}

// Save recomputes the summary and rewrites the document atomically.
func (s *WorklistFile) Save(w *boe.Worklist) error {
	w.Recompute()
	payload, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal worklist: %w", err)
	}
	if err := writeAtomic(s.path, payload); err != nil {
		return fmt.Errorf("save worklist: %w", err)
	}
	return nil
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w: %w", dir, err, ErrPersistence)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w: %w", dir, err, ErrPersistence)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w: %w", tmpName, err, ErrPersistence)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w: %w", tmpName, err, ErrPersistence)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w: %w", tmpName, err, ErrPersistence)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w: %w", path, err, ErrPersistence)
	}
	return nil
}
