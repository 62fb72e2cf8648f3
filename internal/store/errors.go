// Package store persists the worklist document, seed records, and the
// raw-markup cache on the local filesystem.
package store

import "errors"

// ErrPersistence marks a failed disk write. Worklist integrity cannot be
// guaranteed past one, so it is fatal for the whole run.
var ErrPersistence = errors.New("persistence failure")

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")
