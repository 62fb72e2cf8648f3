package fetcher

import (
	"errors"
	"fmt"
)

// ErrExhausted marks a fetch that consumed its full retry budget.
var ErrExhausted = errors.New("fetch retries exhausted")

// ExhaustedError carries the last observed status after retries ran out.
type ExhaustedError struct {
	URL        string
	StatusCode int
	Attempts   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: %d attempts exhausted, last status %d", e.URL, e.Attempts, e.StatusCode)
}

// Unwrap lets callers test errors.Is(err, ErrExhausted).
func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}
