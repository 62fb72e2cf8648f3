package ingest

import (
	"fmt"
	"strings"
	"time"
)

// maxReportedFailures bounds the failure list in the run report; larger
// sets are truncated with an explicit "and N more".
const maxReportedFailures = 10

// Outcome is the terminal state of one worklist entry in a run.
type Outcome string

// Per-entry outcomes tallied in the run report.
const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

// Failure pairs an item identifier with its error message.
type Failure struct {
	ID      string
	Message string
}

// Report summarizes one ingestion run.
type Report struct {
	RunID         string
	Started       time.Time
	Finished      time.Time
	Processed     int
	Succeeded     int
	Fallbacks     int
	Failed        int
	Skipped       int
	Provisions    int
	Definitions   int
	Interrupted   bool
	Failures      []Failure
	TotalFailures int
}

func (r *Report) record(outcome Outcome) {
	switch outcome {
	case OutcomeSuccess:
		r.Succeeded++
	case OutcomeFallback:
		r.Fallbacks++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
}

func (r *Report) addFailure(id string, err error) {
	r.TotalFailures++
	if len(r.Failures) < maxReportedFailures {
		r.Failures = append(r.Failures, Failure{ID: id, Message: err.Error()})
	}
}

// String renders the human-readable run-end report.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s finished in %s\n", r.RunID, r.Finished.Sub(r.Started).Round(time.Second))
	fmt.Fprintf(&b, "  processed: %d (success %d, fallback %d, failed %d, skipped %d)\n",
		r.Processed, r.Succeeded, r.Fallbacks, r.Failed, r.Skipped)
	fmt.Fprintf(&b, "  provisions: %d, definitions: %d\n", r.Provisions, r.Definitions)
	if r.Interrupted {
		b.WriteString("  run interrupted; progress flushed, resume to continue\n")
	}
	if r.TotalFailures > 0 {
		fmt.Fprintf(&b, "  failures (%d):\n", r.TotalFailures)
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "    %s: %s\n", f.ID, f.Message)
		}
		if extra := r.TotalFailures - len(r.Failures); extra > 0 {
			fmt.Fprintf(&b, "    ...and %d more\n", extra)
		}
	}
	return b.String()
}
