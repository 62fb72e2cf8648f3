// Package metrics exposes prometheus counters for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchRequests tracks the number of HTTP requests dispatched.
	FetchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boe_fetch_requests_total",
		Help: "The total number of HTTP requests sent to the gazette.",
	})
	// FetchErrors tracks requests that failed at the transport level.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boe_fetch_errors_total",
		Help: "The total number of failed HTTP requests.",
	})
	// FetchRetries tracks backoff retries after transient responses.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boe_fetch_retries_total",
		Help: "The total number of retried requests.",
	})
	// RateLimitHits tracks HTTP 429 responses from the gazette.
	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boe_rate_limit_hits_total",
		Help: "The total number of times the upstream rate limited us.",
	})
	// ProvisionsParsed tracks provisions extracted across all documents.
	ProvisionsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boe_provisions_parsed_total",
		Help: "The total number of provisions extracted by the parser.",
	})
	// DefinitionsExtracted tracks definitions extracted across all documents.
	DefinitionsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boe_definitions_extracted_total",
		Help: "The total number of legal definitions extracted.",
	})
	// FallbackRecords tracks minimal records written after fetch failures.
	FallbackRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boe_fallback_records_total",
		Help: "The total number of metadata-only fallback records written.",
	})
)
