// Package system provides a real clock implementation.
package system

import "time"

// Clock implements boe.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC. Ingestion dates and fetch
// timestamps are always recorded in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
