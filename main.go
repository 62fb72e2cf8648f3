// The main package for the boe-ingest executable.
package main

import (
	"github.com/iurisdata/boe-ingest/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
