// Package scan drives the search pipeline: it walks directory trees,
// batches discovered files into adaptively sized chunks, dispatches the
// chunks across a fixed worker pool, and aggregates matches, diagnostics
// and counters into a single result.
//
// Each file moves through the state machine
// Discovered -> Classified -> {Skipped | Searching -> Searched | Failed}.
// Per-file failures become diagnostics and never abort the run.
package scan
