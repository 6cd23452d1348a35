// Package source provides byte access to file contents for the scan
// pipeline, choosing per file between a memory mapping and a bounded
// streaming read.
//
// # Sources
//
// A Source is an owned, read-only view of one file's bytes. Exactly one
// source exists per concurrently open file; its lifetime is scoped to the
// search of that file and it is released deterministically when the last
// reader finishes. Matchers never observe whether the bytes came from a
// mapping or a stream.
//
// # Mapping pool
//
// Open mappings are pooled under a count and byte budget. Mappings with no
// active reader are reclaimed least-recently-used when a new mapping would
// exceed the budget or when memory pressure transitions to High. A mapping
// is never evicted while a reader holds a reference to it.
//
// # Memory pressure
//
// A pressure monitor periodically derives Low/Moderate/High from available
// system memory and the active mapping count. Under sustained High
// pressure new acquisitions prefer streaming outright to avoid mapping
// churn; the scan orchestrator additionally shrinks its chunk sizes.
//
// # Compressed files
//
// gzip, zstd and lz4 files can be searched transparently: the manager
// decompresses them into a bounded buffer and surfaces the result as a
// streamed source.
package source
