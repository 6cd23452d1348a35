// Package grepgo provides a fast recursive content-search engine for
// local file trees.
//
// Grepgo scans directory trees in parallel while keeping memory and CPU
// usage bounded over arbitrary input:
//
//   - File classification with binary detection, extension policies and
//     safety presets, so binary and oversized files never reach a matcher
//   - Multiple search algorithms: Boyer-Moore substring search, full
//     regular expressions with a compile-once cache, and a naive fallback
//   - Memory-mapped reads for large files with an LRU mapping pool that
//     reacts to system memory pressure, falling back to bounded streaming
//   - Transparent search inside gzip, zstd and lz4 compressed files
//   - Adaptive work chunking across a fixed worker pool with cooperative
//     cancellation
//
// # Quick Start
//
// Search a tree for a literal pattern:
//
//	scanner, err := grepgo.New("TODO",
//	    grepgo.WithIncludeExtensions("go", "md"),
//	    grepgo.WithContextLines(2, 2),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	result, err := scanner.Scan(ctx, ".")
//	if err != nil {
//	    panic(err)
//	}
//	for _, m := range result.Matches {
//	    fmt.Printf("%s:%d:%d: %s\n", m.Path, m.Line, m.Column, m.LineText)
//	}
//
// Regex search with counting only:
//
//	scanner, _ := grepgo.New(`fn \w+\(`,
//	    grepgo.WithSearchMode("regex"),
//	    grepgo.WithCountOnly(),
//	)
//
// Per-file read failures never abort a scan; they are reported in
// Result.Diagnostics alongside the matches of the files that succeeded.
package grepgo
