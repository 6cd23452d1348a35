package model

import "time"

// FileEntry describes a file discovered by the directory walker.
// It is immutable and discarded once a classification decision is made.
type FileEntry struct {
	// Path is the file path as discovered (relative to the walk root or
	// absolute, matching what the caller passed in).
	Path string

	// Size is the file size in bytes at discovery time.
	Size int64

	// Ext is the lower-cased file extension without the leading dot
	// ("go", "rs", "txt"). Empty for files without an extension.
	Ext string

	// ModTime is the modification time, if the walker captured it.
	ModTime time.Time
}

// ContextLine is a single line of surrounding context attached to a match.
type ContextLine struct {
	// Line is the 1-based line number.
	Line int

	// Text is the line content without the trailing newline.
	Text string
}

// SearchMatch is one pattern occurrence. Immutable once constructed;
// ownership transfers to the aggregator when a worker emits it.
type SearchMatch struct {
	// Path of the file containing the match.
	Path string

	// Line is the 1-based line number of the match.
	Line int

	// Column is the 0-based byte offset of the match within its line.
	Column int

	// Text is the matched byte slice, copied out of the source buffer.
	Text string

	// LineText is the full line containing the match, without the
	// trailing newline.
	LineText string

	// ContextBefore and ContextAfter hold a bounded number of
	// surrounding lines. Nil when context capture is disabled
	// (count and files-with-matches modes).
	ContextBefore []ContextLine
	ContextAfter  []ContextLine
}

// FileStatus is the terminal state a file reached in the scan state
// machine (Discovered -> Classified -> {Skipped | Searching -> Searched | Failed}).
type FileStatus uint8

const (
	// StatusSearched means the file was fully searched (with or without matches).
	StatusSearched FileStatus = iota

	// StatusSkipped means classification or policy excluded the file.
	// This is an expected outcome, not an error.
	StatusSkipped

	// StatusFailed means an I/O or resource error interrupted the file.
	// The scan continues; the failure is reported as a diagnostic.
	StatusFailed
)

// String implements fmt.Stringer.
func (s FileStatus) String() string {
	switch s {
	case StatusSearched:
		return "searched"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Diagnostic reports a skipped or failed file. Diagnostics are distinct
// from zero-match results: a clean run has zero diagnostics of status
// StatusFailed regardless of how many matches were found.
type Diagnostic struct {
	// Path of the affected file.
	Path string

	// Status is StatusSkipped or StatusFailed.
	Status FileStatus

	// Reason is a short human-readable explanation
	// ("binary content", "exceeds max file size", ...).
	Reason string

	// Err is the underlying error for StatusFailed diagnostics, nil for skips.
	Err error
}

// ListEntry describes one file in a listing. No search is performed;
// the classification fields predict how a scan would treat the file.
type ListEntry struct {
	// Path of the discovered file.
	Path string

	// Size in bytes at discovery time.
	Size int64

	// Ext is the normalized extension.
	Ext string

	// ModTime is the modification time.
	ModTime time.Time

	// Searchable reports whether a scan would search this file.
	Searchable bool

	// Class is the classification name ("always-search", "never-search", ...).
	Class string

	// Mode is the recommended search mode ("full-text", "filename", ...).
	Mode string

	// Reason explains exclusions; empty for searchable files.
	Reason string
}

// PerformanceMetrics is a snapshot of the monotonic counters maintained
// during a single scan. Counters are written with atomic increments on the
// hot path and read once at the end of the run.
type PerformanceMetrics struct {
	// FilesDiscovered is the number of files the walker emitted.
	FilesDiscovered int64

	// FilesSearched is the number of files fully searched.
	FilesSearched int64

	// FilesSkipped is the number of files excluded by classification or policy.
	FilesSkipped int64

	// FilesFailed is the number of files that hit an I/O or resource error.
	FilesFailed int64

	// BytesSearched is the total number of content bytes run through the matcher.
	BytesSearched int64

	// MatchesFound is the total number of pattern occurrences.
	MatchesFound int64

	// MappingsCreated is the number of memory mappings established.
	MappingsCreated int64

	// MappingsEvicted is the number of idle mappings reclaimed by the pool.
	MappingsEvicted int64

	// StreamedReads is the number of files read via bounded streaming
	// instead of memory mapping.
	StreamedReads int64

	// RegexCacheHits counts matcher compilations avoided by the
	// per-run pattern cache.
	RegexCacheHits int64
}
