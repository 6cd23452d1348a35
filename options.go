package grepgo

import (
	"log/slog"
	"time"
)

type options struct {
	searchMode       string
	algorithm        string
	caseInsensitive  bool
	includeExts      []string
	excludeExts      []string
	searchAllFiles   bool
	textOnly         bool
	fileTypes        string
	safetyPolicy     string
	maxFileSize      int64
	skipBinary       bool
	searchCompressed bool
	countOnly        bool
	filesWithMatches bool
	contextBefore    int
	contextAfter     int
	workers          int
	chunkCeiling     int
	followSymlinks   bool
	ignoreDirs       []string
	maxDepth         int

	mmapThreshold        int64
	maxMappings          int
	maxMappedBytes       int64
	acquireTimeout       time.Duration
	ioBytesPerSec        int64
	maxDecompressedBytes int64

	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Scanner construction.
//
// Invalid values or combinations are rejected by New with a ConfigError;
// a constructed Scanner never fails on configuration mid-scan.
type Option func(*options)

// WithSearchMode selects how the pattern is interpreted: "text" (literal,
// default), "regex", or "word" (literal constrained to word boundaries).
func WithSearchMode(mode string) Option {
	return func(o *options) {
		o.searchMode = mode
	}
}

// WithAlgorithm selects the matcher implementation for literal searches:
// "boyer-moore" (default), "regex", or "simple". Regex search mode always
// uses the regex engine regardless of this setting.
func WithAlgorithm(algorithm string) Option {
	return func(o *options) {
		o.algorithm = algorithm
	}
}

// WithCaseInsensitive enables case-insensitive matching.
func WithCaseInsensitive() Option {
	return func(o *options) {
		o.caseInsensitive = true
	}
}

// WithIncludeExtensions restricts the search to exactly these extensions.
// Takes precedence over excludes, strategies and the built-in type table.
func WithIncludeExtensions(exts ...string) Option {
	return func(o *options) {
		o.includeExts = append(o.includeExts, exts...)
	}
}

// WithExcludeExtensions removes extensions from the search set.
func WithExcludeExtensions(exts ...string) Option {
	return func(o *options) {
		o.excludeExts = append(o.excludeExts, exts...)
	}
}

// WithSearchAllFiles includes every file the safety policy admits,
// overriding the built-in type table.
func WithSearchAllFiles() Option {
	return func(o *options) {
		o.searchAllFiles = true
	}
}

// WithTextOnly restricts the search to plain-text file types.
func WithTextOnly() Option {
	return func(o *options) {
		o.textOnly = true
	}
}

// WithFileTypes selects the type-table strategy: "default",
// "comprehensive", "conservative" or "performance".
func WithFileTypes(strategy string) Option {
	return func(o *options) {
		o.fileTypes = strategy
	}
}

// WithSafetyPolicy selects the resource-safety preset: "default",
// "conservative" or "performance". The preset bounds file sizes and
// decides whether memory mapping is allowed.
func WithSafetyPolicy(policy string) Option {
	return func(o *options) {
		o.safetyPolicy = policy
	}
}

// WithMaxFileSize overrides the safety policy's file size cap in bytes.
// Larger files are skipped, never failed.
func WithMaxFileSize(bytes int64) Option {
	return func(o *options) {
		o.maxFileSize = bytes
	}
}

// WithSkipBinary sniffs file contents and skips files that look binary.
func WithSkipBinary() Option {
	return func(o *options) {
		o.skipBinary = true
	}
}

// WithSearchCompressed searches inside gzip, zstd and lz4 files by
// decompressing them into a bounded buffer.
func WithSearchCompressed() Option {
	return func(o *options) {
		o.searchCompressed = true
	}
}

// WithCountOnly returns only the total match count. Per-match detail and
// context capture are disabled.
func WithCountOnly() Option {
	return func(o *options) {
		o.countOnly = true
	}
}

// WithFilesWithMatches returns only the paths of files containing at
// least one match; scanning of each file stops at its first match.
func WithFilesWithMatches() Option {
	return func(o *options) {
		o.filesWithMatches = true
	}
}

// WithContextLines captures surrounding lines for each match.
// Incompatible with WithCountOnly and WithFilesWithMatches.
func WithContextLines(before, after int) Option {
	return func(o *options) {
		o.contextBefore = before
		o.contextAfter = after
	}
}

// WithWorkers sets the worker pool size. Defaults to the core count.
// A pool of 1 gives deterministic result ordering.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithChunkCeiling bounds the adaptive work chunk size.
func WithChunkCeiling(n int) Option {
	return func(o *options) {
		o.chunkCeiling = n
	}
}

// WithFollowSymlinks resolves symbolic links during the walk. Link cycles
// are detected and walked at most once.
func WithFollowSymlinks() Option {
	return func(o *options) {
		o.followSymlinks = true
	}
}

// WithIgnoreDirs extends the built-in set of pruned directory names
// (.git, node_modules, target, ...).
func WithIgnoreDirs(names ...string) Option {
	return func(o *options) {
		o.ignoreDirs = append(o.ignoreDirs, names...)
	}
}

// WithMaxDepth bounds walk recursion depth; 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithMmapThreshold sets the minimum file size for memory mapping.
func WithMmapThreshold(bytes int64) Option {
	return func(o *options) {
		o.mmapThreshold = bytes
	}
}

// WithMappingBudget bounds the mapping pool: at most maxCount concurrent
// mappings totalling at most maxBytes.
func WithMappingBudget(maxCount int, maxBytes int64) Option {
	return func(o *options) {
		o.maxMappings = maxCount
		o.maxMappedBytes = maxBytes
	}
}

// WithAcquireTimeout bounds how long a worker waits for mapping budget
// before falling back to streaming.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) {
		o.acquireTimeout = d
	}
}

// WithIORateLimit throttles streaming reads to the given bytes per
// second. 0 disables throttling.
func WithIORateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioBytesPerSec = bytesPerSec
	}
}

// WithMaxDecompressedBytes caps how far a compressed file may expand
// before it is skipped.
func WithMaxDecompressedBytes(bytes int64) Option {
	return func(o *options) {
		o.maxDecompressedBytes = bytes
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// scans. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &grepgo.BasicMetricsCollector{}
//	scanner, _ := grepgo.New("foo", grepgo.WithMetricsCollector(metrics))
//	// ... scan ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for scans.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := grepgo.NewJSONLogger(slog.LevelInfo)
//	scanner, _ := grepgo.New("foo", grepgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		searchMode:       "text",
		algorithm:        "boyer-moore",
		fileTypes:        "default",
		safetyPolicy:     "default",
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
