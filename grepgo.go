package grepgo

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/grepgo/internal/classify"
	"github.com/hupe1980/grepgo/internal/matcher"
	"github.com/hupe1980/grepgo/internal/scan"
	"github.com/hupe1980/grepgo/internal/source"
	"github.com/hupe1980/grepgo/model"
)

// Result is the outcome of one scan.
type Result struct {
	// Matches is the merged match stream. Matches within one file are
	// contiguous and ordered by line, then column. Empty in count and
	// files-with-matches modes.
	Matches []model.SearchMatch

	// Files lists paths containing at least one match. Populated only
	// with WithFilesWithMatches.
	Files []string

	// Count is the total number of matches. Populated only with
	// WithCountOnly.
	Count int

	// Diagnostics records every skipped and failed file. A run with
	// failures still reports an accurate match list for the files that
	// succeeded.
	Diagnostics []model.Diagnostic

	// Warnings surfaces non-fatal pattern problems, e.g. an invalid
	// regex degraded to literal search.
	Warnings []string

	// Metrics is the final counter snapshot for this scan.
	Metrics model.PerformanceMetrics
}

// Scanner is a configured search engine. It is immutable after New and
// safe for concurrent Scan calls; each scan owns its own regex cache,
// mapping pool and worker pool.
type Scanner struct {
	opts       options
	classifier *classify.Classifier
	matcherCfg matcher.Config
	safety     classify.SafetyPolicy
	mode       scan.OutputMode
	warnings   []string
}

// New creates a Scanner for the pattern. All configuration problems are
// reported here; a constructed Scanner never fails on configuration
// during a scan.
func New(pattern string, optFns ...Option) (*Scanner, error) {
	o := applyOptions(optFns)

	searchMode, err := matcher.ParseMode(o.searchMode)
	if err != nil {
		return nil, newConfigError("search-mode", o.searchMode, err)
	}
	algorithm, err := matcher.ParseAlgorithm(o.algorithm)
	if err != nil {
		return nil, newConfigError("algorithm", o.algorithm, err)
	}
	classifier, safety, err := newClassifier(o)
	if err != nil {
		return nil, err
	}

	if o.countOnly && o.filesWithMatches {
		return nil, newConfigError("count", "mutually exclusive with files-with-matches", nil)
	}
	if o.contextBefore < 0 || o.contextAfter < 0 {
		return nil, newConfigError("context-lines", "must not be negative", nil)
	}
	if (o.countOnly || o.filesWithMatches) && (o.contextBefore > 0 || o.contextAfter > 0) {
		return nil, newConfigError("context-lines", "require full match detail", nil)
	}
	if o.workers < 0 {
		return nil, newConfigError("threads", "must not be negative", nil)
	}

	mode := scan.ModeMatches
	switch {
	case o.countOnly:
		mode = scan.ModeCount
	case o.filesWithMatches:
		mode = scan.ModeFilesWithMatches
	}

	matcherCfg := matcher.Config{
		Pattern:         pattern,
		Mode:            searchMode,
		Algorithm:       algorithm,
		CaseInsensitive: o.caseInsensitive,
	}

	// Trial compile so pattern problems are fatal at construction. The
	// per-scan compile below reuses this configuration with the scan's
	// own cache.
	_, warnings, err := matcher.Compile(withCache(matcherCfg, matcher.NewCache()))
	if err != nil {
		return nil, translateError(err)
	}

	return &Scanner{
		opts:       o,
		classifier: classifier,
		matcherCfg: matcherCfg,
		safety:     safety,
		mode:       mode,
		warnings:   warnings,
	}, nil
}

// Warnings reports non-fatal pattern problems detected at construction.
func (s *Scanner) Warnings() []string {
	return s.warnings
}

// Scan searches the roots. With no roots it searches the current
// directory. Per-file errors become Result.Diagnostics; only missing
// roots and context cancellation abort the scan.
func (s *Scanner) Scan(ctx context.Context, roots ...string) (*Result, error) {
	start := time.Now()
	log := s.opts.logger.WithPattern(s.matcherCfg.Pattern)

	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, root)
		}
	}

	// Per-scan state: regex cache, mapping pool, worker pool. Nothing
	// outlives the invocation.
	cache := matcher.NewCache()
	m, warnings, err := matcher.Compile(withCache(s.matcherCfg, cache))
	if err != nil {
		return nil, translateError(err)
	}
	log.LogPatternWarnings(ctx, warnings)

	mgr := source.NewManager(source.Config{
		MmapThreshold:        s.opts.mmapThreshold,
		MaxMappings:          s.opts.maxMappings,
		MaxMappedBytes:       s.opts.maxMappedBytes,
		AcquireTimeout:       s.opts.acquireTimeout,
		IOBytesPerSec:        s.opts.ioBytesPerSec,
		Decompression:        s.opts.searchCompressed,
		MaxDecompressedBytes: s.opts.maxDecompressedBytes,
	})
	defer mgr.Close()

	orch := scan.New(scan.Config{
		Workers:       s.opts.workers,
		ChunkCeiling:  s.opts.chunkCeiling,
		Mode:          s.mode,
		ContextBefore: s.opts.contextBefore,
		ContextAfter:  s.opts.contextAfter,
		AllowMmap:     s.safety.AllowMmap,
		Walk: scan.WalkOptions{
			FollowSymlinks: s.opts.followSymlinks,
			IgnoreDirs:     s.opts.ignoreDirs,
			MaxDepth:       s.opts.maxDepth,
		},
		Log: log.Logger,
	}, s.classifier, m, mgr)

	res, err := orch.Run(ctx, roots)
	duration := time.Since(start)
	if err != nil {
		err = translateError(err)
		s.opts.metricsCollector.RecordScan(model.PerformanceMetrics{}, duration, err)
		log.LogScan(ctx, nil, duration, err)
		return nil, err
	}

	result := &Result{
		Matches:     res.Matches,
		Files:       res.Files,
		Count:       res.Count,
		Diagnostics: res.Diagnostics,
		Warnings:    warnings,
		Metrics:     res.Metrics,
	}
	result.Metrics.RegexCacheHits = cache.Hits()

	s.opts.metricsCollector.RecordScan(result.Metrics, duration, nil)
	log.LogScan(ctx, result, duration, nil)
	return result, nil
}

func withCache(cfg matcher.Config, c *matcher.Cache) matcher.Config {
	cfg.Cache = c
	return cfg
}

// newClassifier validates the classification options and builds the
// classifier shared by Scan and List.
func newClassifier(o options) (*classify.Classifier, classify.SafetyPolicy, error) {
	strategy, err := classify.ParseStrategy(o.fileTypes)
	if err != nil {
		return nil, classify.SafetyPolicy{}, newConfigError("file-types", o.fileTypes, err)
	}
	safety, err := classify.ParseSafetyPolicy(o.safetyPolicy)
	if err != nil {
		return nil, classify.SafetyPolicy{}, newConfigError("safety-policy", o.safetyPolicy, err)
	}
	if o.maxFileSize < 0 {
		return nil, classify.SafetyPolicy{}, newConfigError("max-size", "must not be negative", nil)
	}

	classifier := classify.New(classify.Options{
		Strategy:          strategy,
		Safety:            safety,
		IncludeExtensions: o.includeExts,
		ExcludeExtensions: o.excludeExts,
		SearchAllFiles:    o.searchAllFiles,
		TextOnly:          o.textOnly,
		SkipBinary:        o.skipBinary,
		SearchCompressed:  o.searchCompressed,
		MaxFileSize:       o.maxFileSize,
	})
	return classifier, safety, nil
}
