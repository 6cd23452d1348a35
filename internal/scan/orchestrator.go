package scan

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/grepgo/internal/classify"
	"github.com/hupe1980/grepgo/internal/matcher"
	"github.com/hupe1980/grepgo/internal/source"
	"github.com/hupe1980/grepgo/model"
)

// Config parameterizes an Orchestrator.
type Config struct {
	// Workers is the pool size. 0 means runtime.NumCPU. Size 1 gives a
	// fully deterministic scan order.
	Workers int

	// ChunkCeiling bounds the adaptive chunk size. 0 means the default.
	ChunkCeiling int

	// Mode selects the aggregation shape.
	Mode OutputMode

	// ContextBefore and ContextAfter are the numbers of surrounding
	// lines captured per match in ModeMatches.
	ContextBefore int
	ContextAfter  int

	// AllowMmap gates memory mapping; the safety policy decides it.
	AllowMmap bool

	// Walk configures the directory traversal.
	Walk WalkOptions

	// Log receives debug-level scan progress. Nil discards.
	Log *slog.Logger
}

// Result is the outcome of one scan invocation.
type Result struct {
	// Matches is the merged match stream (ModeMatches only). Matches
	// within one file are contiguous and in ascending line/column order.
	Matches []model.SearchMatch

	// Files lists paths with at least one match (ModeFilesWithMatches).
	Files []string

	// Count is the total match count (ModeCount).
	Count int

	// Diagnostics records every skipped and failed file.
	Diagnostics []model.Diagnostic

	// Metrics is the final counter snapshot.
	Metrics model.PerformanceMetrics
}

// Orchestrator wires the walker, classifier, matcher and source manager
// into a parallel scan. Safe for a single Run at a time.
type Orchestrator struct {
	cfg        Config
	classifier *classify.Classifier
	matcher    matcher.Matcher
	sources    *source.Manager

	stop atomic.Bool

	discovered atomic.Int64
	searched   atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
	bytes      atomic.Int64
	matches    atomic.Int64
}

// New creates an Orchestrator.
func New(cfg Config, cls *classify.Classifier, m matcher.Matcher, srcs *source.Manager) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ChunkCeiling <= 0 {
		cfg.ChunkCeiling = DefaultChunkCeiling
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		cfg:        cfg,
		classifier: cls,
		matcher:    m,
		sources:    srcs,
	}
}

// Cancel requests cooperative early termination. In-flight workers finish
// their current file, then stop pulling work.
func (o *Orchestrator) Cancel() {
	o.stop.Store(true)
}

// Run walks the roots and searches every accepted file. A missing root is
// the only fatal error; all per-file failures are folded into
// Result.Diagnostics.
func (o *Orchestrator) Run(ctx context.Context, roots []string) (*Result, error) {
	agg := newAggregator(o.cfg.Mode)
	chunks := make(chan chunk, o.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		return o.produce(gctx, roots, chunks)
	})

	for i := 0; i < o.cfg.Workers; i++ {
		g.Go(func() error {
			for ch := range chunks {
				for _, entry := range ch.entries {
					if o.stop.Load() {
						return nil
					}
					if err := gctx.Err(); err != nil {
						return err
					}
					o.processFile(gctx, entry, agg)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := agg.result()
	res.Metrics = o.metrics()
	return res, nil
}

// produce walks every root and batches discovered files into chunks. The
// chunk size is recomputed per batch so rising memory pressure takes
// effect mid-scan.
func (o *Orchestrator) produce(ctx context.Context, roots []string, out chan<- chunk) error {
	batch := make([]model.FileEntry, 0, o.cfg.ChunkCeiling)
	limit := chunkSize(o.cfg.Workers, o.sources.Pressure(), o.cfg.ChunkCeiling)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		ch := chunk{entries: batch}
		select {
		case out <- ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = make([]model.FileEntry, 0, limit)
		limit = chunkSize(o.cfg.Workers, o.sources.Pressure(), o.cfg.ChunkCeiling)
		return nil
	}

	emit := func(e model.FileEntry) error {
		if o.stop.Load() {
			return errStopped
		}
		o.discovered.Add(1)
		batch = append(batch, e)
		if len(batch) >= limit {
			return flush()
		}
		return nil
	}

	w := newWalker(o.cfg.Walk, emit)
	for _, root := range roots {
		if err := w.walk(ctx, root); err != nil {
			if errors.Is(err, errStopped) {
				return nil
			}
			return err
		}
	}
	return flush()
}

var errStopped = errors.New("scan: stopped")

// processFile runs the per-file pipeline. Every outcome is terminal:
// Skipped, Searched or Failed. Errors never leave this function.
func (o *Orchestrator) processFile(ctx context.Context, e model.FileEntry, agg *aggregator) {
	d := o.classifier.Classify(e)
	if !d.Class.Searchable() {
		o.skipped.Add(1)
		agg.addDiagnostic(model.Diagnostic{
			Path:   e.Path,
			Status: model.StatusSkipped,
			Reason: d.Reason,
		})
		return
	}

	// Archives only classify as searchable when decompression is on.
	if _, isArchive := source.DetectArchive(e.Path); isArchive {
		o.processArchive(ctx, e, agg)
		return
	}

	src, err := o.sources.Acquire(ctx, e.Path, e.Size, o.cfg.AllowMmap)
	if err != nil {
		if errors.Is(err, source.ErrDecompressedTooLarge) {
			o.skipped.Add(1)
			agg.addDiagnostic(model.Diagnostic{
				Path:   e.Path,
				Status: model.StatusSkipped,
				Reason: "decompressed content exceeds size limit",
			})
			return
		}
		o.failed.Add(1)
		o.cfg.Log.Debug("file read failed", slog.String("path", e.Path), slog.Any("error", err))
		agg.addDiagnostic(model.Diagnostic{
			Path:   e.Path,
			Status: model.StatusFailed,
			Reason: "read error",
			Err:    err,
		})
		return
	}
	defer src.Release()

	o.searchBuffer(e.Path, src.Bytes(), agg)
	o.searched.Add(1)
}

// processArchive enumerates a container and searches each text entry as
// its own buffer under a virtual "container:entry" path. The archive
// counts as one searched file; unreadable or oversized entries become
// skip diagnostics.
func (o *Orchestrator) processArchive(ctx context.Context, e model.FileEntry, agg *aggregator) {
	entries, skipped, err := o.sources.OpenArchive(ctx, e.Path)
	if err != nil {
		o.failed.Add(1)
		o.cfg.Log.Debug("archive read failed", slog.String("path", e.Path), slog.Any("error", err))
		agg.addDiagnostic(model.Diagnostic{
			Path:   e.Path,
			Status: model.StatusFailed,
			Reason: "archive read error",
			Err:    err,
		})
		return
	}

	for _, name := range skipped {
		agg.addDiagnostic(model.Diagnostic{
			Path:   e.Path + ":" + name,
			Status: model.StatusSkipped,
			Reason: "archive entry exceeds size limit or is unreadable",
		})
	}

	for _, entry := range entries {
		if classify.SniffBytes(entry.Data) != classify.KindText {
			continue
		}
		o.searchBuffer(e.Path+":"+entry.Name, entry.Data, agg)
	}
	o.searched.Add(1)
}

// searchBuffer runs the configured matcher over one buffer and feeds the
// aggregator according to the output mode.
func (o *Orchestrator) searchBuffer(path string, data []byte, agg *aggregator) {
	o.bytes.Add(int64(len(data)))

	switch o.cfg.Mode {
	case ModeFilesWithMatches:
		if _, ok := o.matcher.FindFirst(data); ok {
			o.matches.Add(1)
			agg.addFile(path)
		}
	case ModeCount:
		spans := o.matcher.FindAll(data)
		o.matches.Add(int64(len(spans)))
		agg.addCount(len(spans))
	default:
		spans := o.matcher.FindAll(data)
		if len(spans) > 0 {
			o.matches.Add(int64(len(spans)))
			agg.addBatch(o.buildMatches(path, data, spans))
		}
	}
}

// buildMatches converts raw spans into SearchMatch records with line text
// and surrounding context. Span order is preserved, so the batch is in
// ascending line and column order.
func (o *Orchestrator) buildMatches(path string, data []byte, spans []matcher.Span) []model.SearchMatch {
	idx := matcher.NewLineIndex(data)
	idx.Annotate(spans)

	out := make([]model.SearchMatch, 0, len(spans))
	for _, sp := range spans {
		start, end := idx.LineSpan(sp.Line)
		m := model.SearchMatch{
			Path:     path,
			Line:     sp.Line,
			Column:   sp.Column,
			Text:     string(data[sp.Offset : sp.Offset+sp.Length]),
			LineText: string(data[start:end]),
		}
		if o.cfg.ContextBefore > 0 {
			m.ContextBefore = contextLines(idx, data, sp.Line-o.cfg.ContextBefore, sp.Line-1)
		}
		if o.cfg.ContextAfter > 0 {
			m.ContextAfter = contextLines(idx, data, sp.Line+1, sp.Line+o.cfg.ContextAfter)
		}
		out = append(out, m)
	}
	return out
}

func contextLines(idx *matcher.LineIndex, data []byte, from, to int) []model.ContextLine {
	if from < 1 {
		from = 1
	}
	if last := idx.LineCount(); to > last {
		to = last
	}
	if from > to {
		return nil
	}
	lines := make([]model.ContextLine, 0, to-from+1)
	for line := from; line <= to; line++ {
		start, end := idx.LineSpan(line)
		lines = append(lines, model.ContextLine{Line: line, Text: string(data[start:end])})
	}
	return lines
}

func (o *Orchestrator) metrics() model.PerformanceMetrics {
	st := o.sources.Stats()
	return model.PerformanceMetrics{
		FilesDiscovered: o.discovered.Load(),
		FilesSearched:   o.searched.Load(),
		FilesSkipped:    o.skipped.Load(),
		FilesFailed:     o.failed.Load(),
		BytesSearched:   o.bytes.Load(),
		MatchesFound:    o.matches.Load(),
		MappingsCreated: st.MappingsCreated,
		MappingsEvicted: st.MappingsEvicted,
		StreamedReads:   st.StreamedReads,
	}
}
