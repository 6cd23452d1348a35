package grepgo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/grepgo/model"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    scanCounter    prometheus.Counter
//	    scanHistogram  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordScan(m model.PerformanceMetrics, d time.Duration, err error) {
//	    p.scanCounter.Inc()
//	    // ... record duration, error state, etc.
//	}
type MetricsCollector interface {
	// RecordScan is called once per completed scan with the final
	// counter snapshot. err is nil unless the scan aborted.
	RecordScan(metrics model.PerformanceMetrics, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordScan(model.PerformanceMetrics, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ScanCount      atomic.Int64
	ScanErrors     atomic.Int64
	ScanTotalNanos atomic.Int64
	FilesSearched  atomic.Int64
	FilesSkipped   atomic.Int64
	FilesFailed    atomic.Int64
	BytesSearched  atomic.Int64
	MatchesFound   atomic.Int64
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(m model.PerformanceMetrics, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScanErrors.Add(1)
		return
	}
	b.FilesSearched.Add(m.FilesSearched)
	b.FilesSkipped.Add(m.FilesSkipped)
	b.FilesFailed.Add(m.FilesFailed)
	b.BytesSearched.Add(m.BytesSearched)
	b.MatchesFound.Add(m.MatchesFound)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ScanCount:     b.ScanCount.Load(),
		ScanErrors:    b.ScanErrors.Load(),
		ScanAvgNanos:  b.getAvgScanNanos(),
		FilesSearched: b.FilesSearched.Load(),
		FilesSkipped:  b.FilesSkipped.Load(),
		FilesFailed:   b.FilesFailed.Load(),
		BytesSearched: b.BytesSearched.Load(),
		MatchesFound:  b.MatchesFound.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgScanNanos() int64 {
	count := b.ScanCount.Load()
	if count == 0 {
		return 0
	}
	return b.ScanTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ScanCount     int64
	ScanErrors    int64
	ScanAvgNanos  int64
	FilesSearched int64
	FilesSkipped  int64
	FilesFailed   int64
	BytesSearched int64
	MatchesFound  int64
}
