package source

import (
	"container/list"
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// DefaultMmapThreshold is the smallest file worth mapping; below it a
	// buffered read is cheaper than the mapping syscalls.
	DefaultMmapThreshold = 16 << 20

	// DefaultMaxMappings bounds the number of concurrently open mappings.
	DefaultMaxMappings = 128

	// DefaultMaxMappedBytes bounds the total mapped footprint.
	DefaultMaxMappedBytes = 1 << 30

	// DefaultAcquireTimeout bounds how long an acquisition waits for the
	// byte budget before falling back to streaming. Workers must never
	// block indefinitely on the pool.
	DefaultAcquireTimeout = 2 * time.Second

	// DefaultMaxDecompressedBytes caps transparent decompression.
	DefaultMaxDecompressedBytes = 100 << 20
)

// Config parameterizes a Manager. Zero fields take the defaults above.
type Config struct {
	// MmapThreshold is the minimum file size for memory mapping.
	MmapThreshold int64

	// MaxMappings is the mapping-count budget of the pool.
	MaxMappings int

	// MaxMappedBytes is the byte budget of the pool.
	MaxMappedBytes int64

	// AcquireTimeout bounds the wait for byte budget.
	AcquireTimeout time.Duration

	// IOBytesPerSec throttles the streaming read path. 0 means unlimited.
	IOBytesPerSec int64

	// Decompression enables transparent gzip/zstd/lz4 reading.
	Decompression bool

	// MaxDecompressedBytes caps the decompressed size of one file.
	MaxDecompressedBytes int64

	// Sample overrides the system memory sampler (tests).
	Sample SampleFunc
}

func (c Config) withDefaults() Config {
	if c.MmapThreshold <= 0 {
		c.MmapThreshold = DefaultMmapThreshold
	}
	if c.MaxMappings <= 0 {
		c.MaxMappings = DefaultMaxMappings
	}
	if c.MaxMappedBytes <= 0 {
		c.MaxMappedBytes = DefaultMaxMappedBytes
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.MaxDecompressedBytes <= 0 {
		c.MaxDecompressedBytes = DefaultMaxDecompressedBytes
	}
	return c
}

// mapping is a pooled memory mapping. All fields except data are guarded
// by the manager mutex; the data slice itself is an immutable shared view,
// so concurrent readers are safe.
type mapping struct {
	path  string
	data  []byte
	size  int64
	unmap func([]byte) error

	// refs counts active readers. A mapping is only evictable at refs == 0.
	refs int

	// elem is the idle-list element while refs == 0, nil otherwise.
	elem *list.Element
}

// Manager owns the mapping pool and the streaming read path. Safe for
// concurrent use by all scan workers.
type Manager struct {
	cfg     Config
	monitor *Monitor
	limiter *rate.Limiter

	// sem is the byte-budget gate. Acquisitions that cannot be satisfied
	// by evicting idle mappings wait here, boundedly.
	sem *semaphore.Weighted

	mu          sync.Mutex
	open        map[string]*mapping
	idle        *list.List // of *mapping; front = most recently used
	mappedCount int

	mappedBytes atomic.Int64
	created     atomic.Int64
	evicted     atomic.Int64
	streamed    atomic.Int64
}

// NewManager creates a Manager with its own pressure monitor.
func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		cfg:  cfg,
		sem:  semaphore.NewWeighted(cfg.MaxMappedBytes),
		open: make(map[string]*mapping),
		idle: list.New(),
	}
	if cfg.IOBytesPerSec > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.IOBytesPerSec), int(cfg.IOBytesPerSec))
	}
	m.monitor = NewMonitor(cfg.Sample)
	m.monitor.mappedBytes = m.mappedBytes.Load
	return m
}

// Pressure returns the current memory pressure level.
func (m *Manager) Pressure() PressureLevel {
	return m.monitor.Level()
}

// Stats is a snapshot of the pool counters.
type Stats struct {
	MappedCount     int
	MappedBytes     int64
	MappingsCreated int64
	MappingsEvicted int64
	StreamedReads   int64
}

// Stats returns a snapshot of the pool state.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	count := m.mappedCount
	m.mu.Unlock()
	return Stats{
		MappedCount:     count,
		MappedBytes:     m.mappedBytes.Load(),
		MappingsCreated: m.created.Load(),
		MappingsEvicted: m.evicted.Load(),
		StreamedReads:   m.streamed.Load(),
	}
}

// Acquire returns a Source for the file. The decision rule: memory-map
// when the policy allows it, the file clears the small-file threshold, and
// pressure is below High; otherwise stream. Mapping failures of any kind
// fall back to streaming transparently — the caller never observes which
// mode was used.
func (m *Manager) Acquire(ctx context.Context, path string, size int64, allowMmap bool) (*Source, error) {
	if m.cfg.Decompression {
		if format, ok := DetectFormat(path); ok {
			data, err := m.readCompressed(ctx, path, format)
			if err != nil {
				return nil, err
			}
			m.streamed.Add(1)
			return &Source{kind: KindStreamed, data: data, mgr: m}, nil
		}
	}

	if allowMmap && size >= m.cfg.MmapThreshold && size <= m.cfg.MaxMappedBytes && m.Pressure() < PressureHigh {
		if src := m.tryMap(ctx, path, size); src != nil {
			return src, nil
		}
	}

	data, err := m.readStream(ctx, path, size)
	if err != nil {
		return nil, err
	}
	m.streamed.Add(1)
	return &Source{kind: KindStreamed, data: data, mgr: m}, nil
}

// tryMap attempts to produce a mapped source. It returns nil on any
// obstacle (budget, platform failure); the caller streams instead.
func (m *Manager) tryMap(ctx context.Context, path string, size int64) *Source {
	m.mu.Lock()
	if mp, ok := m.open[path]; ok {
		// Pool hit: the file is already mapped and idle (the orchestrator
		// never searches one file from two workers at once).
		mp.refs++
		if mp.elem != nil {
			m.idle.Remove(mp.elem)
			mp.elem = nil
		}
		m.mu.Unlock()
		return &Source{kind: KindMapped, data: mp.data, m: mp, mgr: m}
	}

	// Count budget: make room by evicting idle mappings, oldest first.
	for m.mappedCount >= m.cfg.MaxMappings {
		if !m.evictOldestLocked() {
			m.mu.Unlock()
			return nil
		}
	}
	m.mu.Unlock()

	if !m.reserveBytes(ctx, size) {
		return nil
	}

	mp, err := mapFile(path, size)
	if err != nil {
		m.sem.Release(size)
		return nil
	}

	m.mu.Lock()
	m.open[path] = mp
	m.mappedCount++
	m.mu.Unlock()

	m.mappedBytes.Add(size)
	m.created.Add(1)
	return &Source{kind: KindMapped, data: mp.data, m: mp, mgr: m}
}

// reserveBytes obtains byte budget for a new mapping: first without
// waiting, then by evicting idle mappings, finally by a bounded wait for
// active readers to finish.
func (m *Manager) reserveBytes(ctx context.Context, size int64) bool {
	if m.sem.TryAcquire(size) {
		return true
	}

	m.mu.Lock()
	for m.idle.Len() > 0 {
		if m.sem.TryAcquire(size) {
			m.mu.Unlock()
			return true
		}
		if !m.evictOldestLocked() {
			break
		}
	}
	m.mu.Unlock()

	if m.sem.TryAcquire(size) {
		return true
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.AcquireTimeout)
	defer cancel()
	return m.sem.Acquire(waitCtx, size) == nil
}

// evictOldestLocked reclaims the least-recently-used idle mapping.
// Mappings with active readers are never candidates.
func (m *Manager) evictOldestLocked() bool {
	elem := m.idle.Back()
	if elem == nil {
		return false
	}
	mp := elem.Value.(*mapping)
	m.idle.Remove(elem)
	mp.elem = nil
	delete(m.open, mp.path)
	m.mappedCount--

	_ = mp.unmap(mp.data)
	mp.data = nil
	m.mappedBytes.Add(-mp.size)
	m.sem.Release(mp.size)
	m.evicted.Add(1)
	return true
}

// releaseMapping drops a read reference. Zero-ref mappings park in the
// idle list for reuse, except under High pressure where they are reclaimed
// immediately to shed footprint.
func (m *Manager) releaseMapping(mp *mapping) {
	reclaim := m.Pressure() >= PressureHigh

	m.mu.Lock()
	mp.refs--
	if mp.refs > 0 {
		m.mu.Unlock()
		return
	}
	mp.elem = m.idle.PushFront(mp)
	if reclaim {
		m.idle.Remove(mp.elem)
		mp.elem = nil
		delete(m.open, mp.path)
		m.mappedCount--
		_ = mp.unmap(mp.data)
		mp.data = nil
		m.mappedBytes.Add(-mp.size)
		m.sem.Release(mp.size)
		m.evicted.Add(1)
	}
	m.mu.Unlock()
}

// Close unmaps all idle mappings. Mappings still referenced by a reader
// are left alone; callers must release every Source before Close.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for m.idle.Len() > 0 {
		elem := m.idle.Back()
		mp := elem.Value.(*mapping)
		m.idle.Remove(elem)
		mp.elem = nil
		delete(m.open, mp.path)
		m.mappedCount--
		if err := mp.unmap(mp.data); err != nil && firstErr == nil {
			firstErr = err
		}
		mp.data = nil
		m.mappedBytes.Add(-mp.size)
		m.sem.Release(mp.size)
	}
	if len(m.open) > 0 && firstErr == nil {
		firstErr = fmt.Errorf("source: %d mappings still referenced at close", len(m.open))
	}
	return firstErr
}

// mapFile opens and memory-maps a file read-only, advising sequential
// access.
func mapFile(path string, size int64) (*mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Guard against the file having shrunk since discovery.
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() < size {
		size = fi.Size()
	}
	if size <= 0 {
		return nil, fmt.Errorf("source: empty file %s", path)
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	_ = osAdvise(data)

	return &mapping{path: path, data: data, size: size, unmap: unmap, refs: 1}, nil
}
