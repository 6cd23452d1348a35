package source

import (
	"sync"
	"time"
)

// PressureLevel is the derived memory-pressure state consumed by the
// chunk-sizing policy and the mapping pool's eviction policy.
type PressureLevel uint8

const (
	// PressureLow means memory is plentiful.
	PressureLow PressureLevel = iota

	// PressureModerate means available memory is getting scarce; chunk
	// sizes shrink and mapping becomes less aggressive.
	PressureModerate

	// PressureHigh means the system is short on memory: new acquisitions
	// stream instead of mapping, and idle mappings are reclaimed.
	PressureHigh
)

// String implements fmt.Stringer.
func (p PressureLevel) String() string {
	switch p {
	case PressureLow:
		return "low"
	case PressureModerate:
		return "moderate"
	case PressureHigh:
		return "high"
	default:
		return "unknown"
	}
}

const (
	// pressureInterval bounds how often the system is sampled.
	pressureInterval = 500 * time.Millisecond

	// moderateAvailRatio and highAvailRatio are the available/total
	// memory ratios below which pressure rises.
	moderateAvailRatio = 0.25
	highAvailRatio     = 0.10
)

// SampleFunc reports available and total system memory in bytes.
type SampleFunc func() (avail, total uint64, err error)

// Monitor derives the pressure level from periodic memory samples and the
// pool's mapped-byte footprint. Safe for concurrent use.
type Monitor struct {
	sample   SampleFunc
	interval time.Duration

	mu        sync.Mutex
	level     PressureLevel
	lastCheck time.Time

	// mappedBytes is queried at sample time; set by the Manager.
	mappedBytes func() int64
}

// NewMonitor creates a pressure monitor. A nil sample function uses the
// platform sampler (sysinfo on Linux; a permissive stub elsewhere).
func NewMonitor(sample SampleFunc) *Monitor {
	if sample == nil {
		sample = systemMemory
	}
	return &Monitor{
		sample:      sample,
		interval:    pressureInterval,
		level:       PressureLow,
		mappedBytes: func() int64 { return 0 },
	}
}

// Level returns the current pressure level, resampling if the cached value
// is stale.
func (m *Monitor) Level() PressureLevel {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.lastCheck) < m.interval {
		return m.level
	}
	m.lastCheck = now

	avail, total, err := m.sample()
	if err != nil || total == 0 {
		// Sampling failure keeps the previous level rather than guessing.
		return m.level
	}

	mapped := uint64(m.mappedBytes())
	ratio := float64(avail) / float64(total)

	switch {
	case ratio < highAvailRatio || (avail > 0 && mapped > avail/2):
		m.level = PressureHigh
	case ratio < moderateAvailRatio || (avail > 0 && mapped > avail/4):
		m.level = PressureModerate
	default:
		m.level = PressureLow
	}
	return m.level
}
