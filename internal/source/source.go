package source

import "sync/atomic"

// Kind distinguishes the two shapes a Source can take.
type Kind uint8

const (
	// KindStreamed is a bounded in-memory buffer filled by incremental reads.
	KindStreamed Kind = iota

	// KindMapped is an OS memory mapping, reference-counted while workers
	// read it.
	KindMapped
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindMapped {
		return "mapped"
	}
	return "streamed"
}

// Source is an owned, read-only view of one file's bytes. Release must be
// called exactly when the reader is done; it is idempotent. The slice
// returned by Bytes is invalid after Release for mapped sources.
type Source struct {
	kind     Kind
	data     []byte
	m        *mapping
	mgr      *Manager
	released atomic.Bool
}

// Bytes returns the file contents. Callers must not mutate the slice and
// must not retain it past Release.
func (s *Source) Bytes() []byte {
	if s.released.Load() {
		return nil
	}
	return s.data
}

// Kind reports whether the source is mapped or streamed.
func (s *Source) Kind() Kind { return s.kind }

// Len returns the content length in bytes.
func (s *Source) Len() int { return len(s.data) }

// Release returns the source to the manager. For mapped sources this drops
// the read reference and makes the mapping eligible for pool eviction;
// for streamed sources it drops the buffer.
func (s *Source) Release() {
	if s.released.Swap(true) {
		return
	}
	if s.kind == KindMapped && s.mgr != nil {
		s.mgr.releaseMapping(s.m)
	}
	s.data = nil
}
