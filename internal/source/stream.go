package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Streaming chunk tiers. Small files read in one or two syscalls; large
// files amortize the rate-limiter bookkeeping over bigger chunks.
const (
	chunkTiny   = 4 << 10
	chunkSmall  = 8 << 10
	chunkMedium = 64 << 10
	chunkLarge  = 256 << 10
)

// chunkSizeFor picks the streaming chunk size from the file size.
func chunkSizeFor(size int64) int {
	switch {
	case size <= 64<<10:
		return chunkTiny
	case size <= 1<<20:
		return chunkSmall
	case size <= 16<<20:
		return chunkMedium
	default:
		return chunkLarge
	}
}

// readStream reads the whole file through the rate-limited chunked path.
// The size hint from discovery is advisory; files that grew since are read
// in full.
func (m *Manager) readStream(ctx context.Context, path string, size int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if size < 0 {
		size = 0
	}
	buf := make([]byte, 0, size)
	chunk := make([]byte, chunkSizeFor(size))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := f.Read(chunk)
		if n > 0 {
			if lerr := m.waitIO(ctx, n); lerr != nil {
				return nil, lerr
			}
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, fmt.Errorf("source: read %s: %w", path, err)
		}
	}
}

// waitIO blocks until the limiter grants n bytes of IO credit.
func (m *Manager) waitIO(ctx context.Context, n int) error {
	if m.limiter == nil {
		return nil
	}
	if n > m.limiter.Burst() {
		n = m.limiter.Burst()
	}
	return m.limiter.WaitN(ctx, n)
}
