package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrDecompressedTooLarge is reported when a compressed file expands past
// the configured cap. The scanner records such files as skipped.
var ErrDecompressedTooLarge = errors.New("source: decompressed content exceeds size limit")

// Format identifies a supported compression container.
type Format uint8

const (
	FormatGzip Format = iota
	FormatZstd
	FormatLZ4
)

// DetectFormat maps a file extension to its compression format.
func DetectFormat(path string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "gz", "gzip":
		return FormatGzip, true
	case "zst", "zstd":
		return FormatZstd, true
	case "lz4":
		return FormatLZ4, true
	default:
		return 0, false
	}
}

// readCompressed decompresses the file fully into memory, honoring the
// decompressed-size cap and the IO rate limit on the compressed stream.
func (m *Manager) readCompressed(ctx context.Context, path string, format Format) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = &limitedIOReader{r: f, mgr: m, ctx: ctx}

	var dec io.Reader
	switch format {
	case FormatGzip:
		gr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("source: gzip %s: %w", path, err)
		}
		defer gr.Close()
		dec = gr
	case FormatZstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("source: zstd %s: %w", path, err)
		}
		defer zr.Close()
		dec = zr
	case FormatLZ4:
		dec = lz4.NewReader(src)
	default:
		return nil, fmt.Errorf("source: unknown compression format for %s", path)
	}

	// Read one byte past the cap so overflow is distinguishable from an
	// exactly-at-cap file.
	limit := m.cfg.MaxDecompressedBytes
	data, err := io.ReadAll(io.LimitReader(dec, limit+1))
	if err != nil {
		return nil, fmt.Errorf("source: decompress %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s", ErrDecompressedTooLarge, path)
	}
	return data, nil
}

// limitedIOReader applies the manager's IO rate limit to reads of a
// compressed stream.
type limitedIOReader struct {
	r   io.Reader
	mgr *Manager
	ctx context.Context
}

func (l *limitedIOReader) Read(p []byte) (int, error) {
	if err := l.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if lerr := l.mgr.waitIO(l.ctx, n); lerr != nil {
			return n, lerr
		}
	}
	return n, err
}
