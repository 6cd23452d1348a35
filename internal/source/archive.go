package source

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ArchiveFormat identifies a supported container format.
type ArchiveFormat uint8

const (
	ArchiveZip ArchiveFormat = iota
	ArchiveTar
	ArchiveTarGzip
)

// DetectArchive maps a file name to its container format. A .tar.gz (or
// .tgz) double extension is a gzip-compressed tar, not a plain gzip
// stream.
func DetectArchive(path string) (ArchiveFormat, bool) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".zip"), strings.HasSuffix(name, ".jar"):
		return ArchiveZip, true
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return ArchiveTarGzip, true
	case strings.HasSuffix(name, ".tar"):
		return ArchiveTar, true
	default:
		return 0, false
	}
}

// ArchiveEntry is one file extracted from a container. Name is the path
// inside the archive; callers join it with the container path for
// reporting ("bundle.zip:dir/file.txt").
type ArchiveEntry struct {
	Name string
	Data []byte
}

// OpenArchive enumerates a container and extracts each regular entry into
// memory, honoring the decompressed-size cap per entry. Entries exceeding
// the cap are returned in skipped rather than failing the archive; reads
// of the compressed stream are rate limited like any other streamed read.
func (m *Manager) OpenArchive(ctx context.Context, path string) (entries []ArchiveEntry, skipped []string, err error) {
	format, ok := DetectArchive(path)
	if !ok {
		return nil, nil, fmt.Errorf("source: %s is not a supported archive", path)
	}

	switch format {
	case ArchiveZip:
		entries, skipped, err = m.openZip(ctx, path)
	default:
		entries, skipped, err = m.openTar(ctx, path, format == ArchiveTarGzip)
	}
	if err != nil {
		return nil, nil, err
	}
	m.streamed.Add(1)
	return entries, skipped, nil
}

func (m *Manager) openZip(ctx context.Context, path string) ([]ArchiveEntry, []string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("source: zip %s: %w", path, err)
	}
	defer zr.Close()

	var (
		entries []ArchiveEntry
		skipped []string
		limit   = m.cfg.MaxDecompressedBytes
	)
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if int64(f.UncompressedSize64) > limit {
			skipped = append(skipped, f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			skipped = append(skipped, f.Name)
			continue
		}
		data, err := io.ReadAll(io.LimitReader(rc, limit+1))
		rc.Close()
		if err != nil {
			skipped = append(skipped, f.Name)
			continue
		}
		if int64(len(data)) > limit {
			skipped = append(skipped, f.Name)
			continue
		}
		if lerr := m.waitIO(ctx, len(data)); lerr != nil {
			return nil, nil, lerr
		}
		entries = append(entries, ArchiveEntry{Name: f.Name, Data: data})
	}
	return entries, skipped, nil
}

func (m *Manager) openTar(ctx context.Context, path string, gzipped bool) ([]ArchiveEntry, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var src io.Reader = &limitedIOReader{r: f, mgr: m, ctx: ctx}
	if gzipped {
		gr, err := gzip.NewReader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("source: tar.gz %s: %w", path, err)
		}
		defer gr.Close()
		src = gr
	}

	var (
		entries []ArchiveEntry
		skipped []string
		limit   = m.cfg.MaxDecompressedBytes
		tr      = tar.NewReader(src)
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, skipped, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("source: tar %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if hdr.Size > limit {
			skipped = append(skipped, hdr.Name)
			// The reader positions itself at the next header; the
			// oversized body is skipped without buffering it.
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tr, limit+1))
		if err != nil {
			skipped = append(skipped, hdr.Name)
			continue
		}
		if int64(len(data)) > limit {
			skipped = append(skipped, hdr.Name)
			continue
		}
		entries = append(entries, ArchiveEntry{Name: hdr.Name, Data: data})
	}
}
