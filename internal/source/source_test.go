package source

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plentyMemory() (uint64, uint64, error) {
	return 8 << 30, 16 << 30, nil
}

func scarceMemory() (uint64, uint64, error) {
	return 1 << 28, 16 << 30, nil
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func repeatPattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	return data
}

func TestAcquire_MappedAndStreamedIdentical(t *testing.T) {
	dir := t.TempDir()
	content := repeatPattern(1 << 16)
	path := writeFile(t, dir, "data.txt", content)

	mapped := NewManager(Config{MmapThreshold: 1, Sample: plentyMemory})
	defer mapped.Close()
	streamed := NewManager(Config{Sample: plentyMemory})
	defer streamed.Close()

	ctx := context.Background()

	ms, err := mapped.Acquire(ctx, path, int64(len(content)), true)
	require.NoError(t, err)
	defer ms.Release()
	require.Equal(t, KindMapped, ms.Kind())

	ss, err := streamed.Acquire(ctx, path, int64(len(content)), false)
	require.NoError(t, err)
	defer ss.Release()
	require.Equal(t, KindStreamed, ss.Kind())

	assert.True(t, bytes.Equal(ms.Bytes(), ss.Bytes()))
	assert.Equal(t, content, ss.Bytes())
}

func TestAcquire_SmallFileStreams(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "small.txt", []byte("hello world\n"))

	mgr := NewManager(Config{Sample: plentyMemory})
	defer mgr.Close()

	src, err := mgr.Acquire(context.Background(), path, 12, true)
	require.NoError(t, err)
	defer src.Release()

	assert.Equal(t, KindStreamed, src.Kind())
	assert.Equal(t, int64(1), mgr.Stats().StreamedReads)
}

func TestAcquire_HighPressureStreams(t *testing.T) {
	dir := t.TempDir()
	content := repeatPattern(1 << 12)
	path := writeFile(t, dir, "data.txt", content)

	mgr := NewManager(Config{MmapThreshold: 1, Sample: scarceMemory})
	defer mgr.Close()

	src, err := mgr.Acquire(context.Background(), path, int64(len(content)), true)
	require.NoError(t, err)
	defer src.Release()

	assert.Equal(t, KindStreamed, src.Kind())
	assert.Equal(t, content, src.Bytes())
}

func TestRelease_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.txt", repeatPattern(1<<12))

	mgr := NewManager(Config{MmapThreshold: 1, Sample: plentyMemory})
	defer mgr.Close()

	src, err := mgr.Acquire(context.Background(), path, 1<<12, true)
	require.NoError(t, err)
	require.Equal(t, KindMapped, src.Kind())

	src.Release()
	src.Release()
	assert.Nil(t, src.Bytes())
	assert.Equal(t, 1, mgr.Stats().MappedCount)
}

func TestManager_PoolReuse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.txt", repeatPattern(1<<12))

	mgr := NewManager(Config{MmapThreshold: 1, Sample: plentyMemory})
	defer mgr.Close()
	ctx := context.Background()

	src, err := mgr.Acquire(ctx, path, 1<<12, true)
	require.NoError(t, err)
	src.Release()

	again, err := mgr.Acquire(ctx, path, 1<<12, true)
	require.NoError(t, err)
	defer again.Release()

	assert.Equal(t, KindMapped, again.Kind())
	assert.Equal(t, int64(1), mgr.Stats().MappingsCreated)
}

func TestManager_EvictsIdleForBudget(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", repeatPattern(1<<12))
	b := writeFile(t, dir, "b.txt", repeatPattern(1<<12))

	mgr := NewManager(Config{
		MmapThreshold:  1,
		MaxMappedBytes: 6 << 10,
		Sample:         plentyMemory,
	})
	defer mgr.Close()
	ctx := context.Background()

	first, err := mgr.Acquire(ctx, a, 1<<12, true)
	require.NoError(t, err)
	require.Equal(t, KindMapped, first.Kind())
	first.Release()

	second, err := mgr.Acquire(ctx, b, 1<<12, true)
	require.NoError(t, err)
	defer second.Release()

	require.Equal(t, KindMapped, second.Kind())
	stats := mgr.Stats()
	assert.Equal(t, int64(1), stats.MappingsEvicted)
	assert.Equal(t, 1, stats.MappedCount)
	assert.LessOrEqual(t, stats.MappedBytes, int64(6<<10))
}

func TestManager_ActiveMappingNeverEvicted(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", repeatPattern(1<<12))
	b := writeFile(t, dir, "b.txt", repeatPattern(1<<12))

	mgr := NewManager(Config{
		MmapThreshold:  1,
		MaxMappedBytes: 6 << 10,
		AcquireTimeout: 20 * time.Millisecond,
		Sample:         plentyMemory,
	})
	defer mgr.Close()
	ctx := context.Background()

	first, err := mgr.Acquire(ctx, a, 1<<12, true)
	require.NoError(t, err)
	require.Equal(t, KindMapped, first.Kind())

	// No budget and the only mapping is in use: the second acquisition
	// falls back to streaming rather than evicting or blocking.
	second, err := mgr.Acquire(ctx, b, 1<<12, true)
	require.NoError(t, err)
	defer second.Release()

	assert.Equal(t, KindStreamed, second.Kind())
	assert.Equal(t, int64(0), mgr.Stats().MappingsEvicted)
	assert.NotNil(t, first.Bytes())
	first.Release()
}

func TestChunkSizeFor(t *testing.T) {
	assert.Equal(t, chunkTiny, chunkSizeFor(100))
	assert.Equal(t, chunkTiny, chunkSizeFor(64<<10))
	assert.Equal(t, chunkSmall, chunkSizeFor(1<<20))
	assert.Equal(t, chunkMedium, chunkSizeFor(8<<20))
	assert.Equal(t, chunkLarge, chunkSizeFor(64<<20))
}

func TestMonitor_Levels(t *testing.T) {
	tests := []struct {
		name  string
		avail uint64
		total uint64
		want  PressureLevel
	}{
		{"plenty", 8 << 30, 16 << 30, PressureLow},
		{"moderate", 3 << 30, 16 << 30, PressureModerate},
		{"scarce", 1 << 28, 16 << 30, PressureHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(func() (uint64, uint64, error) { return tt.avail, tt.total, nil })
			assert.Equal(t, tt.want, m.Level())
		})
	}
}

func TestDetectFormat(t *testing.T) {
	f, ok := DetectFormat("app.log.gz")
	require.True(t, ok)
	assert.Equal(t, FormatGzip, f)

	f, ok = DetectFormat("dump.ZST")
	require.True(t, ok)
	assert.Equal(t, FormatZstd, f)

	f, ok = DetectFormat("trace.lz4")
	require.True(t, ok)
	assert.Equal(t, FormatLZ4, f)

	_, ok = DetectFormat("plain.txt")
	assert.False(t, ok)
}

func TestAcquire_DecompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := repeatPattern(1 << 14)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(content)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := writeFile(t, dir, "data.txt.gz", gz.Bytes())

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	require.NoError(t, err)
	_, err = zw.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	zstPath := writeFile(t, dir, "data.txt.zst", zs.Bytes())

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, err = lw.Write(content)
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	lz4Path := writeFile(t, dir, "data.txt.lz4", lz.Bytes())

	mgr := NewManager(Config{Decompression: true, Sample: plentyMemory})
	defer mgr.Close()
	ctx := context.Background()

	for _, path := range []string{gzPath, zstPath, lz4Path} {
		src, err := mgr.Acquire(ctx, path, 0, true)
		require.NoError(t, err, path)
		assert.Equal(t, content, src.Bytes(), path)
		src.Release()
	}
}

func TestAcquire_DecompressedTooLarge(t *testing.T) {
	dir := t.TempDir()
	content := repeatPattern(1 << 14)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(content)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	path := writeFile(t, dir, "big.gz", gz.Bytes())

	mgr := NewManager(Config{
		Decompression:        true,
		MaxDecompressedBytes: 1 << 10,
		Sample:               plentyMemory,
	})
	defer mgr.Close()

	_, err = mgr.Acquire(context.Background(), path, 0, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecompressedTooLarge)
}

func TestAcquire_DecompressionDisabledReadsRaw(t *testing.T) {
	dir := t.TempDir()
	content := repeatPattern(1 << 10)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(content)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	path := writeFile(t, dir, "data.gz", gz.Bytes())

	mgr := NewManager(Config{Sample: plentyMemory})
	defer mgr.Close()

	src, err := mgr.Acquire(context.Background(), path, int64(gz.Len()), false)
	require.NoError(t, err)
	defer src.Release()

	assert.Equal(t, gz.Bytes(), src.Bytes())
}

func zipBytes(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarGzBytes(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, data := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o600,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestDetectArchive(t *testing.T) {
	tests := []struct {
		path string
		want ArchiveFormat
		ok   bool
	}{
		{"bundle.zip", ArchiveZip, true},
		{"lib.JAR", ArchiveZip, true},
		{"backup.tar", ArchiveTar, true},
		{"backup.tar.gz", ArchiveTarGzip, true},
		{"backup.tgz", ArchiveTarGzip, true},
		{"plain.gz", 0, false},
		{"plain.txt", 0, false},
	}
	for _, tt := range tests {
		f, ok := DetectArchive(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.want, f, tt.path)
		}
	}
}

func TestOpenArchive_ZipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := map[string][]byte{
		"docs/readme.txt": []byte("hello from the zip\n"),
		"main.go":         []byte("package main\n"),
	}
	path := writeFile(t, dir, "bundle.zip", zipBytes(t, want))

	mgr := NewManager(Config{Decompression: true, Sample: plentyMemory})
	defer mgr.Close()

	entries, skipped, err := mgr.OpenArchive(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, entries, len(want))
	for _, e := range entries {
		assert.Equal(t, want[e.Name], e.Data, e.Name)
	}
	assert.Equal(t, int64(1), mgr.Stats().StreamedReads)
}

func TestOpenArchive_TarGzRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := map[string][]byte{
		"logs/app.log": []byte("line one\nline two\n"),
		"notes.md":     []byte("# notes\n"),
	}
	path := writeFile(t, dir, "backup.tar.gz", tarGzBytes(t, want))

	mgr := NewManager(Config{Decompression: true, Sample: plentyMemory})
	defer mgr.Close()

	entries, skipped, err := mgr.OpenArchive(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, entries, len(want))
	for _, e := range entries {
		assert.Equal(t, want[e.Name], e.Data, e.Name)
	}
}

func TestOpenArchive_OversizedEntrySkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mixed.zip", zipBytes(t, map[string][]byte{
		"small.txt": []byte("fits\n"),
		"huge.txt":  repeatPattern(1 << 12),
	}))

	mgr := NewManager(Config{
		Decompression:        true,
		MaxDecompressedBytes: 1 << 10,
		Sample:               plentyMemory,
	})
	defer mgr.Close()

	entries, skipped, err := mgr.OpenArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "small.txt", entries[0].Name)
	assert.Equal(t, []string{"huge.txt"}, skipped)
}

func TestOpenArchive_NotAnArchive(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.txt", []byte("not a container\n"))

	mgr := NewManager(Config{Decompression: true, Sample: plentyMemory})
	defer mgr.Close()

	_, _, err := mgr.OpenArchive(context.Background(), path)
	require.Error(t, err)
}
