package scan

import (
	"github.com/hupe1980/grepgo/internal/source"
	"github.com/hupe1980/grepgo/model"
)

// DefaultChunkCeiling is the largest number of files batched into one
// chunk.
const DefaultChunkCeiling = 256

// chunk is a batch of discovered files processed sequentially by one
// worker.
type chunk struct {
	entries []model.FileEntry
}

// chunkSize derives the batch size from the worker count and the current
// memory pressure. More workers mean smaller chunks for load balance, and
// pressure shrinks chunks further to cap concurrent source demand. The
// result is always within [1, ceiling] and is monotonically non-increasing
// as pressure rises.
func chunkSize(workers int, level source.PressureLevel, ceiling int) int {
	if ceiling <= 0 {
		ceiling = DefaultChunkCeiling
	}
	if workers <= 0 {
		workers = 1
	}

	size := ceiling / workers
	switch level {
	case source.PressureModerate:
		size /= 2
	case source.PressureHigh:
		size /= 4
	}

	if size < 1 {
		return 1
	}
	if size > ceiling {
		return ceiling
	}
	return size
}
