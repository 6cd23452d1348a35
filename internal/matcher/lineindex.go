package matcher

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// LineIndex maps byte offsets to line numbers and back. Newline positions
// are stored in a roaring bitmap, so a line-number lookup is a rank query
// and a line-start lookup is a select query; both are cheap even for
// buffers with millions of lines.
//
// A LineIndex is immutable after construction and safe for concurrent
// readers.
type LineIndex struct {
	newlines *roaring64.Bitmap
	size     int
}

// NewLineIndex scans data once and records every newline position.
func NewLineIndex(data []byte) *LineIndex {
	nl := roaring64.New()
	pos := 0
	for {
		i := bytes.IndexByte(data[pos:], '\n')
		if i < 0 {
			break
		}
		nl.Add(uint64(pos + i))
		pos += i + 1
	}
	return &LineIndex{newlines: nl, size: len(data)}
}

// LineAt returns the 1-based line number containing the byte offset.
func (ix *LineIndex) LineAt(offset int) int {
	if offset <= 0 {
		return 1
	}
	// Rank counts newlines at positions <= offset-1, i.e. lines
	// terminated strictly before the offset.
	return int(ix.newlines.Rank(uint64(offset-1))) + 1
}

// LineCount returns the number of lines in the buffer. A trailing newline
// does not start an extra empty line.
func (ix *LineIndex) LineCount() int {
	n := int(ix.newlines.GetCardinality())
	if ix.size == 0 {
		return 0
	}
	if int(ix.lastNewline())+1 == ix.size && n > 0 {
		return n
	}
	return n + 1
}

func (ix *LineIndex) lastNewline() uint64 {
	if ix.newlines.IsEmpty() {
		return 0
	}
	return ix.newlines.Maximum()
}

// LineSpan returns the [start, end) byte range of the 1-based line,
// excluding the terminating newline. Lines out of range yield (0, 0).
func (ix *LineIndex) LineSpan(line int) (start, end int) {
	if line < 1 || line > ix.LineCount() {
		return 0, 0
	}
	if line == 1 {
		start = 0
	} else {
		prev, err := ix.newlines.Select(uint64(line - 2))
		if err != nil {
			return 0, 0
		}
		start = int(prev) + 1
	}
	if uint64(line-1) < ix.newlines.GetCardinality() {
		nl, err := ix.newlines.Select(uint64(line - 1))
		if err != nil {
			return 0, 0
		}
		end = int(nl)
	} else {
		end = ix.size
	}
	return start, end
}

// Annotate fills Line and Column for spans produced by a matcher. Spans
// must be in ascending offset order; the result is therefore ordered by
// line, then by column.
func (ix *LineIndex) Annotate(spans []Span) {
	for i := range spans {
		line := ix.LineAt(spans[i].Offset)
		start, _ := ix.LineSpan(line)
		spans[i].Line = line
		spans[i].Column = spans[i].Offset - start
	}
}
