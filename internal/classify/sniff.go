package classify

import (
	"io"
	"os"
)

// sniffWindow bounds the header read used for content detection.
const sniffWindow = 8000

// nullByteRatio is the fraction of NUL bytes in the sniff window above
// which a file is considered binary.
const nullByteRatio = 0.1

// Kind is the result of content sniffing.
type Kind uint8

const (
	// KindText means the header looks like text (or the file is empty).
	KindText Kind = iota

	// KindBinary means the header looks like binary data.
	KindBinary

	// KindUnreadable means the file could not be opened or read.
	// Callers must treat this as a skip, never as a hard failure.
	KindUnreadable
)

// SniffFile reads at most sniffWindow bytes of the file and classifies the
// content. It never returns an error: unreadable files yield
// KindUnreadable with the reason string.
func SniffFile(path string) (Kind, string) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnreadable, "unreadable: " + err.Error()
	}
	defer f.Close()

	buf := make([]byte, sniffWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return KindUnreadable, "unreadable: " + err.Error()
	}
	return SniffBytes(buf[:n]), ""
}

// SniffBytes classifies a header sample. Unicode BOMs and UTF-16 byte
// patterns are checked before the NUL-byte heuristic so that UTF-16 text
// is not misreported as binary.
func SniffBytes(sample []byte) Kind {
	n := len(sample)
	if n == 0 {
		return KindText
	}

	if n >= 2 {
		if (sample[0] == 0xff && sample[1] == 0xfe) || (sample[0] == 0xfe && sample[1] == 0xff) {
			return KindText // UTF-16 BOM
		}
	}
	if n >= 3 && sample[0] == 0xef && sample[1] == 0xbb && sample[2] == 0xbf {
		return KindText // UTF-8 BOM
	}

	if n >= 4 && looksUTF16(sample) {
		return KindText
	}

	nulls := 0
	for _, b := range sample {
		if b == 0 {
			nulls++
		}
	}
	if float64(nulls) > float64(n)*nullByteRatio {
		return KindBinary
	}
	return KindText
}

// looksUTF16 detects BOM-less UTF-16 by checking for a consistent
// alternating-zero byte pattern in either endianness.
func looksUTF16(sample []byte) bool {
	le, be := true, true
	for i := 0; i+1 < len(sample); i += 2 {
		if sample[i] != 0 && sample[i+1] == 0 {
			// odd byte zero: consistent with LE text
			be = false
		}
		if sample[i] == 0 && sample[i+1] != 0 {
			le = false
		}
		if sample[i] != 0 && sample[i+1] != 0 {
			// a code unit with both bytes set is common ASCII-range
			// evidence against UTF-16 in both layouts
			le = false
			be = false
		}
		if !le && !be {
			return false
		}
	}
	return le || be
}
