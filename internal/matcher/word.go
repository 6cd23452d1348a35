package matcher

// wordByte marks bytes that belong to a token. ASCII letters, digits and
// underscore are word bytes; every byte >= 0x80 is treated as a word byte
// so that multi-byte UTF-8 sequences never introduce spurious boundaries.
// This is a deliberate byte-class choice, not Unicode-aware segmentation.
var wordByte [256]bool

func init() {
	for c := 'a'; c <= 'z'; c++ {
		wordByte[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		wordByte[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		wordByte[c] = true
	}
	wordByte['_'] = true
	for c := 0x80; c < 256; c++ {
		wordByte[c] = true
	}
}

// onWordBoundary reports whether the span [start, end) sits on token
// boundaries: the bytes adjacent to the span are non-word bytes or the
// buffer edge.
func onWordBoundary(data []byte, start, end int) bool {
	if start > 0 && wordByte[data[start-1]] {
		return false
	}
	if end < len(data) && wordByte[data[end]] {
		return false
	}
	return true
}

// wordMatcher constrains an inner matcher to token boundaries. The filter
// is algorithm-independent: it post-processes spans from any Matcher.
type wordMatcher struct {
	inner Matcher
}

func (w *wordMatcher) FindAll(data []byte) []Span {
	spans := w.inner.FindAll(data)
	out := spans[:0]
	for _, sp := range spans {
		if onWordBoundary(data, sp.Offset, sp.Offset+sp.Length) {
			out = append(out, sp)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (w *wordMatcher) FindFirst(data []byte) (Span, bool) {
	for _, sp := range w.inner.FindAll(data) {
		if onWordBoundary(data, sp.Offset, sp.Offset+sp.Length) {
			return sp, true
		}
	}
	return Span{}, false
}
