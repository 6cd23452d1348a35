package matcher

import "bytes"

// simple is the naive scan. It is the always-correct baseline, the
// fallback when regex compilation fails, and the safe choice for
// degenerate patterns where skip tables buy nothing.
type simple struct {
	pattern []byte
	fold    bool
}

func newSimple(pattern []byte, fold bool) *simple {
	if fold {
		pattern = toLowerASCII(pattern)
	}
	return &simple{pattern: pattern, fold: fold}
}

func (s *simple) FindAll(data []byte) []Span {
	return s.find(data, -1)
}

func (s *simple) FindFirst(data []byte) (Span, bool) {
	spans := s.find(data, 1)
	if len(spans) == 0 {
		return Span{}, false
	}
	return spans[0], true
}

func (s *simple) find(data []byte, limit int) []Span {
	m := len(s.pattern)
	if m == 0 || len(data) < m {
		return nil
	}

	// Matches do not overlap: resume after each occurrence, matching the
	// regex engine's semantics so all algorithms agree on offsets.
	var spans []Span
	if !s.fold {
		// Fast path: bytes.Index does the scanning.
		pos := 0
		for {
			i := bytes.Index(data[pos:], s.pattern)
			if i < 0 {
				return spans
			}
			spans = append(spans, Span{Offset: pos + i, Length: m})
			if limit > 0 && len(spans) >= limit {
				return spans
			}
			pos += i + m
		}
	}

	for i := 0; i+m <= len(data); {
		if s.equalFold(data[i : i+m]) {
			spans = append(spans, Span{Offset: i, Length: m})
			if limit > 0 && len(spans) >= limit {
				return spans
			}
			i += m
			continue
		}
		i++
	}
	return spans
}

func (s *simple) equalFold(window []byte) bool {
	for i, c := range window {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != s.pattern[i] {
			return false
		}
	}
	return true
}
