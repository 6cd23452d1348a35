package matcher

// boyerMoore implements Boyer-Moore substring search with the
// bad-character and strong good-suffix rules. Both skip tables are built
// once per pattern; the average-case cost is sublinear in the text length.
type boyerMoore struct {
	pattern    []byte
	badChar    [256]int
	goodSuffix []int
	fold       bool
}

func newBoyerMoore(pattern []byte, fold bool) *boyerMoore {
	if fold {
		pattern = toLowerASCII(pattern)
	}
	bm := &boyerMoore{pattern: pattern, fold: fold}
	for i := range bm.badChar {
		bm.badChar[i] = -1
	}
	for i, c := range pattern {
		bm.badChar[c] = i
	}
	bm.goodSuffix = buildGoodSuffix(pattern)
	return bm
}

// buildGoodSuffix computes the strong good-suffix shift table of size m+1
// using the border-position construction.
func buildGoodSuffix(p []byte) []int {
	m := len(p)
	shift := make([]int, m+1)
	border := make([]int, m+1)

	i, j := m, m+1
	border[i] = j
	for i > 0 {
		for j <= m && p[i-1] != p[j-1] {
			if shift[j] == 0 {
				shift[j] = j - i
			}
			j = border[j]
		}
		i--
		j--
		border[i] = j
	}

	j = border[0]
	for i = 0; i <= m; i++ {
		if shift[i] == 0 {
			shift[i] = j
		}
		if i == j {
			j = border[j]
		}
	}
	return shift
}

func (bm *boyerMoore) at(data []byte, i int) byte {
	c := data[i]
	if bm.fold && c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	return c
}

func (bm *boyerMoore) FindAll(data []byte) []Span {
	return bm.find(data, -1)
}

func (bm *boyerMoore) FindFirst(data []byte) (Span, bool) {
	spans := bm.find(data, 1)
	if len(spans) == 0 {
		return Span{}, false
	}
	return spans[0], true
}

func (bm *boyerMoore) find(data []byte, limit int) []Span {
	m := len(bm.pattern)
	n := len(data)
	if m == 0 || n < m {
		return nil
	}

	var spans []Span
	s := 0
	for s <= n-m {
		j := m - 1
		for j >= 0 && bm.pattern[j] == bm.at(data, s+j) {
			j--
		}
		if j < 0 {
			spans = append(spans, Span{Offset: s, Length: m})
			if limit > 0 && len(spans) >= limit {
				return spans
			}
			// Matches do not overlap; resume after the occurrence so
			// every algorithm reports identical offsets.
			s += m
			continue
		}

		bc := j - bm.badChar[bm.at(data, s+j)]
		gs := bm.goodSuffix[j+1]
		shift := bc
		if gs > shift {
			shift = gs
		}
		if shift < 1 {
			shift = 1
		}
		s += shift
	}
	return spans
}

func toLowerASCII(p []byte) []byte {
	out := make([]byte, len(p))
	for i, c := range p {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
