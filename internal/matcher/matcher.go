// Package matcher implements the pluggable pattern-matching algorithms of
// the scan pipeline: Boyer-Moore substring search, Go regexp with a
// per-run compilation cache, and a naive always-correct fallback.
//
// The algorithm set is closed and dispatched at configuration time. All
// matchers operate on a byte slice and report occurrences in ascending
// offset order, which the line index translates into (line, column) pairs
// with a stable tie-break for matches on the same line.
package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyPattern is returned when the search pattern is empty.
var ErrEmptyPattern = errors.New("matcher: empty pattern")

// Span is one occurrence of the pattern in a buffer. Offset and Length are
// byte positions in the searched buffer; Line and Column are filled in by
// LineIndex.Annotate.
type Span struct {
	Offset int
	Length int

	// Line is the 1-based line number, 0 until annotated.
	Line int

	// Column is the 0-based byte offset within the line.
	Column int
}

// Matcher finds pattern occurrences in a byte buffer. Implementations are
// immutable after construction and safe for concurrent use across workers.
type Matcher interface {
	// FindAll returns every occurrence in ascending offset order.
	FindAll(data []byte) []Span

	// FindFirst returns the first occurrence, if any. It exists so that
	// files-with-matches mode can stop scanning a file at the first hit.
	FindFirst(data []byte) (Span, bool)
}

// Algorithm selects the search implementation.
type Algorithm uint8

const (
	// AlgoBoyerMoore is plain substring search with bad-character and
	// good-suffix skip tables, built once per pattern.
	AlgoBoyerMoore Algorithm = iota

	// AlgoRegex is general pattern search via the regexp package,
	// compiled once per pattern and cached for the run.
	AlgoRegex

	// AlgoSimple is the naive scan: always correct, O(n*m) worst case,
	// and the fallback when regex compilation fails.
	AlgoSimple
)

// ParseAlgorithm parses an --algorithm flag value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "", "boyer-moore", "boyermoore":
		return AlgoBoyerMoore, nil
	case "regex":
		return AlgoRegex, nil
	case "simple":
		return AlgoSimple, nil
	default:
		return AlgoBoyerMoore, fmt.Errorf("unknown algorithm %q", s)
	}
}

// Mode is the search mode requested by the caller.
type Mode uint8

const (
	// ModeText searches for the pattern as a literal substring.
	ModeText Mode = iota

	// ModeRegex interprets the pattern as a regular expression.
	ModeRegex

	// ModeWord searches for the literal pattern constrained to token
	// boundaries.
	ModeWord
)

// ParseMode parses a --mode flag value.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return ModeText, nil
	case "regex":
		return ModeRegex, nil
	case "word":
		return ModeWord, nil
	default:
		return ModeText, fmt.Errorf("unknown search mode %q", s)
	}
}

// Config selects and parameterizes a matcher.
type Config struct {
	Pattern string
	Mode    Mode

	// Algorithm is honored for text and word modes. Regex mode always
	// uses the regex engine (a skip-table substring search cannot
	// evaluate a pattern).
	Algorithm Algorithm

	// CaseInsensitive folds ASCII case. Text and word patterns fold ASCII
	// letters only, whichever algorithm runs them; regex-mode patterns
	// compile with the (?i) flag and follow its Unicode folding.
	CaseInsensitive bool

	// Cache is the per-run regex compilation cache. Required when the
	// effective algorithm is AlgoRegex.
	Cache *Cache
}

// Compile builds the configured matcher. A regex compilation failure
// degrades to the Simple literal matcher and is surfaced in the returned
// warnings rather than silently dropping results. The returned error is
// non-nil only for configuration problems (empty pattern, missing cache).
func Compile(cfg Config) (Matcher, []string, error) {
	if cfg.Pattern == "" {
		return nil, nil, ErrEmptyPattern
	}

	algo := cfg.Algorithm
	if cfg.Mode == ModeRegex {
		algo = AlgoRegex
	}

	var (
		m        Matcher
		warnings []string
	)

	switch algo {
	case AlgoRegex:
		if cfg.Cache == nil {
			return nil, nil, errors.New("matcher: regex algorithm requires a compilation cache")
		}
		re, err := cfg.Cache.Get(regexPattern(cfg))
		if err != nil {
			warnings = append(warnings,
				fmt.Sprintf("pattern %q is not a valid regex (%v); falling back to literal search", cfg.Pattern, err))
			m = newSimple([]byte(cfg.Pattern), cfg.CaseInsensitive)
		} else {
			m = &regexMatcher{re: re}
		}
	case AlgoSimple:
		m = newSimple([]byte(cfg.Pattern), cfg.CaseInsensitive)
	default:
		m = newBoyerMoore([]byte(cfg.Pattern), cfg.CaseInsensitive)
	}

	if cfg.Mode == ModeWord {
		m = &wordMatcher{inner: m}
	}
	return m, warnings, nil
}

// regexPattern builds the cache key / compile input for regex mode. Text
// patterns routed through the regex engine are quoted verbatim; their
// case-insensitive form folds ASCII letters only, so the algorithm choice
// never changes the match set.
func regexPattern(cfg Config) string {
	if cfg.Mode == ModeRegex {
		p := cfg.Pattern
		if cfg.CaseInsensitive {
			p = "(?i)" + p
		}
		return p
	}
	if !cfg.CaseInsensitive {
		return regexp.QuoteMeta(cfg.Pattern)
	}
	return foldASCIIPattern(cfg.Pattern)
}

// regexMeta lists the bytes regexp.QuoteMeta escapes.
const regexMeta = `\.+*?()|[]{}^$`

// foldASCIIPattern quotes a literal pattern with each ASCII letter
// expanded to a two-character class. (?i) is unsuitable here: it applies
// full Unicode folding (k would match U+212A KELVIN SIGN), which the
// skip-table and naive matchers do not do.
func foldASCIIPattern(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c >= 'a' && c <= 'z':
			b.WriteByte('[')
			b.WriteByte(c)
			b.WriteByte(c - 'a' + 'A')
			b.WriteByte(']')
		case c >= 'A' && c <= 'Z':
			b.WriteByte('[')
			b.WriteByte(c + 'a' - 'A')
			b.WriteByte(c)
			b.WriteByte(']')
		default:
			if strings.IndexByte(regexMeta, c) >= 0 {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m *regexMatcher) FindAll(data []byte) []Span {
	locs := m.re.FindAllIndex(data, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		spans = append(spans, Span{Offset: loc[0], Length: loc[1] - loc[0]})
	}
	return spans
}

func (m *regexMatcher) FindFirst(data []byte) (Span, bool) {
	loc := m.re.FindIndex(data)
	if loc == nil {
		return Span{}, false
	}
	return Span{Offset: loc[0], Length: loc[1] - loc[0]}, true
}
