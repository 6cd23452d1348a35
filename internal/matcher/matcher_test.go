package matcher

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, cfg Config) Matcher {
	t.Helper()
	if cfg.Cache == nil {
		cfg.Cache = NewCache()
	}
	m, warnings, err := Compile(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
	return m
}

func offsets(spans []Span) []int {
	if spans == nil {
		return nil
	}
	out := make([]int, len(spans))
	for i, s := range spans {
		out[i] = s.Offset
	}
	return out
}

func TestBoyerMoore_FindAll(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    []int
	}{
		{"single", "foo", "a foo b", []int{2}},
		{"multiple", "foo", "foo bar foo", []int{0, 8}},
		{"self-overlapping pattern", "aa", "aaaa", []int{0, 2}},
		{"at end", "end", "the end", []int{4}},
		{"none", "xyz", "the end", nil},
		{"pattern longer than text", "longpattern", "short", nil},
		{"repeated suffix", "abab", "abababab", []int{0, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compile(t, Config{Pattern: tt.pattern})
			assert.Equal(t, tt.want, offsets(m.FindAll([]byte(tt.text))))
		})
	}
}

func TestBoyerMoore_CaseInsensitive(t *testing.T) {
	m := compile(t, Config{Pattern: "Foo", CaseInsensitive: true})
	assert.Equal(t, []int{0, 4}, offsets(m.FindAll([]byte("FOO foo"))))
}

// Running every algorithm against the same buffer must yield the same
// ordered offsets.
func TestAlgorithmEquivalence(t *testing.T) {
	texts := []string{
		"",
		"foo",
		"foo bar foo baz foofoo",
		"line one\nline two foo\nfoo at start\nend foo",
		"aaaaaaaaaaaaaaaaaaaaaa",
		"mixed\x00binary\x00foo\x00bytes",
		"ababababababab",
	}
	patterns := []string{"foo", "a", "ab", "aba", "zzz", "line two"}

	for _, pattern := range patterns {
		for ti, text := range texts {
			t.Run(fmt.Sprintf("%s-%d", pattern, ti), func(t *testing.T) {
				bm := compile(t, Config{Pattern: pattern, Algorithm: AlgoBoyerMoore})
				si := compile(t, Config{Pattern: pattern, Algorithm: AlgoSimple})
				re := compile(t, Config{Pattern: pattern, Algorithm: AlgoRegex})

				data := []byte(text)
				want := si.FindAll(data)
				assert.Equal(t, offsets(want), offsets(bm.FindAll(data)), "boyer-moore vs simple")
				assert.Equal(t, offsets(want), offsets(re.FindAll(data)), "regex vs simple")

				wantFirst, wantOK := si.FindFirst(data)
				gotFirst, gotOK := bm.FindFirst(data)
				assert.Equal(t, wantOK, gotOK)
				if wantOK {
					assert.Equal(t, wantFirst.Offset, gotFirst.Offset)
				}
			})
		}
	}
}

// Case-insensitive matching must also be algorithm-independent: ASCII
// letters fold, and nothing else does. U+212A KELVIN SIGN folds to "k"
// under full Unicode rules, so it is the canonical divergence probe.
func TestAlgorithmEquivalence_CaseInsensitive(t *testing.T) {
	texts := []string{
		"temp in K units and one k here",
		"FOO foo Foo föo",
		"straße SS ss",
		"K k K K",
	}
	patterns := []string{"k", "foo", "ss", "K"}

	for _, pattern := range patterns {
		for ti, text := range texts {
			t.Run(fmt.Sprintf("%s-%d", pattern, ti), func(t *testing.T) {
				cfg := Config{Pattern: pattern, CaseInsensitive: true}

				cfg.Algorithm = AlgoSimple
				si := compile(t, cfg)
				cfg.Algorithm = AlgoBoyerMoore
				bm := compile(t, cfg)
				cfg.Algorithm = AlgoRegex
				re := compile(t, cfg)

				data := []byte(text)
				want := offsets(si.FindAll(data))
				assert.Equal(t, want, offsets(bm.FindAll(data)), "boyer-moore vs simple")
				assert.Equal(t, want, offsets(re.FindAll(data)), "regex vs simple")
			})
		}
	}
}

func TestCaseInsensitive_NoUnicodeFolding(t *testing.T) {
	data := []byte("temp in K units and one k here")
	for _, algo := range []Algorithm{AlgoBoyerMoore, AlgoRegex, AlgoSimple} {
		m := compile(t, Config{Pattern: "k", CaseInsensitive: true, Algorithm: algo})
		spans := m.FindAll(data)
		require.Len(t, spans, 1, "algorithm %d", algo)
		assert.Equal(t, 26, spans[0].Offset, "algorithm %d", algo)
		assert.Equal(t, 1, spans[0].Length, "algorithm %d", algo)
	}
}

func TestFoldASCIIPattern(t *testing.T) {
	assert.Equal(t, "[fF][oO][oO]", foldASCIIPattern("foo"))
	assert.Equal(t, "[fF][nN] [fF][oO][oO]\\(\\)", foldASCIIPattern("fn foo()"))
	assert.Equal(t, "[aA]\\.[bB]", foldASCIIPattern("a.b"))
	// Non-ASCII bytes pass through unescaped and unfolded.
	assert.Equal(t, "ö[xX]", foldASCIIPattern("öx"))
}

func TestRegex_Pattern(t *testing.T) {
	m := compile(t, Config{Pattern: `fn \w+\(\)`, Mode: ModeRegex})
	spans := m.FindAll([]byte("fn foo()\nfn bar()\n"))
	require.Len(t, spans, 2)
	assert.Equal(t, 0, spans[0].Offset)
	assert.Equal(t, 8, spans[0].Length)
	assert.Equal(t, 9, spans[1].Offset)
}

func TestRegex_TextModeQuotesMeta(t *testing.T) {
	m := compile(t, Config{Pattern: "a.b", Mode: ModeText, Algorithm: AlgoRegex})
	assert.Equal(t, []int{0}, offsets(m.FindAll([]byte("a.b axb"))), "dot must not act as a wildcard in text mode")
}

func TestRegex_CompileFailureFallsBackToSimple(t *testing.T) {
	m, warnings, err := Compile(Config{Pattern: "[unclosed", Mode: ModeRegex, Cache: NewCache()})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "falling back to literal search")

	// The fallback searches the raw pattern literally.
	assert.Equal(t, []int{3}, offsets(m.FindAll([]byte("xx [unclosed yy"))))
}

func TestCompile_EmptyPattern(t *testing.T) {
	_, _, err := Compile(Config{Pattern: ""})
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestWordMode(t *testing.T) {
	m := compile(t, Config{Pattern: "foo", Mode: ModeWord})

	spans := m.FindAll([]byte("foo foobar foo_baz (foo) bar.foo"))
	assert.Equal(t, []int{0, 20, 29}, offsets(spans))

	_, ok := m.FindFirst([]byte("foobar"))
	assert.False(t, ok)

	sp, ok := m.FindFirst([]byte("foobar foo"))
	require.True(t, ok)
	assert.Equal(t, 7, sp.Offset)
}

func TestWordMode_MultiByteNeighborsBlockBoundary(t *testing.T) {
	m := compile(t, Config{Pattern: "foo", Mode: ModeWord})
	// A UTF-8 continuation byte adjacent to the match counts as a word
	// byte, so "ufoo" with a multi-byte u-umlaut prefix is not a token.
	assert.Empty(t, m.FindAll([]byte("\xc3\xbcfoo")))
}

func TestCache_CompileOnce(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			re, err := c.Get(`\d+`)
			assert.NoError(t, err)
			assert.NotNil(t, re)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), c.Compiles())
	assert.Equal(t, int64(15), c.Hits())

	_, err := c.Get("[bad")
	assert.Error(t, err)
	_, err = c.Get("[bad")
	assert.Error(t, err, "failed compilations are cached too")
	assert.Equal(t, int64(2), c.Compiles())
}

func TestLineIndex(t *testing.T) {
	data := []byte("first line\nsecond foo line\n\nfourth")
	ix := NewLineIndex(data)

	assert.Equal(t, 4, ix.LineCount())
	assert.Equal(t, 1, ix.LineAt(0))
	assert.Equal(t, 1, ix.LineAt(9))
	assert.Equal(t, 2, ix.LineAt(11))
	assert.Equal(t, 3, ix.LineAt(27))
	assert.Equal(t, 4, ix.LineAt(28))

	start, end := ix.LineSpan(1)
	assert.Equal(t, "first line", string(data[start:end]))
	start, end = ix.LineSpan(2)
	assert.Equal(t, "second foo line", string(data[start:end]))
	start, end = ix.LineSpan(3)
	assert.Equal(t, "", string(data[start:end]))
	start, end = ix.LineSpan(4)
	assert.Equal(t, "fourth", string(data[start:end]))

	start, end = ix.LineSpan(5)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestLineIndex_Annotate(t *testing.T) {
	data := []byte("foo bar foo\nbaz\nfoo")
	ix := NewLineIndex(data)

	m := compile(t, Config{Pattern: "foo"})
	spans := m.FindAll(data)
	ix.Annotate(spans)

	require.Len(t, spans, 3)
	assert.Equal(t, 1, spans[0].Line)
	assert.Equal(t, 0, spans[0].Column)
	assert.Equal(t, 1, spans[1].Line)
	assert.Equal(t, 8, spans[1].Column)
	assert.Equal(t, 3, spans[2].Line)
	assert.Equal(t, 0, spans[2].Column)
}

func TestLineIndex_EmptyAndNoTrailingNewline(t *testing.T) {
	assert.Equal(t, 0, NewLineIndex(nil).LineCount())
	assert.Equal(t, 1, NewLineIndex([]byte("no newline")).LineCount())
	assert.Equal(t, 1, NewLineIndex([]byte("trailing\n")).LineCount())
}
