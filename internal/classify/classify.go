// Package classify decides, per file, whether and how it may be searched.
//
// Classification is a pure function of (path, extension, sniffed header
// bytes, active strategy, size): re-classifying the same file under the
// same configuration always yields the same decision. The only I/O a
// classification may perform is a single bounded read of the file header
// for content sniffing; an unreadable file classifies as NeverSearch with
// a diagnostic reason instead of raising an error.
package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/grepgo/model"
)

// Classification is the policy decision for a file.
type Classification uint8

const (
	// NeverSearch excludes the file unconditionally (binary, device, excluded).
	NeverSearch Classification = iota

	// SkipByDefault excludes the file unless a strategy or flag opts it in.
	SkipByDefault

	// ConditionalSearch includes the file subject to content sniffing and
	// safety limits.
	ConditionalSearch

	// AlwaysSearch includes the file without further content checks.
	AlwaysSearch
)

// String implements fmt.Stringer.
func (c Classification) String() string {
	switch c {
	case NeverSearch:
		return "never-search"
	case SkipByDefault:
		return "skip-by-default"
	case ConditionalSearch:
		return "conditional-search"
	case AlwaysSearch:
		return "always-search"
	default:
		return "unknown"
	}
}

// Searchable reports whether the classification admits the file under the
// current policy.
func (c Classification) Searchable() bool {
	return c == AlwaysSearch || c == ConditionalSearch
}

// SearchMode is the recommended way to search a classified file.
type SearchMode uint8

const (
	// ModeFullText searches the file's full content.
	ModeFullText SearchMode = iota

	// ModeStructured searches full content that is known to be structured
	// data (JSON, YAML, CSV, ...).
	ModeStructured

	// ModeMetadata recommends searching extracted metadata only
	// (documents whose raw bytes are not line-oriented text).
	ModeMetadata

	// ModeFilename recommends matching the file name only (media, archives).
	ModeFilename
)

// String implements fmt.Stringer.
func (m SearchMode) String() string {
	switch m {
	case ModeFullText:
		return "full-text"
	case ModeStructured:
		return "structured"
	case ModeMetadata:
		return "metadata"
	case ModeFilename:
		return "filename"
	default:
		return "unknown"
	}
}

// Strategy selects how aggressively unknown or borderline file types are
// included.
type Strategy uint8

const (
	// StrategyDefault uses the built-in table as-is.
	StrategyDefault Strategy = iota

	// StrategyComprehensive promotes skip-by-default types to conditional.
	StrategyComprehensive

	// StrategyConservative demotes conditional types to skip-by-default.
	StrategyConservative

	// StrategyPerformance treats unknown extensions as skip-by-default to
	// avoid sniffing cost on large trees.
	StrategyPerformance
)

// ParseStrategy parses a --file-types flag value.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return StrategyDefault, nil
	case "comprehensive":
		return StrategyComprehensive, nil
	case "conservative":
		return StrategyConservative, nil
	case "performance":
		return StrategyPerformance, nil
	default:
		return StrategyDefault, fmt.Errorf("unknown file-types strategy %q", s)
	}
}

// Decision is the outcome of classifying one file.
type Decision struct {
	Class Classification
	Mode  SearchMode

	// Reason explains skips and exclusions; empty for searchable files.
	Reason string

	// unknown marks extensions with no built-in table entry.
	unknown bool
}

// Options configures a Classifier. The zero value is usable and matches
// the default strategy with the default safety policy.
type Options struct {
	Strategy Strategy
	Safety   SafetyPolicy

	// IncludeExtensions, when non-empty, restricts the search to exactly
	// these extensions (highest precedence).
	IncludeExtensions []string

	// ExcludeExtensions removes extensions from the search set.
	ExcludeExtensions []string

	// SearchAllFiles includes every file the safety policy admits,
	// overriding the strategy and the built-in table (but not explicit
	// excludes or binary sniffing when SkipBinary is set).
	SearchAllFiles bool

	// TextOnly excludes files whose recommended mode is not full text.
	TextOnly bool

	// SkipBinary enables content sniffing for otherwise-searchable files
	// and excludes those that look binary.
	SkipBinary bool

	// SearchCompressed admits gzip/zstd/lz4 files for transparent
	// decompression. When false they classify as NeverSearch.
	SearchCompressed bool

	// MaxFileSize overrides the safety policy size cap when > 0.
	MaxFileSize int64
}

// Classifier applies the classification policy. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	opts    Options
	include map[string]struct{}
	exclude map[string]struct{}
	maxSize int64
}

// New builds a Classifier. Extension lists are normalized to lower case
// with any leading dot stripped.
func New(opts Options) *Classifier {
	if opts.Safety.Name == "" {
		opts.Safety = DefaultSafetyPolicy()
	}

	maxSize := opts.Safety.MaxFileSize
	if opts.MaxFileSize > 0 {
		maxSize = opts.MaxFileSize
	}

	return &Classifier{
		opts:    opts,
		include: extensionSet(opts.IncludeExtensions),
		exclude: extensionSet(opts.ExcludeExtensions),
		maxSize: maxSize,
	}
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[NormalizeExt(e)] = struct{}{}
	}
	return set
}

// NormalizeExt lower-cases an extension and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtOf extracts the normalized extension from a path.
func ExtOf(path string) string {
	return NormalizeExt(filepath.Ext(path))
}

// Classify decides whether and how the file may be searched.
//
// The precedence is a fixed total order:
//
//  1. size gate (safety policy / --max-size) — a hard resource bound
//  2. explicit include list
//  3. explicit exclude list
//  4. search-all-files / text-only flags
//  5. safety policy class gate (conservative restricts to always-search types)
//  6. file-type strategy adjustment
//  7. built-in extension table, with content sniffing for unknown or
//     borderline types
//
// When --safety-policy and --file-types request conflicting inclusion of
// the same extension, the safety policy wins: safety caps are hard bounds,
// strategies only express preference.
func (c *Classifier) Classify(e model.FileEntry) Decision {
	ext := e.Ext
	if ext == "" {
		ext = ExtOf(e.Path)
	}

	if c.maxSize > 0 && e.Size > c.maxSize {
		return Decision{
			Class:  SkipByDefault,
			Mode:   ModeFullText,
			Reason: fmt.Sprintf("file size %d exceeds max file size %d", e.Size, c.maxSize),
		}
	}

	// Archives before the compressed check so x.tar.gz enumerates as a
	// tar container instead of decompressing to raw tar bytes.
	if IsArchivePath(e.Path) {
		if !c.opts.SearchCompressed {
			return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: "archive (decompression disabled)"}
		}
		// Entry contents are sniffed individually at extraction time.
		return c.checkExplicit(ext, Decision{Class: ConditionalSearch, Mode: ModeFullText})
	}

	if _, compressed := compressedExts[ext]; compressed {
		if !c.opts.SearchCompressed {
			return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: "compressed file (decompression disabled)"}
		}
		// Decompressed content is searched as full text; the size gate
		// above applies to the compressed size, the source manager caps
		// the decompressed size.
		return c.checkExplicit(ext, Decision{Class: ConditionalSearch, Mode: ModeFullText})
	}

	if c.include != nil {
		if _, ok := c.include[ext]; ok {
			return c.sniffGate(e, Decision{Class: AlwaysSearch, Mode: ModeFullText})
		}
		return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: "extension not in include list"}
	}

	if _, ok := c.exclude[ext]; ok {
		return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: "extension excluded"}
	}

	if c.opts.SearchAllFiles {
		return c.sniffGate(e, Decision{Class: AlwaysSearch, Mode: ModeFullText})
	}

	d := lookupExtension(ext)
	d = c.applyStrategy(d)
	d = c.applySafetyClassGate(d)

	if c.opts.TextOnly && d.Class.Searchable() && d.Mode != ModeFullText {
		return Decision{Class: NeverSearch, Mode: d.Mode, Reason: "non-text file excluded by text-only"}
	}

	if !d.Class.Searchable() {
		if d.Reason == "" {
			d.Reason = "excluded by file type table"
		}
		return d
	}

	return c.sniffGate(e, d)
}

// checkExplicit applies only the include/exclude lists to a decision that
// already bypassed the table (compressed files).
func (c *Classifier) checkExplicit(ext string, d Decision) Decision {
	if c.include != nil {
		if _, ok := c.include[ext]; !ok {
			return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: "extension not in include list"}
		}
		return d
	}
	if _, ok := c.exclude[ext]; ok {
		return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: "extension excluded"}
	}
	return d
}

func (c *Classifier) applyStrategy(d Decision) Decision {
	switch c.opts.Strategy {
	case StrategyComprehensive:
		if d.Class == SkipByDefault {
			d.Class = ConditionalSearch
			d.Reason = ""
		}
	case StrategyConservative:
		if d.Class == ConditionalSearch {
			d.Class = SkipByDefault
			d.Reason = "borderline type excluded by conservative strategy"
		}
	case StrategyPerformance:
		if d.unknown {
			d.Class = SkipByDefault
			d.Reason = "unknown type excluded by performance strategy"
		}
	}
	return d
}

func (c *Classifier) applySafetyClassGate(d Decision) Decision {
	if c.opts.Safety.AlwaysSearchOnly && d.Class == ConditionalSearch {
		d.Class = SkipByDefault
		d.Reason = "borderline type excluded by safety policy " + c.opts.Safety.Name
	}
	return d
}

// sniffGate runs content sniffing on a searchable decision when the policy
// requires it. Sniffing never raises: unreadable files become NeverSearch.
func (c *Classifier) sniffGate(e model.FileEntry, d Decision) Decision {
	needSniff := c.opts.SkipBinary || d.Class == ConditionalSearch
	if !needSniff {
		return d
	}

	kind, reason := SniffFile(e.Path)
	switch kind {
	case KindBinary:
		return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: "binary content"}
	case KindUnreadable:
		return Decision{Class: NeverSearch, Mode: ModeFilename, Reason: reason}
	default:
		return d
	}
}
