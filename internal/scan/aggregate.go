package scan

import (
	"fmt"
	"sync"

	"github.com/hupe1980/grepgo/model"
)

// OutputMode selects the shape of the aggregated result.
type OutputMode uint8

const (
	// ModeMatches collects full match detail with line text and context.
	ModeMatches OutputMode = iota

	// ModeCount collects only the total match count. Context capture is
	// disabled.
	ModeCount

	// ModeFilesWithMatches collects paths with at least one match and
	// short-circuits each file at its first match.
	ModeFilesWithMatches
)

// String implements fmt.Stringer.
func (m OutputMode) String() string {
	switch m {
	case ModeMatches:
		return "matches"
	case ModeCount:
		return "count"
	case ModeFilesWithMatches:
		return "files-with-matches"
	default:
		return fmt.Sprintf("OutputMode(%d)", uint8(m))
	}
}

// aggregator merges worker output. Workers hand over whole per-file
// batches, so matches within one file stay contiguous and ordered even
// though file order across workers is nondeterministic.
type aggregator struct {
	mode OutputMode

	mu      sync.Mutex
	matches []model.SearchMatch
	files   []string
	count   int
	diags   []model.Diagnostic
}

func newAggregator(mode OutputMode) *aggregator {
	return &aggregator{mode: mode}
}

func (a *aggregator) addBatch(batch []model.SearchMatch) {
	if len(batch) == 0 {
		return
	}
	a.mu.Lock()
	a.matches = append(a.matches, batch...)
	a.mu.Unlock()
}

func (a *aggregator) addFile(path string) {
	a.mu.Lock()
	a.files = append(a.files, path)
	a.mu.Unlock()
}

func (a *aggregator) addCount(n int) {
	if n == 0 {
		return
	}
	a.mu.Lock()
	a.count += n
	a.mu.Unlock()
}

func (a *aggregator) addDiagnostic(d model.Diagnostic) {
	a.mu.Lock()
	a.diags = append(a.diags, d)
	a.mu.Unlock()
}

func (a *aggregator) result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Result{
		Matches:     a.matches,
		Files:       a.files,
		Count:       a.count,
		Diagnostics: a.diags,
	}
}
