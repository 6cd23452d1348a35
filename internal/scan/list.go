package scan

import (
	"context"

	"github.com/hupe1980/grepgo/internal/classify"
	"github.com/hupe1980/grepgo/model"
)

// ListEntry pairs a discovered file with its classification decision.
type ListEntry struct {
	Entry  model.FileEntry
	Class  classify.Classification
	Mode   classify.SearchMode
	Reason string
}

// List walks the roots and classifies every discovered file without
// searching anything. The same walk rules and classification gates apply
// as in a scan, so the listing predicts exactly what a scan would visit.
func List(ctx context.Context, roots []string, opts WalkOptions, cls *classify.Classifier) ([]ListEntry, error) {
	var out []ListEntry
	w := newWalker(opts, func(e model.FileEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := cls.Classify(e)
		out = append(out, ListEntry{Entry: e, Class: d.Class, Mode: d.Mode, Reason: d.Reason})
		return nil
	})
	for _, root := range roots {
		if err := w.walk(ctx, root); err != nil {
			return nil, err
		}
	}
	return out, nil
}
