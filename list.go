package grepgo

import (
	"context"
	"fmt"
	"os"

	"github.com/hupe1980/grepgo/internal/classify"
	"github.com/hupe1980/grepgo/internal/scan"
	"github.com/hupe1980/grepgo/model"
)

// ListResult is the outcome of a listing: every discovered file with its
// classification, plus summary statistics.
type ListResult struct {
	// Entries holds one record per discovered file, in walk order.
	Entries []model.ListEntry

	// TotalFiles and TotalSize cover every discovered file.
	TotalFiles int
	TotalSize  int64

	// SearchableFiles and SearchableSize cover the subset a scan with
	// the same options would search.
	SearchableFiles int
	SearchableSize  int64
}

// List walks the roots and reports how each discovered file would be
// classified, without searching anything. The same filters, safety gates
// and walk rules apply as in a scan with the same options, so the listing
// predicts a scan's file set exactly.
func List(ctx context.Context, roots []string, optFns ...Option) (*ListResult, error) {
	o := applyOptions(optFns)
	classifier, _, err := newClassifier(o)
	if err != nil {
		return nil, err
	}
	return listWith(ctx, classifier, o, roots)
}

// List enumerates and classifies files using the Scanner's configuration.
// The pattern plays no role in a listing.
func (s *Scanner) List(ctx context.Context, roots ...string) (*ListResult, error) {
	return listWith(ctx, s.classifier, s.opts, roots)
}

func listWith(ctx context.Context, classifier *classify.Classifier, o options, roots []string) (*ListResult, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, root)
		}
	}

	entries, err := scan.List(ctx, roots, scan.WalkOptions{
		FollowSymlinks: o.followSymlinks,
		IgnoreDirs:     o.ignoreDirs,
		MaxDepth:       o.maxDepth,
	}, classifier)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Entries: make([]model.ListEntry, 0, len(entries))}
	for _, le := range entries {
		searchable := le.Class.Searchable()
		res.Entries = append(res.Entries, model.ListEntry{
			Path:       le.Entry.Path,
			Size:       le.Entry.Size,
			Ext:        le.Entry.Ext,
			ModTime:    le.Entry.ModTime,
			Searchable: searchable,
			Class:      le.Class.String(),
			Mode:       le.Mode.String(),
			Reason:     le.Reason,
		})
		res.TotalFiles++
		res.TotalSize += le.Entry.Size
		if searchable {
			res.SearchableFiles++
			res.SearchableSize += le.Entry.Size
		}
	}
	return res, nil
}
