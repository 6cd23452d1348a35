package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/hupe1980/grepgo/internal/classify"
	"github.com/hupe1980/grepgo/model"
)

// defaultIgnoreDirs are directory names pruned during the walk. They hold
// build output and dependency trees that are never useful search targets.
var defaultIgnoreDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".cache":       {},
	".next":        {},
	"node_modules": {},
	"target":       {},
	"build":        {},
	"dist":         {},
	"__pycache__":  {},
}

// WalkOptions configures the directory walker.
type WalkOptions struct {
	// FollowSymlinks resolves symbolic links to directories. Cycles are
	// detected with a visited set of file identities, so a link loop is
	// walked at most once.
	FollowSymlinks bool

	// IgnoreDirs extends the built-in pruned directory names.
	IgnoreDirs []string

	// MaxDepth bounds recursion depth; 0 means unlimited. The root is at
	// depth 0.
	MaxDepth int
}

// walker performs a depth-first traversal, visiting each file exactly
// once. Entries within a directory are visited in lexicographic order so
// single-worker runs are deterministic.
type walker struct {
	opts    WalkOptions
	ignore  map[string]struct{}
	visited map[fileID]struct{}
	emit    func(model.FileEntry) error
}

func newWalker(opts WalkOptions, emit func(model.FileEntry) error) *walker {
	ignore := make(map[string]struct{}, len(defaultIgnoreDirs)+len(opts.IgnoreDirs))
	for name := range defaultIgnoreDirs {
		ignore[name] = struct{}{}
	}
	for _, name := range opts.IgnoreDirs {
		ignore[name] = struct{}{}
	}
	return &walker{
		opts:    opts,
		ignore:  ignore,
		visited: make(map[fileID]struct{}),
		emit:    emit,
	}
}

// walk descends from root. The root must exist; everything below it is
// best-effort (unreadable subdirectories are skipped silently).
func (w *walker) walk(ctx context.Context, root string) error {
	fi, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return w.visitFile(root, fi)
	}
	return w.walkDir(ctx, root, fi, 0)
}

func (w *walker) walkDir(ctx context.Context, dir string, fi os.FileInfo, depth int) error {
	if id, ok := identityOf(fi); ok {
		if _, seen := w.visited[id]; seen {
			return nil
		}
		w.visited[id] = struct{}{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory below the root: prune, keep walking.
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if _, skip := w.ignore[name]; skip {
				continue
			}
			if w.opts.MaxDepth > 0 && depth+1 > w.opts.MaxDepth {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if err := w.walkDir(ctx, path, info, depth+1); err != nil {
				return err
			}
			continue
		}

		if entry.Type()&os.ModeSymlink != 0 {
			if !w.opts.FollowSymlinks {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if _, skip := w.ignore[name]; skip {
					continue
				}
				if err := w.walkDir(ctx, path, info, depth+1); err != nil {
					return err
				}
				continue
			}
			if err := w.visitResolved(path, info); err != nil {
				return err
			}
			continue
		}

		if !entry.Type().IsRegular() {
			// Sockets, devices, FIFOs: never search targets.
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if err := w.visitFile(path, info); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visitResolved(path string, fi os.FileInfo) error {
	if !fi.Mode().IsRegular() {
		return nil
	}
	return w.visitFile(path, fi)
}

func (w *walker) visitFile(path string, fi os.FileInfo) error {
	if id, ok := identityOf(fi); ok {
		if _, seen := w.visited[id]; seen {
			return nil
		}
		w.visited[id] = struct{}{}
	}
	return w.emit(model.FileEntry{
		Path:    path,
		Size:    fi.Size(),
		Ext:     classify.ExtOf(path),
		ModTime: fi.ModTime(),
	})
}
