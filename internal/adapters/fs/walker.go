// Package fs provides file system adapters for walking, excluding and hashing files.
package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Traverser = (*Walker)(nil)

// Walker enumerates scan candidates below a root directory.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk validates root, compiles the exclusion rules and returns a lazy traversal.
// The returned tree skeleton grows as the candidate sequence is consumed, and the
// sequence can only be consumed once.
func (w *Walker) Walk(ctx context.Context, root string, opts domain.WalkOptions) (*domain.Walk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve scan root"), "root", root)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrRootNotFound, "failed to open scan root"), "root", abs)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to stat scan root"), "root", abs)
	}
	if !info.IsDir() {
		return nil, zerr.With(zerr.Wrap(domain.ErrRootNotDirectory, "failed to open scan root"), "root", abs)
	}

	exclude, err := NewEvaluator(opts.Exclusions, abs)
	if err != nil {
		return nil, err
	}

	rootNode := &domain.DirectoryNode{
		Path: domain.Path{Abs: abs, Rel: domain.RootRel},
		Name: filepath.Base(abs),
	}
	t := &traversal{
		ctx:     ctx,
		opts:    opts,
		exclude: exclude,
		stats:   &domain.WalkStats{},
		visited: make(map[string]struct{}),
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		t.visited[resolved] = struct{}{}
	}

	return &domain.Walk{
		Root:       rootNode,
		Candidates: t.candidates(rootNode),
		Stats:      t.stats,
	}, nil
}

type traversal struct {
	ctx     context.Context
	opts    domain.WalkOptions
	exclude ports.ExclusionEvaluator
	stats   *domain.WalkStats
	visited map[string]struct{}
	started bool
}

func (t *traversal) candidates(root *domain.DirectoryNode) func(func(domain.Candidate) bool) {
	return func(yield func(domain.Candidate) bool) {
		if t.started {
			return
		}
		t.started = true

		pending := []*domain.DirectoryNode{root}
		for len(pending) > 0 {
			if t.ctx.Err() != nil {
				return
			}

			var dir *domain.DirectoryNode
			if t.opts.Order == domain.OrderBFS {
				dir, pending = pending[0], pending[1:]
			} else {
				dir, pending = pending[len(pending)-1], pending[:len(pending)-1]
			}

			subdirs, ok := t.list(dir, yield)
			if !ok {
				return
			}

			if t.opts.Order == domain.OrderBFS {
				pending = append(pending, subdirs...)
				continue
			}
			// Reversed so the first listed subdirectory is popped first.
			for i := len(subdirs) - 1; i >= 0; i-- {
				pending = append(pending, subdirs[i])
			}
		}
	}
}

// list reads one directory, attaches its children to dir and yields its files.
// It returns the subdirectories still to visit and false once the consumer stops.
func (t *traversal) list(dir *domain.DirectoryNode, yield func(domain.Candidate) bool) ([]*domain.DirectoryNode, bool) {
	entries, err := os.ReadDir(dir.Path.Abs)
	if err != nil {
		t.stats.UnreadableDirs++
		t.stats.Errors = append(t.stats.Errors, domain.FileError{Path: dir.Path.Rel, Message: err.Error()})
		if len(entries) == 0 {
			return nil, true
		}
	}

	var subdirs []*domain.DirectoryNode
	for _, e := range entries {
		p := dir.Path.Join(e.Name())
		mode := e.Type()

		var info iofs.FileInfo
		isDir := e.IsDir()
		if mode&iofs.ModeSymlink != 0 {
			if !t.opts.FollowSymlinks {
				t.stats.SkippedSymlinks++
				continue
			}
			target, err := os.Stat(p.Abs)
			if err != nil {
				if !t.emitResolved(dir, p, mode, domain.StatusError, err.Error(), yield) {
					return nil, false
				}
				continue
			}
			info = target
			isDir = target.IsDir()
		}

		if isDir {
			if t.exclude.ShouldExclude(p, true) {
				t.stats.ExcludedDirs++
				continue
			}
			if t.opts.FollowSymlinks && t.seen(p.Abs) {
				t.stats.Cycles++
				msg := domain.ErrSymlinkCycle.Error() + ": " + p.Rel
				if !t.emitResolved(dir, p, mode, domain.StatusSkipped, msg, yield) {
					return nil, false
				}
				continue
			}
			child := &domain.DirectoryNode{Path: p, Name: e.Name()}
			dir.Children = append(dir.Children, child)
			t.stats.Directories++
			subdirs = append(subdirs, child)
			continue
		}

		if t.exclude.ShouldExclude(p, false) {
			t.stats.ExcludedFiles++
			continue
		}

		if info == nil {
			info, err = e.Info()
			if err != nil {
				if !t.emitResolved(dir, p, mode, domain.StatusError, err.Error(), yield) {
					return nil, false
				}
				continue
			}
		}
		if !info.Mode().IsRegular() {
			t.stats.SkippedSpecial++
			continue
		}

		entry := &domain.FileEntry{Path: p, Name: e.Name()}
		dir.Children = append(dir.Children, entry)
		if !yield(domain.Candidate{Path: p, Info: info, Entry: entry}) {
			return nil, false
		}
	}

	return subdirs, true
}

// seen records the real path of dir and reports whether it was already visited.
func (t *traversal) seen(dir string) bool {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return false
	}
	if _, ok := t.visited[resolved]; ok {
		return true
	}
	t.visited[resolved] = struct{}{}
	return false
}

// emitResolved attaches a final entry that needs no analysis and yields it.
func (t *traversal) emitResolved(
	dir *domain.DirectoryNode,
	p domain.Path,
	mode iofs.FileMode,
	status domain.ContentStatus,
	msg string,
	yield func(domain.Candidate) bool,
) bool {
	entry := &domain.FileEntry{
		Path: p,
		Name: p.Name(),
		Mode: mode,
		Analysis: domain.Analysis{
			Status: status,
			Error:  msg,
		},
	}
	dir.Children = append(dir.Children, entry)
	return yield(domain.Candidate{Path: p, Entry: entry, Resolved: true})
}
