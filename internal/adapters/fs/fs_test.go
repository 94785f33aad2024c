package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canopy/internal/adapters/fs"
	"go.trai.ch/canopy/internal/core/domain"
)

// writeTree creates files (and their parent directories) below root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func collect(t *testing.T, walk *domain.Walk) []string {
	t.Helper()
	var rels []string
	for c := range walk.Candidates {
		rels = append(rels, c.Path.Rel)
	}
	return rels
}

func TestWalker_Walk_Exclusions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"README.md":                 "# readme",
		"secret.txt":                "hunter2",
		"src/main.go":               "package main",
		"src/main_test.go":          "package main",
		"node_modules/lib/index.js": "module.exports = {}",
		".git/config":               "[core]",
	})

	walker := fs.NewWalker()
	walk, err := walker.Walk(context.Background(), root, domain.WalkOptions{
		Exclusions: domain.ExclusionRuleSet{
			FolderNames: []string{"node_modules", ".git"},
			FileNames:   []string{"secret.txt"},
			Patterns:    []string{"*_test.go"},
		},
	})
	require.NoError(t, err)

	rels := collect(t, walk)
	assert.ElementsMatch(t, []string{"README.md", "src/main.go"}, rels)
	assert.Equal(t, 2, walk.Stats.ExcludedDirs)
	assert.Equal(t, 2, walk.Stats.ExcludedFiles)
	assert.Equal(t, 1, walk.Stats.Directories)
}

func TestWalker_Walk_TreeOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "a",
		"b/c.txt":   "c",
		"b/d/e.txt": "e",
		"f.txt":     "f",
	})

	walk, err := fs.NewWalker().Walk(context.Background(), root, domain.WalkOptions{})
	require.NoError(t, err)
	_ = collect(t, walk)

	require.Len(t, walk.Root.Children, 3)
	assert.Equal(t, "a.txt", walk.Root.Children[0].NodePath().Rel)
	assert.Equal(t, "b", walk.Root.Children[1].NodePath().Rel)
	assert.Equal(t, "f.txt", walk.Root.Children[2].NodePath().Rel)

	b, ok := walk.Root.Children[1].(*domain.DirectoryNode)
	require.True(t, ok)
	require.Len(t, b.Children, 2)
	assert.Equal(t, "b/c.txt", b.Children[0].NodePath().Rel)
	assert.Equal(t, "b/d", b.Children[1].NodePath().Rel)

	var files []string
	for e := range walk.Root.Files() {
		files = append(files, e.Path.Rel)
	}
	assert.Equal(t, []string{"a.txt", "b/c.txt", "b/d/e.txt", "f.txt"}, files)
}

func TestWalker_Walk_Order(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/deep/x.txt": "x",
		"a/y.txt":      "y",
		"b/z.txt":      "z",
		"top.txt":      "t",
	})

	tests := []struct {
		name     string
		order    domain.TraversalOrder
		expected []string
	}{
		{"dfs", domain.OrderDFS, []string{"top.txt", "a/y.txt", "a/deep/x.txt", "b/z.txt"}},
		{"bfs", domain.OrderBFS, []string{"top.txt", "a/y.txt", "b/z.txt", "a/deep/x.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walk, err := fs.NewWalker().Walk(context.Background(), root, domain.WalkOptions{Order: tt.order})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, collect(t, walk))
		})
	}
}

func TestWalker_Walk_SymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"sub/file.txt": "content"})
	require.NoError(t, os.Symlink("..", filepath.Join(root, "sub", "loop")))

	t.Run("followed", func(t *testing.T) {
		walk, err := fs.NewWalker().Walk(context.Background(), root, domain.WalkOptions{FollowSymlinks: true})
		require.NoError(t, err)

		var skipped []domain.Candidate
		var files []string
		for c := range walk.Candidates {
			if c.Resolved {
				skipped = append(skipped, c)
				continue
			}
			files = append(files, c.Path.Rel)
		}

		assert.Equal(t, []string{"sub/file.txt"}, files)
		require.Len(t, skipped, 1)
		assert.Equal(t, "sub/loop", skipped[0].Path.Rel)
		assert.Equal(t, domain.StatusSkipped, skipped[0].Entry.Status)
		assert.Contains(t, skipped[0].Entry.Error, "symlink cycle")
		assert.Equal(t, 1, walk.Stats.Cycles)
	})

	t.Run("not followed", func(t *testing.T) {
		walk, err := fs.NewWalker().Walk(context.Background(), root, domain.WalkOptions{})
		require.NoError(t, err)

		assert.Equal(t, []string{"sub/file.txt"}, collect(t, walk))
		assert.Equal(t, 1, walk.Stats.SkippedSymlinks)
		assert.Equal(t, 0, walk.Stats.Cycles)
	})
}

func TestWalker_Walk_FollowedFileSymlink(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"target.txt": "hello"})
	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink("missing.txt", filepath.Join(root, "dangling.txt")))

	walk, err := fs.NewWalker().Walk(context.Background(), root, domain.WalkOptions{FollowSymlinks: true})
	require.NoError(t, err)

	byRel := make(map[string]domain.Candidate)
	for c := range walk.Candidates {
		byRel[c.Path.Rel] = c
	}

	require.Contains(t, byRel, "link.txt")
	assert.False(t, byRel["link.txt"].Resolved)
	assert.Equal(t, int64(5), byRel["link.txt"].Info.Size())

	require.Contains(t, byRel, "dangling.txt")
	assert.True(t, byRel["dangling.txt"].Resolved)
	assert.Equal(t, domain.StatusError, byRel["dangling.txt"].Entry.Status)
	assert.NotEmpty(t, byRel["dangling.txt"].Entry.Error)
}

func TestWalker_Walk_RootErrors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := fs.NewWalker().Walk(context.Background(), filepath.Join(root, "missing"), domain.WalkOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRootNotFound)

	_, err = fs.NewWalker().Walk(context.Background(), file, domain.WalkOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRootNotDirectory)

	_, err = fs.NewWalker().Walk(context.Background(), root, domain.WalkOptions{
		Exclusions: domain.ExclusionRuleSet{Patterns: []string{"regex:(unclosed"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidPattern)
}

func TestWalker_Walk_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})

	walk, err := fs.NewWalker().Walk(context.Background(), root, domain.WalkOptions{})
	require.NoError(t, err)

	count := 0
	for range walk.Candidates {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWalker_Walk_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walk, err := fs.NewWalker().Walk(ctx, root, domain.WalkOptions{})
	require.NoError(t, err)
	assert.Empty(t, collect(t, walk))
}
