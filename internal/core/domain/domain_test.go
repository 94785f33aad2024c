package domain_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canopy/internal/core/domain"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.Format
	}{
		{"json", domain.FormatJSON},
		{"JSON", domain.FormatJSON},
		{" ndjson ", domain.FormatNDJSON},
		{"yml", domain.FormatYAML},
		{"yaml", domain.FormatYAML},
		{"xml", domain.FormatXML},
		{"csv", domain.FormatCSV},
		{"dot", domain.FormatDOT},
		{"msgpack", domain.FormatMsgPack},
		{"sexp", domain.FormatSexp},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := domain.ParseFormat("toml")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}

func TestFormat_Streaming(t *testing.T) {
	assert.True(t, domain.FormatNDJSON.Streaming())
	assert.True(t, domain.FormatCSV.Streaming())
	assert.False(t, domain.FormatJSON.Streaming())
	assert.False(t, domain.FormatDOT.Streaming())
	assert.Equal(t, "repository_structure.yaml", domain.FormatYAML.DefaultOutputPath())
}

func TestParseHashAlgorithm(t *testing.T) {
	algo, err := domain.ParseHashAlgorithm("SHA256")
	require.NoError(t, err)
	assert.Equal(t, domain.HashSHA256, algo)

	algo, err = domain.ParseHashAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, domain.HashNone, algo)
	assert.False(t, algo.Enabled())

	_, err = domain.ParseHashAlgorithm("crc32")
	assert.ErrorIs(t, err, domain.ErrUnknownHashAlgorithm)
}

func TestParseTraversalOrder(t *testing.T) {
	order, err := domain.ParseTraversalOrder("")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDFS, order)

	order, err = domain.ParseTraversalOrder("BFS")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderBFS, order)

	_, err = domain.ParseTraversalOrder("random")
	assert.ErrorIs(t, err, domain.ErrUnknownTraversalOrder)
}

func TestCacheRecord_Reusable(t *testing.T) {
	mtime := time.Unix(1700000000, 123456789)
	rec := &domain.CacheRecord{Size: 10, ModTime: mtime, HashAlgorithm: domain.HashMD5}

	assert.True(t, rec.Valid(10, mtime))
	assert.True(t, rec.Reusable(10, mtime, domain.HashMD5))
	assert.False(t, rec.Valid(11, mtime), "size change")
	assert.False(t, rec.Valid(10, mtime.Add(time.Nanosecond)), "mtime change")
	assert.False(t, rec.Reusable(10, mtime, domain.HashSHA1), "algorithm change")

	var missing *domain.CacheRecord
	assert.False(t, missing.Valid(10, mtime))
}

func TestPath_Join(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	p := domain.NewPath(root, root)
	assert.Equal(t, domain.RootRel, p.Rel)

	child := p.Join("src").Join("main.go")
	assert.Equal(t, "src/main.go", child.Rel)
	assert.Equal(t, filepath.Join(root, "src", "main.go"), child.Abs)
	assert.Equal(t, "main.go", child.Name())
}

func TestNewRunContext_Defaults(t *testing.T) {
	root := t.TempDir()
	rc := domain.NewRunContext(root, domain.Settings{})

	assert.Equal(t, domain.DefaultThreads(), rc.Workers)
	assert.Equal(t, rc.Workers*4, rc.QueueSize)
	assert.Equal(t, domain.DefaultMaxSize, rc.MaxContentSize)
	assert.Equal(t, domain.DefaultEncoding, rc.DefaultEncoding)
	assert.Equal(t, domain.HashNone, rc.HashAlgorithm)
	assert.Equal(t, domain.OrderDFS, rc.Order)
	assert.Equal(t, filepath.Join(root, domain.DefaultCacheFileName), rc.CacheLocation)
	assert.Equal(t, domain.DefaultCachePoolSize, rc.CachePoolSize)
}

func TestRunContext_IsImage(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Exclusions.ImageExtensions = append(settings.Exclusions.ImageExtensions, "ICO", "heic")
	rc := domain.NewRunContext(t.TempDir(), settings)

	assert.True(t, rc.IsImage("logo.PNG"))
	assert.True(t, rc.IsImage("favicon.ico"))
	assert.True(t, rc.IsImage("photo.heic"))
	assert.False(t, rc.IsImage("main.go"))
	assert.False(t, rc.IsImage("Makefile"))
}

func TestDirectoryNode_Files(t *testing.T) {
	a := &domain.FileEntry{Name: "a.txt"}
	b := &domain.FileEntry{Name: "b.txt"}
	c := &domain.FileEntry{Name: "c.txt"}
	root := &domain.DirectoryNode{
		Children: []domain.Node{
			a,
			&domain.DirectoryNode{Children: []domain.Node{b}},
			c,
		},
	}

	var names []string
	for e := range root.Files() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}
