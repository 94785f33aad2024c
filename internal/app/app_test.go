package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canopy/internal/adapters/analyzer"
	"go.trai.ch/canopy/internal/adapters/cache"
	"go.trai.ch/canopy/internal/adapters/fs"
	"go.trai.ch/canopy/internal/adapters/logger"
	"go.trai.ch/canopy/internal/adapters/telemetry"
	"go.trai.ch/canopy/internal/adapters/telemetry/progrock"
	"go.trai.ch/canopy/internal/app"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/canopy/internal/core/ports/mocks"
	"go.trai.ch/canopy/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	loader *mocks.MockConfigLoader
	root   string
	cache  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "src", "main.go"), "package main\n")

	return &fixture{
		loader: mocks.NewMockConfigLoader(ctrl),
		root:   root,
		cache:  filepath.Join(t.TempDir(), "cache.db"),
	}
}

// expectLoad makes the loader return defaults with the cache outside the root.
func (f *fixture) expectLoad(times int, mutate ...func(*domain.Settings)) {
	settings := domain.DefaultSettings()
	settings.Threads = 2
	settings.Cache.Path = f.cache
	for _, m := range mutate {
		m(&settings)
	}
	f.loader.EXPECT().Load(f.root, "").Return(settings, nil).Times(times)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func ptr[T any](v T) *T { return &v }

// newApp builds an App on real adapters around the fixture's loader.
func newApp(f *fixture, log ports.Logger) *app.App {
	progress := progrock.New()
	p := pipeline.New(
		fs.NewWalker(),
		analyzer.New(fs.NewHasher()),
		cache.NewOpener(),
		log,
		telemetry.NewNoOpTracer(),
		progress,
	)
	return app.New(f.loader, p, cache.NewOpener(), log, progress)
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func TestApp_Scan_WritesReport(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(t.TempDir(), "out", "tree.json")
	f.expectLoad(1)
	a := newApp(f, quietLogger(t))

	res, err := a.Scan(context.Background(), f.root, app.ScanOptions{
		Overrides: app.Overrides{OutputPath: &output, Summary: ptr(true)},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 2, res.Summary.IncludedFiles)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var doc struct {
		Structure struct {
			Children []map[string]any `json:"children"`
		} `json:"structure"`
		Summary struct {
			IncludedFiles int `json:"included_files"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Structure.Children, 2)
	assert.Equal(t, 2, doc.Summary.IncludedFiles)
	assert.FileExists(t, f.cache)
}

func TestApp_Scan_Stdout(t *testing.T) {
	f := newFixture(t)
	f.expectLoad(1)
	a := newApp(f, quietLogger(t))

	var stdout bytes.Buffer
	_, err := a.Scan(context.Background(), f.root, app.ScanOptions{
		Overrides: app.Overrides{
			Format:     ptr(domain.FormatNDJSON),
			OutputPath: ptr("-"),
		},
		Stdout: &stdout,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestApp_Scan_OutputInsideRootIsExcluded(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.root, "repository_structure.json")
	f.expectLoad(2)
	a := newApp(f, quietLogger(t))

	opts := app.ScanOptions{Overrides: app.Overrides{OutputPath: &output}}
	_, err := a.Scan(context.Background(), f.root, opts)
	require.NoError(t, err)
	require.FileExists(t, output)

	res, err := a.Scan(context.Background(), f.root, opts)
	require.NoError(t, err)

	var rels []string
	for e := range res.Root.Files() {
		rels = append(rels, e.Path.Rel)
	}
	assert.Equal(t, []string{"a.txt", "src/main.go"}, rels)
}

func TestApp_Scan_Errors(t *testing.T) {
	t.Run("config failure", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(f.root, "missing.yaml").Return(domain.Settings{}, domain.ErrConfigNotFound)
		a := newApp(f, quietLogger(t))

		_, err := a.Scan(context.Background(), f.root, app.ScanOptions{ConfigPath: "missing.yaml"})
		require.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	t.Run("missing root", func(t *testing.T) {
		f := newFixture(t)
		missing := filepath.Join(f.root, "nope")
		output := filepath.Join(t.TempDir(), "out.json")
		f.loader.EXPECT().Load(missing, "").Return(domain.DefaultSettings(), nil)
		a := newApp(f, quietLogger(t))

		_, err := a.Scan(context.Background(), missing, app.ScanOptions{
			Overrides: app.Overrides{OutputPath: &output},
		})
		require.ErrorIs(t, err, domain.ErrScanFailed)
		require.ErrorIs(t, err, domain.ErrRootNotFound)
		assert.NoFileExists(t, output)
	})

	t.Run("unusable output", func(t *testing.T) {
		f := newFixture(t)
		blocker := filepath.Join(t.TempDir(), "file")
		writeFile(t, blocker, "")
		output := filepath.Join(blocker, "out.json")
		f.expectLoad(1)
		a := newApp(f, quietLogger(t))

		_, err := a.Scan(context.Background(), f.root, app.ScanOptions{
			Overrides: app.Overrides{OutputPath: &output},
		})
		require.ErrorIs(t, err, domain.ErrScanFailed)
		require.ErrorIs(t, err, domain.ErrOutputCreateFailed)
		assert.NoFileExists(t, f.cache, "nothing is scanned when the output cannot be created")
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t)
		output := filepath.Join(t.TempDir(), "out.json")
		f.expectLoad(1)
		a := newApp(f, quietLogger(t))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := a.Scan(ctx, f.root, app.ScanOptions{
			Overrides: app.Overrides{OutputPath: &output},
		})
		require.ErrorIs(t, err, domain.ErrScanFailed)
		assert.NoFileExists(t, output)
	})
}

func TestApp_PruneCache(t *testing.T) {
	f := newFixture(t)
	f.expectLoad(2, func(s *domain.Settings) {
		s.Cache.Prune = false
		s.Output.Path = "-"
	})
	a := newApp(f, quietLogger(t))

	_, err := a.Scan(context.Background(), f.root, app.ScanOptions{Stdout: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.root, "a.txt")))

	n, err := a.PruneCache(context.Background(), f.root, app.CacheOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApp_CleanCache(t *testing.T) {
	f := newFixture(t)
	f.expectLoad(3, func(s *domain.Settings) {
		s.Output.Path = "-"
	})
	a := newApp(f, quietLogger(t))

	_, err := a.Scan(context.Background(), f.root, app.ScanOptions{Stdout: &bytes.Buffer{}})
	require.NoError(t, err)
	require.FileExists(t, f.cache)

	n, err := a.CleanCache(context.Background(), f.root, app.CacheOptions{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
	assert.NoFileExists(t, f.cache)

	n, err = a.CleanCache(context.Background(), f.root, app.CacheOptions{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApp_Setup(t *testing.T) {
	f := newFixture(t)

	lg := logger.New()
	lg.SetOutput(&bytes.Buffer{})
	a := newApp(f, lg)

	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "canopy.log")
	traceFile := filepath.Join(dir, "trace.jsonl")

	cleanup, err := a.Setup(app.LogOptions{Format: "json", Verbose: true, File: logFile, TraceFile: traceFile})
	require.NoError(t, err)

	lg.Debug("debug line")
	require.NoError(t, cleanup(context.Background()))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
	assert.FileExists(t, traceFile)
}

func TestApp_Setup_UnknownFormat(t *testing.T) {
	f := newFixture(t)
	a := newApp(f, quietLogger(t))

	_, err := a.Setup(app.LogOptions{Format: "xml"})
	require.ErrorIs(t, err, domain.ErrUnknownLogFormat)
}

func TestOverrides_Apply(t *testing.T) {
	s := domain.DefaultSettings()
	o := app.Overrides{
		HashAlgorithm:   ptr(domain.HashNone),
		Threads:         ptr(7),
		ExcludeFolders:  []string{"vendor", "node_modules"},
		ExcludePatterns: []string{"*.log"},
		CacheEnabled:    ptr(false),
		Format:          ptr(domain.FormatCSV),
	}
	o.Apply(&s)

	assert.Equal(t, domain.HashNone, s.HashAlgorithm)
	assert.Equal(t, 7, s.Threads)
	assert.False(t, s.Cache.Enabled)
	assert.Equal(t, domain.FormatCSV, s.Output.Format)
	assert.Equal(t, append(domain.DefaultExcludedFolders(), "vendor"), s.Exclusions.FolderNames)
	assert.Equal(t, append(domain.DefaultExcludedPatterns(), "*.log"), s.Exclusions.Patterns)
	assert.Equal(t, domain.DefaultExcludedFiles(), s.Exclusions.FileNames)
	assert.Equal(t, domain.DefaultMaxSize, s.MaxSize)
}
