package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canopy/cmd/canopy/commands"
	"go.trai.ch/canopy/internal/app"
	"go.trai.ch/canopy/internal/build"
	"go.trai.ch/canopy/internal/core/domain"
)

type mockApp struct {
	setupFunc func(opts app.LogOptions) (func(context.Context) error, error)
	scanFunc  func(ctx context.Context, root string, opts app.ScanOptions) (*domain.ScanResult, error)
	pruneFunc func(ctx context.Context, root string, opts app.CacheOptions) (int, error)
	cleanFunc func(ctx context.Context, root string, opts app.CacheOptions) (int, error)
}

func (m *mockApp) Setup(opts app.LogOptions) (func(context.Context) error, error) {
	if m.setupFunc != nil {
		return m.setupFunc(opts)
	}
	return func(context.Context) error { return nil }, nil
}

func (m *mockApp) Scan(ctx context.Context, root string, opts app.ScanOptions) (*domain.ScanResult, error) {
	if m.scanFunc != nil {
		return m.scanFunc(ctx, root, opts)
	}
	return &domain.ScanResult{}, nil
}

func (m *mockApp) PruneCache(ctx context.Context, root string, opts app.CacheOptions) (int, error) {
	if m.pruneFunc != nil {
		return m.pruneFunc(ctx, root, opts)
	}
	return 0, nil
}

func (m *mockApp) CleanCache(ctx context.Context, root string, opts app.CacheOptions) (int, error) {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, root, opts)
	}
	return 0, nil
}

func execute(t *testing.T, mock *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Scan(t *testing.T) {
	t.Run("defaults leave settings untouched", func(t *testing.T) {
		var capturedRoot string
		var capturedOpts app.ScanOptions
		mock := &mockApp{
			scanFunc: func(_ context.Context, root string, opts app.ScanOptions) (*domain.ScanResult, error) {
				capturedRoot = root
				capturedOpts = opts
				return &domain.ScanResult{}, nil
			},
		}

		_, err := execute(t, mock, "scan")
		require.NoError(t, err)
		assert.Equal(t, ".", capturedRoot)
		assert.Empty(t, capturedOpts.ConfigPath)
		assert.Equal(t, app.Overrides{}, capturedOpts.Overrides)
		assert.NotNil(t, capturedOpts.Stdout)
	})

	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedRoot string
		var capturedOpts app.ScanOptions
		mock := &mockApp{
			scanFunc: func(_ context.Context, root string, opts app.ScanOptions) (*domain.ScanResult, error) {
				capturedRoot = root
				capturedOpts = opts
				return &domain.ScanResult{}, nil
			},
		}

		_, err := execute(t, mock,
			"scan", "src",
			"--config", "custom.yaml",
			"--hash-algorithm", "SHA256",
			"--max-size", "1KiB",
			"--include-binary",
			"--follow-symlinks",
			"--threads", "3",
			"--encoding", "latin-1",
			"--exclude-folders", "vendor,third_party",
			"--exclude-files", "go.sum",
			"--exclude-patterns", "*.log",
			"--exclude-patterns", "regex:^gen_",
			"--image-extensions", "heic",
			"--gitignore",
			"--order", "bfs",
			"--cache-path", "/tmp/scan.db",
			"--cache-pool-size", "5",
			"--no-prune",
			"-f", "csv",
			"-o", "-",
			"--include-summary",
		)
		require.NoError(t, err)
		assert.Equal(t, "src", capturedRoot)
		assert.Equal(t, "custom.yaml", capturedOpts.ConfigPath)

		o := capturedOpts.Overrides
		require.NotNil(t, o.HashAlgorithm)
		assert.Equal(t, domain.HashSHA256, *o.HashAlgorithm)
		require.NotNil(t, o.MaxSize)
		assert.Equal(t, int64(1024), *o.MaxSize)
		require.NotNil(t, o.IncludeBinary)
		assert.True(t, *o.IncludeBinary)
		require.NotNil(t, o.FollowSymlinks)
		assert.True(t, *o.FollowSymlinks)
		require.NotNil(t, o.Threads)
		assert.Equal(t, 3, *o.Threads)
		require.NotNil(t, o.Encoding)
		assert.Equal(t, "latin-1", *o.Encoding)
		assert.Equal(t, []string{"vendor", "third_party"}, o.ExcludeFolders)
		assert.Equal(t, []string{"go.sum"}, o.ExcludeFiles)
		assert.Equal(t, []string{"*.log", "regex:^gen_"}, o.ExcludePatterns)
		assert.Equal(t, []string{"heic"}, o.ImageExtensions)
		require.NotNil(t, o.RespectGitignore)
		assert.True(t, *o.RespectGitignore)
		require.NotNil(t, o.Order)
		assert.Equal(t, domain.OrderBFS, *o.Order)
		require.NotNil(t, o.CachePath)
		assert.Equal(t, "/tmp/scan.db", *o.CachePath)
		require.NotNil(t, o.CachePoolSize)
		assert.Equal(t, 5, *o.CachePoolSize)
		require.NotNil(t, o.Prune)
		assert.False(t, *o.Prune)
		assert.Nil(t, o.CacheEnabled)
		require.NotNil(t, o.Format)
		assert.Equal(t, domain.FormatCSV, *o.Format)
		require.NotNil(t, o.OutputPath)
		assert.Equal(t, "-", *o.OutputPath)
		require.NotNil(t, o.Summary)
		assert.True(t, *o.Summary)
	})

	t.Run("no-hash and no-cache", func(t *testing.T) {
		var captured app.Overrides
		mock := &mockApp{
			scanFunc: func(_ context.Context, _ string, opts app.ScanOptions) (*domain.ScanResult, error) {
				captured = opts.Overrides
				return &domain.ScanResult{}, nil
			},
		}

		_, err := execute(t, mock, "scan", "--hash-algorithm", "sha1", "--no-hash", "--no-cache")
		require.NoError(t, err)
		require.NotNil(t, captured.HashAlgorithm)
		assert.Equal(t, domain.HashNone, *captured.HashAlgorithm)
		require.NotNil(t, captured.CacheEnabled)
		assert.False(t, *captured.CacheEnabled)
	})

	t.Run("rejects invalid values before scanning", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"hash algorithm", []string{"--hash-algorithm", "crc32"}, domain.ErrUnknownHashAlgorithm},
			{"order", []string{"--order", "random"}, domain.ErrUnknownTraversalOrder},
			{"format", []string{"--format", "toml"}, domain.ErrUnknownFormat},
			{"max size", []string{"--max-size", "lots"}, domain.ErrInvalidConfig},
			{"threads", []string{"--threads", "0"}, domain.ErrInvalidConfig},
			{"pool size", []string{"--cache-pool-size", "0"}, domain.ErrInvalidConfig},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mock := &mockApp{
					scanFunc: func(context.Context, string, app.ScanOptions) (*domain.ScanResult, error) {
						panic("should not be called")
					},
				}
				_, err := execute(t, mock, append([]string{"scan"}, tt.args...)...)
				require.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("rejects extra arguments", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "scan", "a", "b")
		require.Error(t, err)
	})

	t.Run("returns error on scan failure", func(t *testing.T) {
		mock := &mockApp{
			scanFunc: func(context.Context, string, app.ScanOptions) (*domain.ScanResult, error) {
				return nil, errors.New("simulated error")
			},
		}

		_, err := execute(t, mock, "scan", "root")
		require.ErrorContains(t, err, "simulated error")
	})
}

func TestCommands_Setup(t *testing.T) {
	t.Run("passes logging flags", func(t *testing.T) {
		var captured app.LogOptions
		cleaned := false
		mock := &mockApp{
			setupFunc: func(opts app.LogOptions) (func(context.Context) error, error) {
				captured = opts
				return func(context.Context) error {
					cleaned = true
					return nil
				}, nil
			},
		}

		_, err := execute(t, mock,
			"scan", "-v",
			"--log-format", "json",
			"--log-file", "canopy.log",
			"--trace-file", "trace.json",
		)
		require.NoError(t, err)
		assert.Equal(t, app.LogOptions{
			Format:    "json",
			Verbose:   true,
			File:      "canopy.log",
			TraceFile: "trace.json",
		}, captured)
		assert.True(t, cleaned)
	})

	t.Run("setup failure skips the command", func(t *testing.T) {
		mock := &mockApp{
			setupFunc: func(app.LogOptions) (func(context.Context) error, error) {
				return nil, domain.ErrUnknownLogFormat
			},
			scanFunc: func(context.Context, string, app.ScanOptions) (*domain.ScanResult, error) {
				panic("should not be called")
			},
		}

		_, err := execute(t, mock, "scan", "--log-format", "xml")
		require.ErrorIs(t, err, domain.ErrUnknownLogFormat)
	})

	t.Run("cleanup error is reported", func(t *testing.T) {
		mock := &mockApp{
			setupFunc: func(app.LogOptions) (func(context.Context) error, error) {
				return func(context.Context) error { return errors.New("flush failed") }, nil
			},
		}

		_, err := execute(t, mock, "scan")
		require.ErrorContains(t, err, "flush failed")
	})
}

func TestCommands_Cache(t *testing.T) {
	t.Run("prune", func(t *testing.T) {
		var capturedRoot string
		var capturedOpts app.CacheOptions
		mock := &mockApp{
			pruneFunc: func(_ context.Context, root string, opts app.CacheOptions) (int, error) {
				capturedRoot = root
				capturedOpts = opts
				return 4, nil
			},
		}

		out, err := execute(t, mock, "cache", "prune", "repo", "--cache-path", "repo.db", "--config", "c.yaml")
		require.NoError(t, err)
		assert.Equal(t, "repo", capturedRoot)
		assert.Equal(t, "c.yaml", capturedOpts.ConfigPath)
		require.NotNil(t, capturedOpts.Overrides.CachePath)
		assert.Equal(t, "repo.db", *capturedOpts.Overrides.CachePath)
		assert.Contains(t, out, "pruned 4 records")
	})

	t.Run("clean", func(t *testing.T) {
		var capturedRoot string
		mock := &mockApp{
			cleanFunc: func(_ context.Context, root string, _ app.CacheOptions) (int, error) {
				capturedRoot = root
				return 2, nil
			},
		}

		out, err := execute(t, mock, "cache", "clean")
		require.NoError(t, err)
		assert.Equal(t, ".", capturedRoot)
		assert.Contains(t, out, "removed 2 files")
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mock := &mockApp{
			cleanFunc: func(context.Context, string, app.CacheOptions) (int, error) {
				return 0, errors.New("permission denied")
			},
		}

		_, err := execute(t, mock, "cache", "clean")
		require.ErrorContains(t, err, "permission denied")
	})
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
	assert.Contains(t, out, build.Commit)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "canopy version "+build.Version)
}

func TestCommands_VerboseShorthand(t *testing.T) {
	var captured app.LogOptions
	mock := &mockApp{
		setupFunc: func(opts app.LogOptions) (func(context.Context) error, error) {
			captured = opts
			return func(context.Context) error { return nil }, nil
		},
	}

	out, err := execute(t, mock, "-v", "version")
	require.NoError(t, err)
	assert.True(t, captured.Verbose)
	assert.Contains(t, out, "canopy version "+build.Version)

	out, err = execute(t, &mockApp{}, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "-v, --verbose")
	assert.NotContains(t, out, "-v, --version")
}
