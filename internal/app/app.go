// Package app implements the application layer for canopy.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/canopy/internal/adapters/encoder"
	"go.trai.ch/canopy/internal/adapters/logger"
	"go.trai.ch/canopy/internal/adapters/telemetry"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/canopy/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// tempPattern matches the temporary files the output writer creates.
const tempPattern = ".canopy-*.tmp"

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	pipeline     *pipeline.Pipeline
	opener       ports.CacheOpener
	logger       ports.Logger
	telemetry    ports.Telemetry
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	p *pipeline.Pipeline,
	opener ports.CacheOpener,
	log ports.Logger,
	progress ports.Telemetry,
) *App {
	return &App{
		configLoader: loader,
		pipeline:     p,
		opener:       opener,
		logger:       log,
		telemetry:    progress,
	}
}

// Scan scans root and writes the report to the configured output.
// Per-file problems are part of the result; any returned error is fatal
// and no output file is left behind.
func (a *App) Scan(ctx context.Context, root string, opts ScanOptions) (*domain.ScanResult, error) {
	rc, settings, err := a.resolve(root, opts.ConfigPath, opts.Overrides)
	if err != nil {
		return nil, err
	}

	enc, err := encoder.For(settings.Output.Format)
	if err != nil {
		return nil, err
	}

	output := settings.Output.Path
	if output == "" {
		output = settings.Output.Format.DefaultOutputPath()
	}
	if output != encoder.Stdout {
		if output, err = filepath.Abs(output); err != nil {
			return nil, zerr.Wrap(err, "failed to resolve output path")
		}
		excludeOutput(rc, output)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	out, err := encoder.Open(output, stdout)
	if err != nil {
		return nil, errors.Join(domain.ErrScanFailed, err)
	}

	run, err := a.pipeline.Start(ctx, rc)
	if err != nil {
		out.Abort()
		return nil, errors.Join(domain.ErrScanFailed, err)
	}

	writeErr := out.Commit(enc, run.Report(settings.Output.Summary))
	res, waitErr := run.Wait()
	if err := errors.Join(waitErr, writeErr); err != nil {
		return nil, errors.Join(domain.ErrScanFailed, err)
	}

	if output != encoder.Stdout {
		a.logger.Info(fmt.Sprintf("wrote %s report to %s", settings.Output.Format, output))
	}
	return res, nil
}

// PruneCache removes cache records for files that no longer exist under root.
// It returns the number of removed records.
func (a *App) PruneCache(ctx context.Context, root string, opts CacheOptions) (int, error) {
	rc, _, err := a.resolve(root, opts.ConfigPath, opts.Overrides)
	if err != nil {
		return 0, err
	}

	store, err := a.opener.Open(ctx, rc.CacheOptions())
	if err != nil {
		return 0, err
	}

	n, err := store.EvictMissing(ctx, rc.Root)
	if closeErr := store.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to prune cache"), "location", rc.CacheLocation)
	}

	a.logger.Info(fmt.Sprintf("removed %d stale cache records from %s", n, rc.CacheLocation))
	return n, nil
}

// CleanCache deletes the cache database of root and its sibling files.
// It returns the number of removed files.
func (a *App) CleanCache(_ context.Context, root string, opts CacheOptions) (int, error) {
	rc, _, err := a.resolve(root, opts.ConfigPath, opts.Overrides)
	if err != nil {
		return 0, err
	}

	n, err := a.opener.Remove(rc.CacheLocation)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to remove cache"), "location", rc.CacheLocation)
	}

	if n == 0 {
		a.logger.Info(fmt.Sprintf("no cache at %s", rc.CacheLocation))
	} else {
		a.logger.Info(fmt.Sprintf("removed %s", rc.CacheLocation))
	}
	return n, nil
}

// Setup applies opts to the logger and starts span export. The returned
// function flushes the exporter and closes any opened files; it must be
// called once the command has finished.
func (a *App) Setup(opts LogOptions) (func(context.Context) error, error) {
	format, err := logger.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var closers []func(context.Context) error
	cleanup := func(ctx context.Context) error {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = errors.Join(errs, closers[i](ctx))
		}
		return errs
	}

	if l, ok := a.logger.(*logger.Logger); ok {
		l.SetFormat(format)
		l.SetVerbose(opts.Verbose)
		if opts.File != "" {
			f, err := openAppend(opts.File)
			if err != nil {
				return nil, err
			}
			l.SetFile(f)
			closers = append(closers, func(context.Context) error {
				l.SetFile(nil)
				return f.Close()
			})
		}
	}

	if opts.TraceFile != "" {
		f, err := openAppend(opts.TraceFile)
		if err != nil {
			_ = cleanup(context.Background())
			return nil, err
		}
		shutdown, err := telemetry.Setup(f)
		if err != nil {
			_ = f.Close()
			_ = cleanup(context.Background())
			return nil, zerr.Wrap(err, "failed to set up tracing")
		}
		closers = append(closers, func(ctx context.Context) error {
			return errors.Join(shutdown(ctx), f.Close())
		})
	}

	closers = append(closers, func(context.Context) error {
		return a.telemetry.Close()
	})
	return cleanup, nil
}

// resolve loads the settings for root and derives its run context.
func (a *App) resolve(root, configPath string, overrides Overrides) (*domain.RunContext, domain.Settings, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.Settings{}, zerr.With(zerr.Wrap(err, "failed to resolve root"), "root", root)
	}

	settings, err := a.configLoader.Load(abs, configPath)
	if err != nil {
		return nil, domain.Settings{}, zerr.Wrap(err, "failed to load configuration")
	}
	overrides.Apply(&settings)

	return domain.NewRunContext(abs, settings), settings, nil
}

// excludeOutput keeps the report and its temporary siblings out of a scan
// whose root contains them.
func excludeOutput(rc *domain.RunContext, output string) {
	rel, err := filepath.Rel(rc.Root, output)
	if err != nil || !filepath.IsLocal(rel) {
		return
	}
	rc.Exclusions.Patterns = appendNew(rc.Exclusions.Patterns, []string{
		filepath.Base(output) + "*",
		tempPattern,
	})
}

func openAppend(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", path)
	}
	//nolint:gosec // path is provided by the user
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", path)
	}
	return f, nil
}
