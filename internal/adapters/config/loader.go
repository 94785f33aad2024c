// Package config provides the configuration loader for canopy.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load resolves settings for a scan of root. An explicit path must exist;
// otherwise the first of FileNames found in root is used, and built-in
// defaults apply when there is none.
func (l *Loader) Load(root, path string) (domain.Settings, error) {
	configPath, err := l.findConfiguration(root, path)
	if err != nil {
		return domain.Settings{}, err
	}

	settings := domain.DefaultSettings()
	if configPath == "" {
		l.Logger.Debug("no config file found, using defaults")
		return settings, nil
	}

	var file Canopyfile
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return domain.Settings{}, zerr.With(err, "path", configPath)
	}
	if err := apply(&settings, &file, filepath.Dir(configPath)); err != nil {
		return domain.Settings{}, zerr.With(err, "path", configPath)
	}

	l.Logger.Debug(fmt.Sprintf("loaded config from %s", configPath))
	return settings, nil
}

func (l *Loader) findConfiguration(root, path string) (string, error) {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "explicit config unavailable"), "path", path)
		}
		return path, nil
	}

	for _, name := range FileNames {
		candidate := filepath.Join(root, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// readAndUnmarshalYAML reads a YAML file and strictly decodes it into target.
// An empty file leaves target untouched.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is provided by the user or discovered in the scan root
	data, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Join(domain.ErrConfigReadFailed, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(domain.ErrConfigParseFailed, err)
	}
	return nil
}

// apply overlays the keys set in file onto s. Relative paths resolve
// against dir, the directory holding the config file.
//
//nolint:cyclop,gocognit // one branch per configuration key
func apply(s *domain.Settings, file *Canopyfile, dir string) error {
	if file.HashAlgorithm != nil {
		algo, err := domain.ParseHashAlgorithm(*file.HashAlgorithm)
		if err != nil {
			return err
		}
		s.HashAlgorithm = algo
	}
	if file.MaxSize != nil {
		size, err := ParseSize(*file.MaxSize)
		if err != nil {
			return err
		}
		s.MaxSize = size
	}
	if file.IncludeBinary != nil {
		s.IncludeBinary = *file.IncludeBinary
	}
	if file.FollowSymlinks != nil {
		s.FollowSymlinks = *file.FollowSymlinks
	}
	if file.Threads != nil {
		if *file.Threads < 1 {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "threads must be positive"), "threads", *file.Threads)
		}
		s.Threads = *file.Threads
	}
	if file.QueueSize != nil {
		if *file.QueueSize < 0 {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "queue_size must not be negative"), "queue_size", *file.QueueSize)
		}
		s.QueueSize = *file.QueueSize
	}
	if file.Encoding != nil {
		s.Encoding = *file.Encoding
	}
	if file.ExcludeFolders != nil {
		s.Exclusions.FolderNames = file.ExcludeFolders
	}
	if file.ExcludeFiles != nil {
		s.Exclusions.FileNames = file.ExcludeFiles
	}
	if file.ExcludePatterns != nil {
		s.Exclusions.Patterns = file.ExcludePatterns
	}
	if file.ImageExtensions != nil {
		s.Exclusions.ImageExtensions = file.ImageExtensions
	}
	if file.RespectGitignore != nil {
		s.Exclusions.RespectGitignore = *file.RespectGitignore
	}
	if file.Order != nil {
		order, err := domain.ParseTraversalOrder(*file.Order)
		if err != nil {
			return err
		}
		s.Order = order
	}
	if err := applyCache(&s.Cache, file.Cache, dir); err != nil {
		return err
	}
	return applyOutput(&s.Output, file.Output, dir)
}

func applyCache(c *domain.CacheSettings, dto *CacheDTO, dir string) error {
	if dto == nil {
		return nil
	}
	if dto.Enabled != nil {
		c.Enabled = *dto.Enabled
	}
	if dto.Path != nil {
		c.Path = resolvePath(dir, *dto.Path)
	}
	if dto.PoolSize != nil {
		if *dto.PoolSize < 1 {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "cache.pool_size must be positive"), "pool_size", *dto.PoolSize)
		}
		c.PoolSize = *dto.PoolSize
	}
	if dto.Prune != nil {
		c.Prune = *dto.Prune
	}
	return nil
}

func applyOutput(o *domain.OutputSettings, dto *OutputDTO, dir string) error {
	if dto == nil {
		return nil
	}
	if dto.Format != nil {
		format, err := domain.ParseFormat(*dto.Format)
		if err != nil {
			return err
		}
		o.Format = format
	}
	if dto.Path != nil {
		o.Path = *dto.Path
		if o.Path != "-" {
			o.Path = resolvePath(dir, o.Path)
		}
	}
	if dto.Summary != nil {
		o.Summary = *dto.Summary
	}
	return nil
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(dir, path))
}

// ParseSize parses a byte size such as "1048576", "512KiB" or "50 MB".
func ParseSize(value string) (int64, error) {
	size, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, zerr.With(errors.Join(domain.ErrInvalidConfig, err), "size", value)
	}
	if size == 0 || size > math.MaxInt64 {
		return 0, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "size out of range"), "size", value)
	}
	return int64(size), nil
}
