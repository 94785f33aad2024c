package app

import (
	"io"
	"slices"

	"go.trai.ch/canopy/internal/core/domain"
)

// Overrides are settings given on the command line. Nil fields and empty
// lists leave the configured value untouched; the exclusion lists are
// appended to the configured ones.
type Overrides struct {
	HashAlgorithm    *domain.HashAlgorithm
	MaxSize          *int64
	IncludeBinary    *bool
	FollowSymlinks   *bool
	Threads          *int
	Encoding         *string
	ExcludeFolders   []string
	ExcludeFiles     []string
	ExcludePatterns  []string
	ImageExtensions  []string
	RespectGitignore *bool
	Order            *domain.TraversalOrder
	CacheEnabled     *bool
	CachePath        *string
	CachePoolSize    *int
	Prune            *bool
	Format           *domain.Format
	OutputPath       *string
	Summary          *bool
}

// Apply overlays o onto s.
//
//nolint:cyclop // one branch per flag
func (o Overrides) Apply(s *domain.Settings) {
	setIf(&s.HashAlgorithm, o.HashAlgorithm)
	setIf(&s.MaxSize, o.MaxSize)
	setIf(&s.IncludeBinary, o.IncludeBinary)
	setIf(&s.FollowSymlinks, o.FollowSymlinks)
	setIf(&s.Threads, o.Threads)
	setIf(&s.Encoding, o.Encoding)
	setIf(&s.Exclusions.RespectGitignore, o.RespectGitignore)
	setIf(&s.Order, o.Order)
	setIf(&s.Cache.Enabled, o.CacheEnabled)
	setIf(&s.Cache.Path, o.CachePath)
	setIf(&s.Cache.PoolSize, o.CachePoolSize)
	setIf(&s.Cache.Prune, o.Prune)
	setIf(&s.Output.Format, o.Format)
	setIf(&s.Output.Path, o.OutputPath)
	setIf(&s.Output.Summary, o.Summary)

	s.Exclusions.FolderNames = appendNew(s.Exclusions.FolderNames, o.ExcludeFolders)
	s.Exclusions.FileNames = appendNew(s.Exclusions.FileNames, o.ExcludeFiles)
	s.Exclusions.Patterns = appendNew(s.Exclusions.Patterns, o.ExcludePatterns)
	s.Exclusions.ImageExtensions = appendNew(s.Exclusions.ImageExtensions, o.ImageExtensions)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// appendNew appends the values of extra missing from base, in order.
func appendNew(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	out := slices.Clone(base)
	for _, v := range extra {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// ScanOptions configures a Scan.
type ScanOptions struct {
	// ConfigPath is an explicit config file. Empty means discovery in the root.
	ConfigPath string
	Overrides  Overrides
	// Stdout receives the report when the output path is "-".
	Stdout io.Writer
}

// CacheOptions configures PruneCache and CleanCache.
type CacheOptions struct {
	ConfigPath string
	Overrides  Overrides
}

// LogOptions configures logging and tracing for one invocation.
type LogOptions struct {
	// Format is "auto", "pretty" or "json".
	Format  string
	Verbose bool
	// File receives a plain-text copy of the log when set.
	File string
	// TraceFile receives the OpenTelemetry spans of the run when set.
	TraceFile string
}
