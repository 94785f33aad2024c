package domain

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	// DefaultCacheFileName is the cache database created under the scan root.
	DefaultCacheFileName = ".canopy_cache.db"
	// DefaultMaxSize is the largest file whose content is captured.
	DefaultMaxSize int64 = 50 << 20
	// DefaultEncoding is assumed for text that is not valid UTF-8 and carries no BOM.
	DefaultEncoding = "utf-8"
	// DefaultCachePoolSize is the number of pooled cache connections.
	DefaultCachePoolSize = 3
	// DefaultCacheAcquireTimeout bounds how long a worker waits for a cache connection.
	DefaultCacheAcquireTimeout = 10 * time.Second
)

// DefaultExcludedFolders returns the folder names skipped unless overridden.
func DefaultExcludedFolders() []string {
	return []string{
		"tmp", "node_modules", ".git", "dist", "build", "out", "target", "public",
		"cache", "temp", "coverage", "test-results", "reports", ".vscode", ".idea",
		"logs", "assets", "bower_components", ".next", "venv",
	}
}

// DefaultExcludedFiles returns the file names skipped unless overridden.
func DefaultExcludedFiles() []string {
	return []string{
		"config.json", "secret.txt", "package-lock.json", "favicon.ico",
		"GeistMonoVF.woff", "GeistVF.woff",
	}
}

// DefaultExcludedPatterns keeps the cache database and its siblings out of scans.
func DefaultExcludedPatterns() []string {
	return []string{DefaultCacheFileName + "*"}
}

// DefaultImageExtensions returns the extensions always classified as binary images.
func DefaultImageExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp", ".tiff"}
}

// DefaultThreads returns the default worker count.
func DefaultThreads() int {
	return runtime.NumCPU() * 2
}

// ExclusionRuleSet is the raw exclusion configuration of a run.
type ExclusionRuleSet struct {
	FolderNames []string
	FileNames   []string
	// Patterns are shell globs matched against the entry name, or regular
	// expressions prefixed with "regex:" matched against the relative path.
	Patterns         []string
	ImageExtensions  []string
	RespectGitignore bool
}

// CacheSettings configures the persistent cache.
type CacheSettings struct {
	Enabled  bool
	Path     string
	PoolSize int
	Prune    bool
}

// OutputSettings configures how results are written.
type OutputSettings struct {
	Format  Format
	Path    string
	Summary bool
}

// Settings is the fully resolved configuration of a scan.
type Settings struct {
	HashAlgorithm  HashAlgorithm
	MaxSize        int64
	IncludeBinary  bool
	FollowSymlinks bool
	Threads        int
	QueueSize      int
	Encoding       string
	Order          TraversalOrder
	Exclusions     ExclusionRuleSet
	Cache          CacheSettings
	Output         OutputSettings
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		HashAlgorithm: HashMD5,
		MaxSize:       DefaultMaxSize,
		Threads:       DefaultThreads(),
		Encoding:      DefaultEncoding,
		Order:         OrderDFS,
		Exclusions: ExclusionRuleSet{
			FolderNames:     DefaultExcludedFolders(),
			FileNames:       DefaultExcludedFiles(),
			Patterns:        DefaultExcludedPatterns(),
			ImageExtensions: DefaultImageExtensions(),
		},
		Cache: CacheSettings{
			Enabled:  true,
			PoolSize: DefaultCachePoolSize,
			Prune:    true,
		},
		Output: OutputSettings{
			Format: FormatJSON,
		},
	}
}

// RunContext is the immutable per-run configuration shared by every worker.
// Cancellation travels separately as a context.Context.
type RunContext struct {
	Root                string
	HashAlgorithm       HashAlgorithm
	MaxContentSize      int64
	DefaultEncoding     string
	Workers             int
	QueueSize           int
	IncludeBinary       bool
	FollowSymlinks      bool
	Order               TraversalOrder
	Exclusions          ExclusionRuleSet
	CacheEnabled        bool
	CacheLocation       string
	CachePoolSize       int
	CacheAcquireTimeout time.Duration
	Prune               bool

	imageExtensions map[string]struct{}
}

// NewRunContext derives a RunContext for root from resolved settings,
// filling in defaults for zero values.
func NewRunContext(root string, s Settings) *RunContext {
	workers := s.Threads
	if workers <= 0 {
		workers = DefaultThreads()
	}
	queue := s.QueueSize
	if queue <= 0 {
		queue = workers * 4
	}
	pool := s.Cache.PoolSize
	if pool <= 0 {
		pool = DefaultCachePoolSize
	}
	location := s.Cache.Path
	if location == "" {
		location = filepath.Join(root, DefaultCacheFileName)
	}
	encoding := s.Encoding
	if encoding == "" {
		encoding = DefaultEncoding
	}
	algo := s.HashAlgorithm
	if algo == "" {
		algo = HashNone
	}
	maxSize := s.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	order := s.Order
	if order == "" {
		order = OrderDFS
	}

	images := make(map[string]struct{}, len(s.Exclusions.ImageExtensions))
	for _, ext := range s.Exclusions.ImageExtensions {
		images[NormalizeExtension(ext)] = struct{}{}
	}

	return &RunContext{
		Root:                root,
		HashAlgorithm:       algo,
		MaxContentSize:      maxSize,
		DefaultEncoding:     encoding,
		Workers:             workers,
		QueueSize:           queue,
		IncludeBinary:       s.IncludeBinary,
		FollowSymlinks:      s.FollowSymlinks,
		Order:               order,
		Exclusions:          s.Exclusions,
		CacheEnabled:        s.Cache.Enabled,
		CacheLocation:       location,
		CachePoolSize:       pool,
		CacheAcquireTimeout: DefaultCacheAcquireTimeout,
		Prune:               s.Cache.Prune,
		imageExtensions:     images,
	}
}

// IsImage reports whether name carries one of the configured image extensions.
func (rc *RunContext) IsImage(name string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	_, ok := rc.imageExtensions[NormalizeExtension(ext)]
	return ok
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
