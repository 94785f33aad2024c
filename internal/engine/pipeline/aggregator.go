package pipeline

import (
	"slices"
	"strings"
	"sync"

	"go.trai.ch/canopy/internal/core/domain"
)

// Aggregator folds completed entries into a summary.
type Aggregator struct {
	mu       sync.Mutex
	files    int
	size     int64
	cached   int
	byStatus map[domain.ContentStatus]int
	byMIME   map[string]domain.MIMEStat
	failed   []domain.FileError
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		byStatus: make(map[domain.ContentStatus]int),
		byMIME:   make(map[string]domain.MIMEStat),
	}
}

// Add records one completed entry.
func (a *Aggregator) Add(e *domain.FileEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.files++
	a.size += e.Size
	if e.Cached {
		a.cached++
	}
	a.byStatus[e.Status]++

	mimeType := e.MIMEType
	if mimeType == "" {
		mimeType = "unknown"
	}
	stat := a.byMIME[mimeType]
	stat.Files++
	stat.Size += e.Size
	a.byMIME[mimeType] = stat

	if e.Failed() {
		a.failed = append(a.failed, domain.FileError{Path: e.Path.Rel, Message: e.Error})
	}
}

// Summary finalizes the aggregate with the traversal's exclusion counts and
// the run counters.
func (a *Aggregator) Summary(ws *domain.WalkStats, stats domain.ScanStats) *domain.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &domain.Summary{
		IncludedFiles: a.files,
		TotalFiles:    a.files,
		TotalSize:     a.size,
		ByStatus:      make(map[domain.ContentStatus]int, len(a.byStatus)),
		ByMIME:        make(map[string]domain.MIMEStat, len(a.byMIME)),
		CacheHits:     a.cached,
		Analyzed:      int(stats.Analyzed),
		FailedFiles:   slices.Clone(a.failed),
	}
	for k, v := range a.byStatus {
		s.ByStatus[k] = v
	}
	for k, v := range a.byMIME {
		s.ByMIME[k] = v
	}
	if ws != nil {
		s.ExcludedFiles = ws.ExcludedFiles
		s.ExcludedDirs = ws.ExcludedDirs
		s.TotalFiles += ws.ExcludedFiles
	}
	if s.TotalFiles > 0 {
		s.ExcludedPercentage = float64(s.ExcludedFiles) / float64(s.TotalFiles) * 100
	}
	if s.FailedFiles == nil {
		s.FailedFiles = []domain.FileError{}
	}
	slices.SortFunc(s.FailedFiles, func(x, y domain.FileError) int {
		return strings.Compare(x.Path, y.Path)
	})
	return s
}
