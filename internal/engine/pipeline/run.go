package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Run is a scan in progress.
//
// Entries and Wait must be called from a single goroutine: Entries first, if
// at all, then Wait.
type Run struct {
	p     *Pipeline
	rc    *domain.RunContext
	walk  *domain.Walk
	store ports.CacheStore
	span  ports.Span

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	queue   chan domain.Candidate
	results chan *domain.FileEntry
	agg     *Aggregator
	stats   counters

	waitOnce sync.Once
	result   *domain.ScanResult
	err      error
}

type counters struct {
	gets     atomic.Int64
	hits     atomic.Int64
	writes   atomic.Int64
	analyzed atomic.Int64
	evicted  atomic.Int64
}

func (c *counters) snapshot() domain.ScanStats {
	return domain.ScanStats{
		CacheGets:   c.gets.Load(),
		CacheHits:   c.hits.Load(),
		CacheWrites: c.writes.Load(),
		Analyzed:    c.analyzed.Load(),
		Evicted:     c.evicted.Load(),
	}
}

// Stats returns the counters accumulated so far.
func (r *Run) Stats() domain.ScanStats {
	return r.stats.snapshot()
}

// Entries yields completed entries in completion order. Breaking out of the
// loop cancels the run. Entries not consumed here are still folded into the
// summary by Wait.
func (r *Run) Entries() iter.Seq[*domain.FileEntry] {
	return func(yield func(*domain.FileEntry) bool) {
		for entry := range r.results {
			r.agg.Add(entry)
			if !yield(entry) {
				r.cancel()
				return
			}
		}
	}
}

// Report adapts the run for an encoder.
func (r *Run) Report(includeSummary bool) domain.Report {
	return domain.Report{
		Entries:        r.Entries(),
		Finish:         r.Wait,
		IncludeSummary: includeSummary,
	}
}

// Wait drains the run, prunes the cache when configured, closes the store and
// returns the finished result. It is safe to call more than once.
func (r *Run) Wait() (*domain.ScanResult, error) {
	r.waitOnce.Do(func() {
		r.result, r.err = r.finish()
	})
	return r.result, r.err
}

func (r *Run) finish() (*domain.ScanResult, error) {
	defer r.span.End()
	defer r.cancel()

	for entry := range r.results {
		r.agg.Add(entry)
	}
	_ = r.group.Wait()

	if err := r.ctx.Err(); err != nil {
		r.closeStore()
		err = zerr.With(errors.Join(domain.ErrScanCancelled, err), "root", r.rc.Root)
		r.span.RecordError(err)
		return nil, err
	}

	if r.rc.Prune && r.rc.CacheEnabled {
		r.evict()
	}
	r.closeStore()

	stats := r.stats.snapshot()
	summary := r.agg.Summary(r.walk.Stats, stats)

	errs := slices.Clone(r.walk.Stats.Errors)
	errs = append(errs, summary.FailedFiles...)
	slices.SortFunc(errs, func(a, b domain.FileError) int {
		return strings.Compare(a.Path, b.Path)
	})

	r.span.SetAttribute("files", summary.IncludedFiles)
	r.span.SetAttribute("cache_hits", stats.CacheHits)
	r.span.SetAttribute("analyzed", stats.Analyzed)

	r.p.logger.Info(fmt.Sprintf(
		"scanned %d files (%s): %d cached, %d analyzed, %d excluded",
		summary.IncludedFiles,
		humanize.IBytes(uint64(max(summary.TotalSize, 0))),
		stats.CacheHits,
		stats.Analyzed,
		summary.ExcludedFiles,
	))
	for _, fe := range errs {
		r.p.logger.Warn(fmt.Sprintf("%s: %s", fe.Path, fe.Message))
	}

	return &domain.ScanResult{
		Root:    r.walk.Root,
		Errors:  errs,
		Stats:   stats,
		Summary: summary,
	}, nil
}

func (r *Run) evict() {
	ctx, span := r.p.tracer.Start(r.ctx, "cache.evict")
	defer span.End()

	n, err := r.store.EvictMissing(ctx, r.walk.Root.Path.Abs)
	if err != nil {
		span.RecordError(err)
		r.p.logger.Warn(fmt.Sprintf("cache eviction failed: %v", err))
		return
	}
	r.stats.evicted.Add(int64(n))
	span.SetAttribute("evicted", n)
	if n > 0 {
		r.p.logger.Debug(fmt.Sprintf("evicted %d stale cache records", n))
	}
}

func (r *Run) closeStore() {
	if err := r.store.Close(); err != nil {
		r.p.logger.Warn(fmt.Sprintf("failed to close cache: %v", err))
	}
}

// produce feeds candidates into the bounded queue until the traversal ends
// or the run is cancelled.
func (r *Run) produce() error {
	defer close(r.queue)

	for c := range r.walk.Candidates {
		select {
		case r.queue <- c:
		case <-r.ctx.Done():
			return nil
		}
	}
	return nil
}

// work processes candidates until the queue is closed or the run is cancelled.
func (r *Run) work() error {
	for c := range r.queue {
		if r.ctx.Err() != nil {
			return nil
		}

		entry, ok := r.process(r.ctx, c)
		if !ok {
			continue
		}

		select {
		case r.results <- entry:
		case <-r.ctx.Done():
			return nil
		}
	}
	return nil
}

// process moves one candidate through cache check, analysis and cache write.
// It reports false when the run was cancelled and the result must be dropped.
func (r *Run) process(ctx context.Context, c domain.Candidate) (*domain.FileEntry, bool) {
	if c.Resolved {
		return c.Entry, true
	}

	ctx, vertex := r.p.telemetry.Record(ctx, c.Path.Rel)

	if hit := r.lookup(ctx, c); hit != nil {
		*c.Entry = *hit
		vertex.Cached()
		vertex.Complete(nil)
		return c.Entry, true
	}

	if ctx.Err() != nil {
		vertex.Complete(ctx.Err())
		return nil, false
	}

	entry := r.p.analyzer.Analyze(c.Path, c.Info, r.rc)
	r.stats.analyzed.Add(1)

	if ctx.Err() != nil {
		vertex.Complete(ctx.Err())
		return nil, false
	}

	if r.rc.CacheEnabled && !entry.Transient {
		r.write(ctx, entry)
	}

	*c.Entry = *entry
	if entry.Failed() {
		vertex.Log(domain.LogLevelWarn, entry.Error)
		vertex.Complete(zerr.New(entry.Error))
	} else {
		vertex.Complete(nil)
	}
	return c.Entry, true
}

// lookup returns the cached entry for c, or nil on a miss. Cache failures
// are logged and treated as misses.
func (r *Run) lookup(ctx context.Context, c domain.Candidate) *domain.FileEntry {
	if !r.rc.CacheEnabled {
		return nil
	}
	r.stats.gets.Add(1)

	rec, err := r.store.Get(ctx, c.Path.Abs)
	if err != nil {
		r.p.logger.Warn(fmt.Sprintf("cache lookup failed for %s: %v", c.Path.Rel, err))
		return nil
	}

	size, modTime := c.Info.Size(), c.Info.ModTime()
	if !rec.Reusable(size, modTime, r.rc.HashAlgorithm) {
		return nil
	}

	var analysis domain.Analysis
	if err := json.Unmarshal(rec.Payload, &analysis); err != nil {
		r.p.logger.Warn(fmt.Sprintf("cache record for %s is unreadable: %v", c.Path.Rel, err))
		return nil
	}

	r.stats.hits.Add(1)
	return &domain.FileEntry{
		Path:          c.Path,
		Name:          c.Path.Name(),
		Size:          size,
		ModTime:       modTime,
		Mode:          c.Info.Mode(),
		Hash:          rec.Hash,
		HashAlgorithm: rec.HashAlgorithm,
		Analysis:      analysis,
		Cached:        true,
	}
}

// write stores a freshly analyzed entry. Failures are logged and skipped.
func (r *Run) write(ctx context.Context, entry *domain.FileEntry) {
	payload, err := json.Marshal(entry.Analysis)
	if err != nil {
		r.p.logger.Warn(fmt.Sprintf("failed to encode cache record for %s: %v", entry.Path.Rel, err))
		return
	}

	err = r.store.Put(ctx, domain.CacheRecord{
		Path:          entry.Path.Abs,
		Size:          entry.Size,
		ModTime:       entry.ModTime,
		Hash:          entry.Hash,
		HashAlgorithm: entry.HashAlgorithm,
		Payload:       payload,
	})
	if err != nil {
		r.p.logger.Warn(fmt.Sprintf("cache write failed for %s: %v", entry.Path.Rel, err))
		return
	}
	r.stats.writes.Add(1)
}

// noCache stands in for the store when caching is disabled.
type noCache struct{}

func (noCache) Get(context.Context, string) (*domain.CacheRecord, error) { return nil, nil }
func (noCache) Put(context.Context, domain.CacheRecord) error            { return nil }
func (noCache) EvictMissing(context.Context, string) (int, error)        { return 0, nil }
func (noCache) Close() error                                             { return nil }
