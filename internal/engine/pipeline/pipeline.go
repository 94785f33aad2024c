// Package pipeline coordinates traversal, caching and analysis of a scan.
package pipeline

import (
	"context"
	"path/filepath"
	"slices"

	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs scans. A Pipeline holds no per-run state and can start any
// number of runs.
type Pipeline struct {
	traverser ports.Traverser
	analyzer  ports.Analyzer
	opener    ports.CacheOpener
	logger    ports.Logger
	tracer    ports.Tracer
	telemetry ports.Telemetry
}

// New creates a new Pipeline.
func New(
	traverser ports.Traverser,
	analyzer ports.Analyzer,
	opener ports.CacheOpener,
	logger ports.Logger,
	tracer ports.Tracer,
	telemetry ports.Telemetry,
) *Pipeline {
	return &Pipeline{
		traverser: traverser,
		analyzer:  analyzer,
		opener:    opener,
		logger:    logger,
		tracer:    tracer,
		telemetry: telemetry,
	}
}

// Start validates the root, compiles the exclusions, opens the cache and
// launches the producer and rc.Workers workers. Any error returned here is
// fatal and leaves nothing running.
func (p *Pipeline) Start(ctx context.Context, rc *domain.RunContext) (*Run, error) {
	ctx, span := p.tracer.Start(ctx, "scan")
	span.SetAttribute("root", rc.Root)
	span.SetAttribute("workers", rc.Workers)
	span.SetAttribute("order", string(rc.Order))
	span.SetAttribute("hash_algorithm", string(rc.HashAlgorithm))

	runCtx, cancel := context.WithCancel(ctx)

	walk, err := p.traverser.Walk(runCtx, rc.Root, domain.WalkOptions{
		Order:          rc.Order,
		FollowSymlinks: rc.FollowSymlinks,
		Exclusions:     exclusions(rc),
	})
	if err != nil {
		cancel()
		span.RecordError(err)
		span.End()
		return nil, err
	}

	store := ports.CacheStore(noCache{})
	if rc.CacheEnabled {
		store, err = p.opener.Open(runCtx, rc.CacheOptions())
		if err != nil {
			cancel()
			span.RecordError(err)
			span.End()
			return nil, err
		}
	}

	r := &Run{
		p:       p,
		rc:      rc,
		walk:    walk,
		store:   store,
		ctx:     runCtx,
		cancel:  cancel,
		span:    span,
		queue:   make(chan domain.Candidate, max(rc.QueueSize, 0)),
		results: make(chan *domain.FileEntry, max(rc.Workers, 1)),
		agg:     NewAggregator(),
	}
	r.start()
	return r, nil
}

// exclusions returns the run's rules plus a pattern hiding the cache
// database and its siblings when they live inside the root.
func exclusions(rc *domain.RunContext) domain.ExclusionRuleSet {
	rules := rc.Exclusions
	if !rc.CacheEnabled || rc.CacheLocation == "" {
		return rules
	}
	rel, err := filepath.Rel(rc.Root, rc.CacheLocation)
	if err != nil || !filepath.IsLocal(rel) {
		return rules
	}
	pattern := filepath.Base(rc.CacheLocation) + "*"
	if slices.Contains(rules.Patterns, pattern) {
		return rules
	}
	rules.Patterns = append(slices.Clone(rules.Patterns), pattern)
	return rules
}

func (r *Run) start() {
	r.group = &errgroup.Group{}

	r.group.Go(r.produce)
	for range max(r.rc.Workers, 1) {
		r.group.Go(r.work)
	}

	go func() {
		_ = r.group.Wait()
		close(r.results)
	}()
}
