package pipeline_test

import (
	"context"
	iofs "io/fs"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canopy/internal/adapters/telemetry"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports/mocks"
	"go.trai.ch/canopy/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

// slowAnalyzer takes one second per file.
type slowAnalyzer struct {
	calls atomic.Int64
}

func (s *slowAnalyzer) Analyze(p domain.Path, info iofs.FileInfo, rc *domain.RunContext) *domain.FileEntry {
	s.calls.Add(1)
	time.Sleep(time.Second)
	return &domain.FileEntry{
		Path:          p,
		Name:          p.Name(),
		Size:          info.Size(),
		ModTime:       info.ModTime(),
		HashAlgorithm: rc.HashAlgorithm,
		Analysis:      domain.Analysis{MIMEType: "text/plain", Status: domain.StatusCaptured},
	}
}

// staticWalk builds a flat walk over n files created below root.
func staticWalk(t *testing.T, root string, n int) *domain.Walk {
	t.Helper()
	rootNode := &domain.DirectoryNode{Path: domain.Path{Abs: root, Rel: domain.RootRel}}
	var candidates []domain.Candidate
	for i := range n {
		name := "f" + strconv.Itoa(i) + ".txt"
		p := rootNode.Path.Join(name)
		require.NoError(t, os.WriteFile(p.Abs, []byte(name), 0o600))
		info, err := os.Stat(p.Abs)
		require.NoError(t, err)

		entry := &domain.FileEntry{Path: p, Name: name}
		rootNode.Children = append(rootNode.Children, entry)
		candidates = append(candidates, domain.Candidate{Path: p, Info: info, Entry: entry})
	}
	return &domain.Walk{
		Root: rootNode,
		Candidates: func(yield func(domain.Candidate) bool) {
			for _, c := range candidates {
				if !yield(c) {
					return
				}
			}
		},
		Stats: &domain.WalkStats{},
	}
}

func slowPipeline(t *testing.T, walk *domain.Walk, slow *slowAnalyzer) *pipeline.Pipeline {
	t.Helper()
	ctrl := gomock.NewController(t)
	traverser := mocks.NewMockTraverser(ctrl)
	traverser.EXPECT().Walk(gomock.Any(), gomock.Any(), gomock.Any()).Return(walk, nil)
	opener := mocks.NewMockCacheOpener(ctrl)
	opener.EXPECT().Open(gomock.Any(), gomock.Any()).Times(0)

	return pipeline.New(traverser, slow, opener, quietLogger(t),
		telemetry.NewNoOpTracer(), telemetry.NewNoOpTelemetry())
}

func TestPipeline_CancelDropsInFlight(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := t.TempDir()
		slow := &slowAnalyzer{}
		p := slowPipeline(t, staticWalk(t, root, 6), slow)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		rc := runContext(root, func(s *domain.Settings) {
			s.Threads = 2
			s.Cache.Enabled = false
		})

		run, err := p.Start(ctx, rc)
		require.NoError(t, err)
		time.AfterFunc(1500*time.Millisecond, cancel)

		var emitted []string
		for e := range run.Entries() {
			emitted = append(emitted, e.Path.Rel)
		}

		_, err = run.Wait()
		require.ErrorIs(t, err, domain.ErrScanCancelled)
		require.ErrorIs(t, err, context.Canceled)

		// Two batches started; only the first finished before cancellation.
		assert.Len(t, emitted, 2)
		assert.Equal(t, int64(4), slow.calls.Load())
		assert.Equal(t, int64(4), run.Stats().Analyzed)
	})
}

func TestPipeline_CancelledBeforeStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := t.TempDir()
		slow := &slowAnalyzer{}
		p := slowPipeline(t, staticWalk(t, root, 3), slow)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		run, err := p.Start(ctx, runContext(root, func(s *domain.Settings) {
			s.Cache.Enabled = false
		}))
		require.NoError(t, err)

		res, err := run.Wait()
		require.ErrorIs(t, err, domain.ErrScanCancelled)
		assert.Nil(t, res)
		assert.Zero(t, slow.calls.Load())
	})
}

func TestPipeline_CallerTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := t.TempDir()
		slow := &slowAnalyzer{}
		p := slowPipeline(t, staticWalk(t, root, 10), slow)

		ctx, cancel := context.WithTimeout(t.Context(), 2500*time.Millisecond)
		defer cancel()

		run, err := p.Start(ctx, runContext(root, func(s *domain.Settings) {
			s.Threads = 1
			s.Cache.Enabled = false
		}))
		require.NoError(t, err)

		_, err = run.Wait()
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, int64(3), slow.calls.Load())
	})
}
