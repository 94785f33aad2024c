package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/engine/pipeline"
)

func TestAggregator(t *testing.T) {
	agg := pipeline.NewAggregator()
	agg.Add(&domain.FileEntry{
		Path:     domain.Path{Rel: "b.txt"},
		Size:     10,
		Analysis: domain.Analysis{MIMEType: "text/plain", Status: domain.StatusCaptured},
	})
	agg.Add(&domain.FileEntry{
		Path:     domain.Path{Rel: "a.txt"},
		Size:     5,
		Analysis: domain.Analysis{MIMEType: "text/plain", Status: domain.StatusCaptured},
		Cached:   true,
	})
	agg.Add(&domain.FileEntry{
		Path:     domain.Path{Rel: "z.bin"},
		Size:     100,
		Analysis: domain.Analysis{Status: domain.StatusError, Error: "permission denied"},
	})

	s := agg.Summary(&domain.WalkStats{ExcludedFiles: 1, ExcludedDirs: 2}, domain.ScanStats{Analyzed: 2})

	assert.Equal(t, 3, s.IncludedFiles)
	assert.Equal(t, 4, s.TotalFiles)
	assert.Equal(t, 1, s.ExcludedFiles)
	assert.Equal(t, 2, s.ExcludedDirs)
	assert.InDelta(t, 25.0, s.ExcludedPercentage, 0.001)
	assert.Equal(t, int64(115), s.TotalSize)
	assert.Equal(t, 1, s.CacheHits)
	assert.Equal(t, 2, s.Analyzed)
	assert.Equal(t, map[domain.ContentStatus]int{
		domain.StatusCaptured: 2,
		domain.StatusError:    1,
	}, s.ByStatus)
	assert.Equal(t, domain.MIMEStat{Files: 2, Size: 15}, s.ByMIME["text/plain"])
	assert.Equal(t, domain.MIMEStat{Files: 1, Size: 100}, s.ByMIME["unknown"])
	assert.Equal(t, []domain.FileError{{Path: "z.bin", Message: "permission denied"}}, s.FailedFiles)
}

func TestAggregator_Empty(t *testing.T) {
	s := pipeline.NewAggregator().Summary(nil, domain.ScanStats{})

	assert.Zero(t, s.TotalFiles)
	assert.Zero(t, s.ExcludedPercentage)
	assert.NotNil(t, s.FailedFiles)
	assert.Empty(t, s.FailedFiles)
}
