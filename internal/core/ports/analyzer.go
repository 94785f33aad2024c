package ports

import (
	"io/fs"

	"go.trai.ch/canopy/internal/core/domain"
)

// Analyzer inspects a single file.
//
//go:generate go run go.uber.org/mock/mockgen -source=analyzer.go -destination=mocks/mock_analyzer.go -package=mocks
type Analyzer interface {
	// Analyze builds the entry for the file at path. It never fails;
	// problems are recorded on the returned entry.
	Analyze(path domain.Path, info fs.FileInfo, rc *domain.RunContext) *domain.FileEntry
}
