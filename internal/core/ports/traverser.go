package ports

import (
	"context"

	"go.trai.ch/canopy/internal/core/domain"
)

// ExclusionEvaluator decides whether an entry is left out of a scan.
type ExclusionEvaluator interface {
	ShouldExclude(path domain.Path, isDir bool) bool
}

// Traverser enumerates the candidates below a root.
//
//go:generate go run go.uber.org/mock/mockgen -source=traverser.go -destination=mocks/mock_traverser.go -package=mocks
type Traverser interface {
	// Walk validates root and returns a lazy traversal of it.
	Walk(ctx context.Context, root string, opts domain.WalkOptions) (*domain.Walk, error)
}
