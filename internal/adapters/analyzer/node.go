package analyzer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/canopy/internal/adapters/fs"
	"go.trai.ch/canopy/internal/core/ports"
)

// NodeID is the unique identifier for the analyzer Graft node.
const NodeID graft.ID = "adapter.analyzer"

func init() {
	graft.Register(graft.Node[ports.Analyzer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID},
		Run: func(ctx context.Context) (ports.Analyzer, error) {
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return New(hasher), nil
		},
	})
}
