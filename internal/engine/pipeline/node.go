package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/canopy/internal/adapters/analyzer"           //nolint:depguard // Wired in engine wiring
	"go.trai.ch/canopy/internal/adapters/cache"              //nolint:depguard // Wired in engine wiring
	"go.trai.ch/canopy/internal/adapters/fs"                 //nolint:depguard // Wired in engine wiring
	"go.trai.ch/canopy/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/canopy/internal/adapters/telemetry"          //nolint:depguard // Wired in engine wiring
	"go.trai.ch/canopy/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/canopy/internal/core/ports"
)

// NodeID is the unique identifier for the pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[*Pipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.WalkerNodeID,
			analyzer.NodeID,
			cache.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Pipeline, error) {
			traverser, err := graft.Dep[ports.Traverser](ctx)
			if err != nil {
				return nil, err
			}

			fileAnalyzer, err := graft.Dep[ports.Analyzer](ctx)
			if err != nil {
				return nil, err
			}

			opener, err := graft.Dep[ports.CacheOpener](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			progress, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			return New(traverser, fileAnalyzer, opener, log, tracer, progress), nil
		},
	})
}
