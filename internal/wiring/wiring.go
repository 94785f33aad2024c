// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/canopy/internal/adapters/analyzer"
	_ "go.trai.ch/canopy/internal/adapters/cache"
	_ "go.trai.ch/canopy/internal/adapters/config"
	_ "go.trai.ch/canopy/internal/adapters/fs"
	_ "go.trai.ch/canopy/internal/adapters/logger"
	_ "go.trai.ch/canopy/internal/adapters/telemetry"
	_ "go.trai.ch/canopy/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/canopy/internal/app"
	_ "go.trai.ch/canopy/internal/engine/pipeline"
)
