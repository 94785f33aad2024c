package ports

import "go.trai.ch/canopy/internal/core/domain"

// ConfigLoader defines the interface for loading scan settings.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load resolves settings for a scan of root. An empty path means the
	// config file is discovered in root; a missing discovered file yields defaults.
	Load(root, path string) (domain.Settings, error)
}
