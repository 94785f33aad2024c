package domain

import "go.trai.ch/zerr"

var (
	// ErrRootNotFound is returned when the scan root does not exist.
	ErrRootNotFound = zerr.New("scan root not found")

	// ErrRootNotDirectory is returned when the scan root exists but is not a directory.
	ErrRootNotDirectory = zerr.New("scan root is not a directory")

	// ErrInvalidPattern is returned when an exclusion pattern cannot be compiled.
	ErrInvalidPattern = zerr.New("invalid exclusion pattern")

	// ErrCacheOpenFailed is returned when the cache database cannot be opened or initialized.
	ErrCacheOpenFailed = zerr.New("failed to open cache")

	// ErrCachePoolExhausted is returned when no cache connection became available in time.
	ErrCachePoolExhausted = zerr.New("cache connection pool exhausted")

	// ErrCacheCorrupted is returned when a cached payload cannot be decoded.
	ErrCacheCorrupted = zerr.New("corrupted cache record")

	// ErrOutputCreateFailed is returned when the output destination cannot be created.
	ErrOutputCreateFailed = zerr.New("failed to create output")

	// ErrUnknownFormat is returned when an output format is not recognized.
	ErrUnknownFormat = zerr.New("unknown output format")

	// ErrUnknownHashAlgorithm is returned when a hash algorithm is not recognized.
	ErrUnknownHashAlgorithm = zerr.New("unknown hash algorithm")

	// ErrUnknownTraversalOrder is returned when a traversal order is not recognized.
	ErrUnknownTraversalOrder = zerr.New("unknown traversal order")

	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = zerr.New("config file not found")

	// ErrConfigReadFailed is returned when a config file exists but cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a config file is not valid YAML or has unknown keys.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = zerr.New("invalid configuration value")

	// ErrUnknownLogFormat is returned when a log format is not recognized.
	ErrUnknownLogFormat = zerr.New("unknown log format")

	// ErrScanCancelled is returned when a scan stops because its context was cancelled.
	ErrScanCancelled = zerr.New("scan cancelled")

	// ErrScanFailed wraps any fatal error that aborted a scan.
	ErrScanFailed = zerr.New("scan failed")

	// ErrSymlinkCycle marks an entry whose real path was already visited.
	ErrSymlinkCycle = zerr.New("symlink cycle")
)
