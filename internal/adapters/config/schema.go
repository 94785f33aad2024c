package config

// FileNames are the config files discovered in a scan root, in order of preference.
var FileNames = []string{".canopy.yaml", ".canopy.yml", "canopy.yaml"}

// Canopyfile represents the structure of a canopy configuration file.
// Unset keys keep their defaults; list keys replace the default list.
type Canopyfile struct {
	HashAlgorithm    *string    `yaml:"hash_algorithm"`
	MaxSize          *string    `yaml:"max_size"`
	IncludeBinary    *bool      `yaml:"include_binary"`
	FollowSymlinks   *bool      `yaml:"follow_symlinks"`
	Threads          *int       `yaml:"threads"`
	QueueSize        *int       `yaml:"queue_size"`
	Encoding         *string    `yaml:"encoding"`
	ExcludeFolders   []string   `yaml:"exclude_folders"`
	ExcludeFiles     []string   `yaml:"exclude_files"`
	ExcludePatterns  []string   `yaml:"exclude_patterns"`
	ImageExtensions  []string   `yaml:"image_extensions"`
	RespectGitignore *bool      `yaml:"respect_gitignore"`
	Order            *string    `yaml:"order"`
	Cache            *CacheDTO  `yaml:"cache"`
	Output           *OutputDTO `yaml:"output"`
}

// CacheDTO represents the cache section of the configuration.
type CacheDTO struct {
	Enabled  *bool   `yaml:"enabled"`
	Path     *string `yaml:"path"`
	PoolSize *int    `yaml:"pool_size"`
	Prune    *bool   `yaml:"prune"`
}

// OutputDTO represents the output section of the configuration.
type OutputDTO struct {
	Format  *string `yaml:"format"`
	Path    *string `yaml:"path"`
	Summary *bool   `yaml:"summary"`
}
