package domain

import (
	"path"
	"path/filepath"
)

// RootRel is the relative path of the scan root itself.
const RootRel = "."

// Path identifies a filesystem entry both by its absolute location, which is
// also its cache key, and by its slash-separated location below the scan root.
type Path struct {
	Abs string
	Rel string
}

// NewPath builds a Path for abs relative to root.
func NewPath(root, abs string) Path {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		rel = abs
	}
	return Path{Abs: abs, Rel: filepath.ToSlash(rel)}
}

// Join returns the Path of the child called name.
func (p Path) Join(name string) Path {
	rel := name
	if p.Rel != RootRel && p.Rel != "" {
		rel = path.Join(p.Rel, name)
	}
	return Path{Abs: filepath.Join(p.Abs, name), Rel: rel}
}

// Name returns the final element of the path.
func (p Path) Name() string {
	return filepath.Base(p.Abs)
}
