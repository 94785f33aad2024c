package domain

import (
	"io/fs"
	"iter"
)

// Candidate is a file handed from the traverser to the worker pool.
// Entry points at the placeholder already attached to the tree; workers fill it in place.
type Candidate struct {
	Path  Path
	Info  fs.FileInfo
	Entry *FileEntry

	// Resolved marks candidates whose Entry is final and must not be analyzed,
	// such as symlink cycles or dangling links.
	Resolved bool
}

// WalkOptions tunes a single traversal.
type WalkOptions struct {
	Order          TraversalOrder
	FollowSymlinks bool
	Exclusions     ExclusionRuleSet
}

// WalkStats counts what a traversal saw besides candidates.
// It is complete once the candidate sequence is exhausted.
type WalkStats struct {
	Directories     int
	ExcludedFiles   int
	ExcludedDirs    int
	Cycles          int
	UnreadableDirs  int
	SkippedSymlinks int
	SkippedSpecial  int

	// Errors lists directories that could not be listed.
	Errors []FileError
}

// Walk is a traversal in progress.
// Root is populated as Candidates is consumed.
type Walk struct {
	Root       *DirectoryNode
	Candidates iter.Seq[Candidate]
	Stats      *WalkStats
}
