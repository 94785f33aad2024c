package domain

import (
	"io/fs"
	"iter"
	"time"
)

// ContentStatus describes what happened to the content of a file.
type ContentStatus string

const (
	// StatusCaptured means the normalized text content is attached.
	StatusCaptured ContentStatus = "captured"
	// StatusTruncated means the file exceeded the size limit and no content is attached.
	StatusTruncated ContentStatus = "truncated"
	// StatusBinary means the file was classified as binary and its content was not captured.
	StatusBinary ContentStatus = "binary"
	// StatusSkipped means the file was not analyzed, e.g. a repeated symlink target.
	StatusSkipped ContentStatus = "skipped"
	// StatusError means analysis failed and Error holds the reason.
	StatusError ContentStatus = "error"
)

// Node is an element of a scanned tree: either a *DirectoryNode or a *FileEntry.
type Node interface {
	NodePath() Path
	IsDir() bool
}

// DirectoryNode is a directory in the scanned tree.
// Children keep the order in which the traverser listed them.
type DirectoryNode struct {
	Path     Path
	Name     string
	Children []Node
}

// NodePath returns the location of the directory.
func (d *DirectoryNode) NodePath() Path { return d.Path }

// IsDir reports true.
func (d *DirectoryNode) IsDir() bool { return true }

// Files yields every file entry below d in tree order.
func (d *DirectoryNode) Files() iter.Seq[*FileEntry] {
	return func(yield func(*FileEntry) bool) {
		d.walkFiles(yield)
	}
}

func (d *DirectoryNode) walkFiles(yield func(*FileEntry) bool) bool {
	for _, child := range d.Children {
		switch n := child.(type) {
		case *DirectoryNode:
			if !n.walkFiles(yield) {
				return false
			}
		case *FileEntry:
			if !yield(n) {
				return false
			}
		}
	}
	return true
}

// Analysis is the content-derived part of a FileEntry.
// It is what the cache stores as a record payload.
type Analysis struct {
	MIMEType        string        `json:"mime_type"`
	Encoding        string        `json:"encoding,omitempty"`
	Content         *string       `json:"content,omitempty"`
	ContentEncoding string        `json:"content_encoding,omitempty"`
	Status          ContentStatus `json:"status"`
	Error           string        `json:"error,omitempty"`
}

// FileEntry is the record produced for every included file.
type FileEntry struct {
	Path          Path
	Name          string
	Size          int64
	ModTime       time.Time
	Mode          fs.FileMode
	Hash          string
	HashAlgorithm HashAlgorithm
	Analysis

	// Cached reports whether the analysis was served from the cache.
	// It is never serialized.
	Cached bool
	// Transient marks a failure caused by I/O, such as a file that vanished
	// or could not be read. Transient entries are never cached.
	Transient bool
}

// NodePath returns the location of the file.
func (e *FileEntry) NodePath() Path { return e.Path }

// IsDir reports false.
func (e *FileEntry) IsDir() bool { return false }

// Failed reports whether analysis of the entry recorded an error.
func (e *FileEntry) Failed() bool { return e.Error != "" }

// FileError pairs a file with the error recorded for it.
type FileError struct {
	Path    string `json:"path" yaml:"path" xml:"path,attr" msgpack:"path"`
	Message string `json:"error" yaml:"error" xml:",chardata" msgpack:"error"`
}
