package encoder

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"go.trai.ch/canopy/internal/core/domain"
)

const (
	typeFile      = "file"
	typeDirectory = "directory"
)

// fileView is the serialized form of a file entry.
type fileView struct {
	Type            string  `json:"type" yaml:"type" msgpack:"type"`
	Name            string  `json:"name" yaml:"name" msgpack:"name"`
	Path            string  `json:"path" yaml:"path" msgpack:"path"`
	Size            int64   `json:"size" yaml:"size" msgpack:"size"`
	Modified        string  `json:"modified,omitempty" yaml:"modified,omitempty" msgpack:"modified,omitempty"`
	Permissions     string  `json:"permissions" yaml:"permissions" msgpack:"permissions"`
	Hash            string  `json:"hash,omitempty" yaml:"hash,omitempty" msgpack:"hash,omitempty"`
	HashAlgorithm   string  `json:"hash_algorithm,omitempty" yaml:"hash_algorithm,omitempty" msgpack:"hash_algorithm,omitempty"`
	MIMEType        string  `json:"mime_type,omitempty" yaml:"mime_type,omitempty" msgpack:"mime_type,omitempty"`
	Encoding        string  `json:"encoding,omitempty" yaml:"encoding,omitempty" msgpack:"encoding,omitempty"`
	Status          string  `json:"status" yaml:"status" msgpack:"status"`
	ContentEncoding string  `json:"content_encoding,omitempty" yaml:"content_encoding,omitempty" msgpack:"content_encoding,omitempty"`
	Content         *string `json:"content,omitempty" yaml:"content,omitempty" msgpack:"content,omitempty"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// dirView is the serialized form of a directory. Children holds *dirView
// and *fileView values in tree order.
type dirView struct {
	Type     string `json:"type" yaml:"type" msgpack:"type"`
	Name     string `json:"name" yaml:"name" msgpack:"name"`
	Path     string `json:"path" yaml:"path" msgpack:"path"`
	Children []any  `json:"children" yaml:"children" msgpack:"children"`
}

// document is the top-level shape of tree formats.
type document struct {
	Structure *dirView           `json:"structure" yaml:"structure" msgpack:"structure"`
	Summary   *domain.Summary    `json:"summary,omitempty" yaml:"summary,omitempty" msgpack:"summary,omitempty"`
	Errors    []domain.FileError `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors,omitempty"`
}

func newFileView(e *domain.FileEntry) *fileView {
	return &fileView{
		Type:            typeFile,
		Name:            e.Name,
		Path:            e.Path.Rel,
		Size:            e.Size,
		Modified:        formatTime(e.ModTime),
		Permissions:     e.Mode.String(),
		Hash:            e.Hash,
		HashAlgorithm:   hashAlgorithm(e),
		MIMEType:        e.MIMEType,
		Encoding:        e.Encoding,
		Status:          string(e.Status),
		ContentEncoding: e.ContentEncoding,
		Content:         e.Content,
		Error:           e.Error,
	}
}

func newDirView(d *domain.DirectoryNode) *dirView {
	v := &dirView{
		Type:     typeDirectory,
		Name:     d.Name,
		Path:     d.Path.Rel,
		Children: make([]any, 0, len(d.Children)),
	}
	for _, child := range d.Children {
		switch n := child.(type) {
		case *domain.DirectoryNode:
			v.Children = append(v.Children, newDirView(n))
		case *domain.FileEntry:
			v.Children = append(v.Children, newFileView(n))
		}
	}
	return v
}

func newDocument(res *domain.ScanResult, includeSummary bool) document {
	doc := document{
		Structure: newDirView(res.Root),
		Errors:    res.Errors,
	}
	if includeSummary {
		doc.Summary = res.Summary
	}
	return doc
}

func hashAlgorithm(e *domain.FileEntry) string {
	if e.Hash == "" {
		return ""
	}
	return string(e.HashAlgorithm)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// field is one labeled value of a flattened summary.
type field struct {
	Key   string
	Value string
}

// summaryFields flattens s into a stable, ordered list for line-oriented formats.
func summaryFields(s *domain.Summary) []field {
	if s == nil {
		return nil
	}
	fields := []field{
		{"total_files", strconv.Itoa(s.TotalFiles)},
		{"included_files", strconv.Itoa(s.IncludedFiles)},
		{"excluded_files", strconv.Itoa(s.ExcludedFiles)},
		{"excluded_dirs", strconv.Itoa(s.ExcludedDirs)},
		{"excluded_percentage", strconv.FormatFloat(s.ExcludedPercentage, 'f', 2, 64)},
		{"total_size", strconv.FormatInt(s.TotalSize, 10)},
		{"cache_hits", strconv.Itoa(s.CacheHits)},
		{"analyzed", strconv.Itoa(s.Analyzed)},
		{"failed_files", strconv.Itoa(len(s.FailedFiles))},
	}
	for _, status := range sortedKeys(s.ByStatus) {
		fields = append(fields, field{"status." + string(status), strconv.Itoa(s.ByStatus[status])})
	}
	for _, mimeType := range sortedKeys(s.ByMIME) {
		fields = append(fields, field{"mime." + mimeType, strconv.Itoa(s.ByMIME[mimeType].Files)})
	}
	return fields
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
