package domain

import "iter"

// ScanStats counts pipeline activity for one run.
type ScanStats struct {
	CacheGets   int64
	CacheHits   int64
	CacheWrites int64
	Analyzed    int64
	Evicted     int64
}

// MIMEStat aggregates files sharing a MIME type.
type MIMEStat struct {
	Files int   `json:"files" yaml:"files" xml:"files,attr" msgpack:"files"`
	Size  int64 `json:"size" yaml:"size" xml:"size,attr" msgpack:"size"`
}

// Summary aggregates a completed scan.
type Summary struct {
	TotalFiles         int                   `json:"total_files" yaml:"total_files" msgpack:"total_files"`
	IncludedFiles      int                   `json:"included_files" yaml:"included_files" msgpack:"included_files"`
	ExcludedFiles      int                   `json:"excluded_files" yaml:"excluded_files" msgpack:"excluded_files"`
	ExcludedDirs       int                   `json:"excluded_dirs" yaml:"excluded_dirs" msgpack:"excluded_dirs"`
	ExcludedPercentage float64               `json:"excluded_percentage" yaml:"excluded_percentage" msgpack:"excluded_percentage"`
	TotalSize          int64                 `json:"total_size" yaml:"total_size" msgpack:"total_size"`
	ByStatus           map[ContentStatus]int `json:"by_status" yaml:"by_status" msgpack:"by_status"`
	ByMIME             map[string]MIMEStat   `json:"by_mime" yaml:"by_mime" msgpack:"by_mime"`
	CacheHits          int                   `json:"cache_hits" yaml:"cache_hits" msgpack:"cache_hits"`
	Analyzed           int                   `json:"analyzed" yaml:"analyzed" msgpack:"analyzed"`
	FailedFiles        []FileError           `json:"failed_files" yaml:"failed_files" msgpack:"failed_files"`
}

// ScanResult is everything a finished scan produced.
type ScanResult struct {
	Root    *DirectoryNode
	Errors  []FileError
	Stats   ScanStats
	Summary *Summary
}

// Report is what an encoder consumes. Entries is lazy and single-pass;
// Finish drains whatever Entries did not yield and returns the finished result.
type Report struct {
	Entries        iter.Seq[*FileEntry]
	Finish         func() (*ScanResult, error)
	IncludeSummary bool
}
