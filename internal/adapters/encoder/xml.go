package encoder

import (
	"encoding/xml"
	"io"
	"strconv"

	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/zerr"
)

// fileXML is the XML element written for a file entry.
type fileXML struct {
	Name            string  `xml:"name,attr"`
	Path            string  `xml:"path,attr"`
	Size            int64   `xml:"size,attr"`
	Modified        string  `xml:"modified,attr,omitempty"`
	Permissions     string  `xml:"permissions,attr"`
	Hash            string  `xml:"hash,attr,omitempty"`
	HashAlgorithm   string  `xml:"hash_algorithm,attr,omitempty"`
	MIMEType        string  `xml:"mime_type,attr,omitempty"`
	Encoding        string  `xml:"encoding,attr,omitempty"`
	Status          string  `xml:"status,attr"`
	ContentEncoding string  `xml:"content_encoding,attr,omitempty"`
	Content         *string `xml:"content,omitempty"`
	Error           string  `xml:"error,omitempty"`
}

type countXML struct {
	Name  string `xml:"name,attr"`
	Files int    `xml:"files,attr"`
	Size  int64  `xml:"size,attr,omitempty"`
}

type summaryXML struct {
	TotalFiles         int                `xml:"total_files"`
	IncludedFiles      int                `xml:"included_files"`
	ExcludedFiles      int                `xml:"excluded_files"`
	ExcludedDirs       int                `xml:"excluded_dirs"`
	ExcludedPercentage string             `xml:"excluded_percentage"`
	TotalSize          int64              `xml:"total_size"`
	CacheHits          int                `xml:"cache_hits"`
	Analyzed           int                `xml:"analyzed"`
	ByStatus           []countXML         `xml:"by_status>status"`
	ByMIME             []countXML         `xml:"by_mime>mime"`
	FailedFiles        []domain.FileError `xml:"failed_files>file"`
}

type xmlEncoder struct{}

// Encode writes the tree under a <repository> root. Element order follows
// the tree order of the scan.
func (xmlEncoder) Encode(w io.Writer, report domain.Report) error {
	res, err := report.Finish()
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return zerr.Wrap(err, "failed to write xml header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: "repository"}}
	if err := enc.EncodeToken(root); err != nil {
		return zerr.Wrap(err, "failed to encode xml")
	}
	if err := encodeDirXML(enc, res.Root); err != nil {
		return zerr.Wrap(err, "failed to encode xml")
	}
	if report.IncludeSummary && res.Summary != nil {
		start := xml.StartElement{Name: xml.Name{Local: "summary"}}
		if err := enc.EncodeElement(newSummaryXML(res.Summary), start); err != nil {
			return zerr.Wrap(err, "failed to encode xml summary")
		}
	}
	if len(res.Errors) > 0 {
		start := xml.StartElement{Name: xml.Name{Local: "errors"}}
		wrapper := struct {
			Errors []domain.FileError `xml:"error"`
		}{res.Errors}
		if err := enc.EncodeElement(wrapper, start); err != nil {
			return zerr.Wrap(err, "failed to encode xml errors")
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return zerr.Wrap(err, "failed to encode xml")
	}
	if err := enc.Close(); err != nil {
		return zerr.Wrap(err, "failed to flush xml")
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func encodeDirXML(enc *xml.Encoder, d *domain.DirectoryNode) error {
	start := xml.StartElement{
		Name: xml.Name{Local: typeDirectory},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "name"}, Value: d.Name},
			{Name: xml.Name{Local: "path"}, Value: d.Path.Rel},
		},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range d.Children {
		switch n := child.(type) {
		case *domain.DirectoryNode:
			if err := encodeDirXML(enc, n); err != nil {
				return err
			}
		case *domain.FileEntry:
			if err := enc.EncodeElement(newFileXML(n), xml.StartElement{Name: xml.Name{Local: typeFile}}); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

func newFileXML(e *domain.FileEntry) fileXML {
	return fileXML{
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

func newSummaryXML(s *domain.Summary) summaryXML {
	out := summaryXML{
		TotalFiles:         s.TotalFiles,
		IncludedFiles:      s.IncludedFiles,
		ExcludedFiles:      s.ExcludedFiles,
		ExcludedDirs:       s.ExcludedDirs,
		ExcludedPercentage: strconv.FormatFloat(s.ExcludedPercentage, 'f', 2, 64),
		TotalSize:          s.TotalSize,
		CacheHits:          s.CacheHits,
		Analyzed:           s.Analyzed,
		FailedFiles:        s.FailedFiles,
	}
	for _, status := range sortedKeys(s.ByStatus) {
		out.ByStatus = append(out.ByStatus, countXML{Name: string(status), Files: s.ByStatus[status]})
	}
	for _, mimeType := range sortedKeys(s.ByMIME) {
		stat := s.ByMIME[mimeType]
		out.ByMIME = append(out.ByMIME, countXML{Name: mimeType, Files: stat.Files, Size: stat.Size})
	}
	return out
}
