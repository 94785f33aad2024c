// Package analyzer classifies files and captures their content.
package analyzer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	iofs "io/fs"
	"os"

	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
)

// sniffLen is how much of a file is read before deciding how to treat it.
const sniffLen = 3072

var _ ports.Analyzer = (*Analyzer)(nil)

// Analyzer implements ports.Analyzer.
type Analyzer struct {
	hasher ports.Hasher
}

// New creates an Analyzer hashing with hasher.
func New(hasher ports.Hasher) *Analyzer {
	return &Analyzer{hasher: hasher}
}

// Analyze builds the entry for one file. Hashing always covers the raw bytes;
// content is attached only for text within the size limit, or for binary
// files when rc.IncludeBinary is set.
func (a *Analyzer) Analyze(p domain.Path, info iofs.FileInfo, rc *domain.RunContext) *domain.FileEntry {
	entry := &domain.FileEntry{
		Path:          p,
		Name:          p.Name(),
		Size:          info.Size(),
		ModTime:       info.ModTime(),
		Mode:          info.Mode(),
		HashAlgorithm: rc.HashAlgorithm,
	}

	f, err := os.Open(p.Abs)
	if err != nil {
		failIO(entry, zerr.Wrap(err, "failed to open file"))
		return entry
	}
	defer f.Close() //nolint:errcheck // Read-only file

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		failIO(entry, zerr.Wrap(err, "failed to read file"))
		return entry
	}
	head = head[:n]

	mimeType, text := classify(entry.Name, head)
	entry.MIMEType = mimeType
	binary := !text || rc.IsImage(entry.Name)
	withinLimit := info.Size() <= rc.MaxContentSize

	if !withinLimit || (binary && !rc.IncludeBinary) {
		a.hashStream(entry, io.MultiReader(bytes.NewReader(head), f), rc.HashAlgorithm)
		switch {
		case entry.Failed():
		case binary && !rc.IncludeBinary:
			entry.Encoding = encodingBinary
			entry.Status = domain.StatusBinary
		default:
			entry.Encoding = sniffEncoding(head, rc.DefaultEncoding, binary)
			entry.Status = domain.StatusTruncated
		}
		return entry
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		failIO(entry, zerr.Wrap(err, "failed to read file"))
		return entry
	}
	data := append(head, rest...)

	a.hashStream(entry, bytes.NewReader(data), rc.HashAlgorithm)
	if entry.Failed() {
		return entry
	}

	if binary {
		content := base64.StdEncoding.EncodeToString(data)
		entry.Content = &content
		entry.ContentEncoding = "base64"
		entry.Encoding = encodingBinary
		entry.Status = domain.StatusCaptured
		return entry
	}

	content, encoding, err := decodeText(data, rc.DefaultEncoding)
	entry.Encoding = encoding
	if err != nil {
		fail(entry, err)
		return entry
	}
	entry.Content = &content
	entry.Status = domain.StatusCaptured
	return entry
}

func (a *Analyzer) hashStream(entry *domain.FileEntry, r io.Reader, algo domain.HashAlgorithm) {
	sum, err := a.hasher.Hash(r, algo)
	if err != nil {
		failIO(entry, err)
		return
	}
	entry.Hash = sum
}

// failIO records an error a later run may not repeat.
func failIO(entry *domain.FileEntry, err error) {
	fail(entry, err)
	entry.Transient = true
}

func fail(entry *domain.FileEntry, err error) {
	entry.Status = domain.StatusError
	entry.Error = err.Error()
	entry.Content = nil
}
