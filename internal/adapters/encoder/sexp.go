package encoder

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/zerr"
)

var sexpEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

type sexpEncoder struct{}

// Encode renders the tree as nested S-expressions:
//
//	(repository
//	  (directory "name" (path ".")
//	    (file "a.txt" (path "a.txt") (size 5) ...)))
func (sexpEncoder) Encode(w io.Writer, report domain.Report) error {
	res, err := report.Finish()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "(repository")
	writeDirSexp(bw, res.Root, 1)

	if report.IncludeSummary && res.Summary != nil {
		fmt.Fprint(bw, "\n  (summary")
		for _, f := range summaryFields(res.Summary) {
			fmt.Fprintf(bw, "\n    (%s %s)", f.Key, quoteSexp(f.Value))
		}
		fmt.Fprint(bw, ")")
	}
	if len(res.Errors) > 0 {
		fmt.Fprint(bw, "\n  (errors")
		for _, fe := range res.Errors {
			fmt.Fprintf(bw, "\n    (error %s %s)", quoteSexp(fe.Path), quoteSexp(fe.Message))
		}
		fmt.Fprint(bw, ")")
	}
	fmt.Fprintln(bw, ")")

	if err := bw.Flush(); err != nil {
		return zerr.Wrap(err, "failed to write sexp")
	}
	return nil
}

func writeDirSexp(w io.Writer, d *domain.DirectoryNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "\n%s(directory %s (path %s)", indent, quoteSexp(d.Name), quoteSexp(d.Path.Rel))
	for _, child := range d.Children {
		switch n := child.(type) {
		case *domain.DirectoryNode:
			writeDirSexp(w, n, depth+1)
		case *domain.FileEntry:
			writeFileSexp(w, n, depth+1)
		}
	}
	fmt.Fprint(w, ")")
}

func writeFileSexp(w io.Writer, e *domain.FileEntry, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "\n%s(file %s (path %s) (size %d) (permissions %s) (status %s)",
		indent, quoteSexp(e.Name), quoteSexp(e.Path.Rel), e.Size, quoteSexp(e.Mode.String()), e.Status)
	optional := []field{
		{"modified", formatTime(e.ModTime)},
		{"hash", e.Hash},
		{"hash_algorithm", hashAlgorithm(e)},
		{"mime_type", e.MIMEType},
		{"encoding", e.Encoding},
		{"content_encoding", e.ContentEncoding},
		{"error", e.Error},
	}
	for _, f := range optional {
		if f.Value != "" {
			fmt.Fprintf(w, " (%s %s)", f.Key, quoteSexp(f.Value))
		}
	}
	if e.Content != nil {
		fmt.Fprintf(w, " (content %s)", quoteSexp(*e.Content))
	}
	fmt.Fprint(w, ")")
}

func quoteSexp(s string) string {
	return `"` + sexpEscaper.Replace(s) + `"`
}
