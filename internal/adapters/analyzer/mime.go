package analyzer

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const nulScanLen = 1024

// classify sniffs the MIME type of a file from its leading bytes and reports
// whether it should be treated as text. Types the sniffer cannot place fall
// back to the file extension.
func classify(name string, head []byte) (string, bool) {
	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return detected.String(), true
		}
	}

	if detected.Is("application/octet-stream") {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			prefix := head[:min(len(head), nulScanLen)]
			return byExt, strings.HasPrefix(byExt, "text/") && bytes.IndexByte(prefix, 0) < 0
		}
	}

	return detected.String(), false
}
