package analyzer

import (
	"bytes"
	"unicode/utf8"

	"go.trai.ch/zerr"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const (
	encodingBinary  = "binary"
	encodingUTF8    = "utf-8"
	encodingUTF16LE = "utf-16le"
	encodingUTF16BE = "utf-16be"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText converts data to UTF-8. A byte order mark wins, then valid
// UTF-8, then the fallback encoding. It returns the content and the name of
// the encoding it was decoded from.
func decodeText(data []byte, fallback string) (string, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
		if !utf8.Valid(data) {
			return "", encodingUTF8, zerr.New("invalid utf-8 content")
		}
		return string(data), encodingUTF8, nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), data, encodingUTF16LE)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.UseBOM), data, encodingUTF16BE)
	case utf8.Valid(data):
		return string(data), encodingUTF8, nil
	}

	enc, name, err := lookup(fallback)
	if err != nil {
		return "", fallback, err
	}
	if name == encodingUTF8 {
		return "", encodingUTF8, zerr.New("invalid utf-8 content")
	}
	return decodeWith(enc, data, name)
}

// sniffEncoding names the encoding of a file whose content is not captured,
// judging only by its leading bytes.
func sniffEncoding(head []byte, fallback string, binary bool) string {
	switch {
	case binary:
		return encodingBinary
	case bytes.HasPrefix(head, bomUTF8):
		return encodingUTF8
	case bytes.HasPrefix(head, bomUTF16LE):
		return encodingUTF16LE
	case bytes.HasPrefix(head, bomUTF16BE):
		return encodingUTF16BE
	case looksUTF8(head):
		return encodingUTF8
	}
	if _, name, err := lookup(fallback); err == nil {
		return name
	}
	return fallback
}

func lookup(label string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "unsupported encoding"), "encoding", label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	return enc, name, nil
}

func decodeWith(enc encoding.Encoding, data []byte, name string) (string, string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", name, zerr.With(zerr.Wrap(err, "failed to decode content"), "encoding", name)
	}
	return string(out), name, nil
}

// looksUTF8 is utf8.Valid tolerating a rune cut off at the end of a sample.
func looksUTF8(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) && !utf8.FullRune(b[len(b)-cut:]) {
			return true
		}
	}
	return false
}
