package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Format selects the output encoding of a scan.
type Format string

const (
	FormatJSON    Format = "json"
	FormatNDJSON  Format = "ndjson"
	FormatYAML    Format = "yaml"
	FormatXML     Format = "xml"
	FormatCSV     Format = "csv"
	FormatDOT     Format = "dot"
	FormatMsgPack Format = "msgpack"
	FormatSexp    Format = "sexp"
)

// Formats lists every supported output format.
func Formats() []Format {
	return []Format{
		FormatJSON, FormatNDJSON, FormatYAML, FormatXML,
		FormatCSV, FormatDOT, FormatMsgPack, FormatSexp,
	}
}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "yml" {
		return FormatYAML, nil
	}
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrUnknownFormat, "failed to parse output format"), "format", name)
}

// Streaming reports whether the format is written entry by entry
// instead of from the finished tree.
func (f Format) Streaming() bool {
	return f == FormatNDJSON || f == FormatCSV
}

// DefaultOutputPath is the file name used when no output path is given.
func (f Format) DefaultOutputPath() string {
	return "repository_structure." + string(f)
}
