// Package encoder serializes scan reports into the supported output formats.
package encoder

import (
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
)

// For returns the encoder for format.
func For(format domain.Format) (ports.Encoder, error) {
	switch format {
	case domain.FormatJSON:
		return jsonEncoder{}, nil
	case domain.FormatNDJSON:
		return ndjsonEncoder{}, nil
	case domain.FormatYAML:
		return yamlEncoder{}, nil
	case domain.FormatXML:
		return xmlEncoder{}, nil
	case domain.FormatCSV:
		return csvEncoder{}, nil
	case domain.FormatDOT:
		return dotEncoder{}, nil
	case domain.FormatMsgPack:
		return msgpackEncoder{}, nil
	case domain.FormatSexp:
		return sexpEncoder{}, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownFormat, "no encoder for format"), "format", string(format))
	}
}
