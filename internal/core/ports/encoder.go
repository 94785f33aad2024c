package ports

import (
	"io"

	"go.trai.ch/canopy/internal/core/domain"
)

// Encoder serializes a scan report.
type Encoder interface {
	Encode(w io.Writer, report domain.Report) error
}
