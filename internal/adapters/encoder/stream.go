package encoder

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/zerr"
)

// csvHeader lists the columns written for every file row.
var csvHeader = []string{
	"path", "type", "size", "modified", "permissions",
	"hash", "hash_algorithm", "mime_type", "encoding", "status", "error",
}

type ndjsonEncoder struct{}

// Encode writes one JSON object per entry as entries complete, then a
// trailing summary object when requested.
func (ndjsonEncoder) Encode(w io.Writer, report domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var encodeErr error
	for e := range report.Entries {
		if encodeErr = enc.Encode(newFileView(e)); encodeErr != nil {
			break
		}
	}
	res, err := report.Finish()
	if encodeErr != nil {
		return zerr.Wrap(encodeErr, "failed to encode ndjson")
	}
	if err != nil {
		return err
	}

	if report.IncludeSummary {
		if err := enc.Encode(struct {
			Summary *domain.Summary `json:"summary"`
		}{res.Summary}); err != nil {
			return zerr.Wrap(err, "failed to encode ndjson summary")
		}
	}
	return nil
}

type csvEncoder struct{}

// Encode writes one row per entry as entries complete. A requested summary
// follows after a blank row.
func (csvEncoder) Encode(w io.Writer, report domain.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return zerr.Wrap(err, "failed to write csv header")
	}

	var writeErr error
	for e := range report.Entries {
		if writeErr = cw.Write(csvRow(e)); writeErr != nil {
			break
		}
	}
	res, err := report.Finish()
	if writeErr != nil {
		return zerr.Wrap(writeErr, "failed to write csv row")
	}
	if err != nil {
		return err
	}

	if report.IncludeSummary {
		rows := [][]string{{}, {"summary"}}
		for _, f := range summaryFields(res.Summary) {
			rows = append(rows, []string{f.Key, f.Value})
		}
		if err := cw.WriteAll(rows); err != nil {
			return zerr.Wrap(err, "failed to write csv summary")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return zerr.Wrap(err, "failed to flush csv")
	}
	return nil
}

func csvRow(e *domain.FileEntry) []string {
	return []string{
		e.Path.Rel,
		typeFile,
		strconv.FormatInt(e.Size, 10),
		formatTime(e.ModTime),
		e.Mode.String(),
		e.Hash,
		hashAlgorithm(e),
		e.MIMEType,
		e.Encoding,
		string(e.Status),
		e.Error,
	}
}
