package encoder

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type jsonEncoder struct{}

func (jsonEncoder) Encode(w io.Writer, report domain.Report) error {
	res, err := report.Finish()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(newDocument(res, report.IncludeSummary)); err != nil {
		return zerr.Wrap(err, "failed to encode json")
	}
	return nil
}

type yamlEncoder struct{}

func (yamlEncoder) Encode(w io.Writer, report domain.Report) error {
	res, err := report.Finish()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(res, report.IncludeSummary)); err != nil {
		return zerr.Wrap(err, "failed to encode yaml")
	}
	if err := enc.Close(); err != nil {
		return zerr.Wrap(err, "failed to flush yaml")
	}
	return nil
}

type msgpackEncoder struct{}

func (msgpackEncoder) Encode(w io.Writer, report domain.Report) error {
	res, err := report.Finish()
	if err != nil {
		return err
	}
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(newDocument(res, report.IncludeSummary)); err != nil {
		return zerr.Wrap(err, "failed to encode msgpack")
	}
	return nil
}
