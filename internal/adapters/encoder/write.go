package encoder

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
)

// Stdout is the output path that selects standard output.
const Stdout = "-"

// Output is a report destination reserved before a scan starts, so an
// unusable path fails the run before any file is analyzed.
//
// A file output is written to a temporary file in the same directory and
// renamed into place while holding "<path>.lock". Readers never observe a
// partial file and a failed encode leaves any previous output untouched.
type Output struct {
	path   string
	stdout io.Writer
	lock   *flock.Flock
	tmp    *os.File
}

// Open reserves path for a report. When path is Stdout the report goes to
// stdout and nothing is created.
func Open(path string, stdout io.Writer) (*Output, error) {
	if path == Stdout {
		return &Output{path: path, stdout: stdout}, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", path)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", path)
	}

	tmp, err := os.CreateTemp(dir, ".canopy-*.tmp")
	if err != nil {
		unlock(lock)
		return nil, zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", path)
	}
	return &Output{path: path, lock: lock, tmp: tmp}, nil
}

// Commit encodes report and moves it into place. The Output is released
// whether or not Commit succeeds.
func (o *Output) Commit(enc ports.Encoder, report domain.Report) (err error) {
	if o.tmp == nil {
		return enc.Encode(o.stdout, report)
	}
	defer o.Abort()

	tmpPath := o.tmp.Name()
	if err = enc.Encode(o.tmp, report); err != nil {
		return err
	}
	if err = o.tmp.Sync(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to sync output"), "path", o.path)
	}
	if err = o.tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close output"), "path", o.path)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // Output is meant to be readable
		return zerr.With(zerr.Wrap(err, "failed to set output permissions"), "path", o.path)
	}
	if err = os.Rename(tmpPath, o.path); err != nil {
		return zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", o.path)
	}
	return nil
}

// Abort discards the temporary file and releases the lock. It is safe to
// call more than once and after Commit.
func (o *Output) Abort() {
	if o.tmp != nil {
		_ = o.tmp.Close()
		_ = os.Remove(o.tmp.Name())
		o.tmp = nil
	}
	if o.lock != nil {
		unlock(o.lock)
		o.lock = nil
	}
}

func unlock(lock *flock.Flock) {
	_ = lock.Unlock()
	_ = os.Remove(lock.Path())
}
