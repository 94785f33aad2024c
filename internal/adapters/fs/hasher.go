package fs

import (
	"crypto/md5"  //nolint:gosec // Content fingerprint, not a security boundary
	"crypto/sha1" //nolint:gosec // Content fingerprint, not a security boundary
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes content digests with any supported algorithm.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash digests everything read from r.
func (h *Hasher) Hash(r io.Reader, algo domain.HashAlgorithm) (string, error) {
	if !algo.Enabled() {
		return "", nil
	}

	if algo == domain.HashXXH64 {
		d := xxhash.New()
		if _, err := io.Copy(d, r); err != nil {
			return "", zerr.Wrap(err, "failed to hash content")
		}
		return fmt.Sprintf("%016x", d.Sum64()), nil
	}

	d, err := newDigest(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(d, r); err != nil {
		return "", zerr.Wrap(err, "failed to hash content")
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

func newDigest(algo domain.HashAlgorithm) (hash.Hash, error) {
	switch algo {
	case domain.HashMD5:
		return md5.New(), nil //nolint:gosec // See import
	case domain.HashSHA1:
		return sha1.New(), nil //nolint:gosec // See import
	case domain.HashSHA256:
		return sha256.New(), nil
	case domain.HashSHA512:
		return sha512.New(), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownHashAlgorithm, "failed to create digest"), "algorithm", string(algo))
	}
}
