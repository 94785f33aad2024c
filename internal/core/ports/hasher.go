package ports

import (
	"io"

	"go.trai.ch/canopy/internal/core/domain"
)

// Hasher defines the interface for computing content digests.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Hash digests everything read from r. HashNone yields an empty digest.
	Hash(r io.Reader, algo domain.HashAlgorithm) (string, error)
}
