package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// HashAlgorithm names the digest computed over a file's raw bytes.
type HashAlgorithm string

const (
	// HashNone disables hashing.
	HashNone HashAlgorithm = "none"
	// HashMD5 is the default algorithm.
	HashMD5    HashAlgorithm = "md5"
	HashSHA1   HashAlgorithm = "sha1"
	HashSHA256 HashAlgorithm = "sha256"
	HashSHA512 HashAlgorithm = "sha512"
	// HashXXH64 is a fast non-cryptographic digest.
	HashXXH64 HashAlgorithm = "xxh64"
)

// HashAlgorithms lists every supported algorithm.
func HashAlgorithms() []HashAlgorithm {
	return []HashAlgorithm{HashNone, HashMD5, HashSHA1, HashSHA256, HashSHA512, HashXXH64}
}

// ParseHashAlgorithm resolves a case-insensitive algorithm name.
// The empty string resolves to HashNone.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return HashNone, nil
	}
	for _, algo := range HashAlgorithms() {
		if string(algo) == name {
			return algo, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrUnknownHashAlgorithm, "failed to parse hash algorithm"), "algorithm", name)
}

// Enabled reports whether the algorithm produces a digest.
func (a HashAlgorithm) Enabled() bool {
	return a != HashNone && a != ""
}

// TraversalOrder selects depth-first or breadth-first traversal.
type TraversalOrder string

const (
	// OrderDFS visits a directory's subtree before its siblings.
	OrderDFS TraversalOrder = "dfs"
	// OrderBFS visits directories level by level.
	OrderBFS TraversalOrder = "bfs"
)

// ParseTraversalOrder resolves a traversal order name. The empty string resolves to OrderDFS.
func ParseTraversalOrder(name string) (TraversalOrder, error) {
	switch TraversalOrder(strings.ToLower(strings.TrimSpace(name))) {
	case "", OrderDFS:
		return OrderDFS, nil
	case OrderBFS:
		return OrderBFS, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrUnknownTraversalOrder, "failed to parse traversal order"), "order", name)
	}
}
