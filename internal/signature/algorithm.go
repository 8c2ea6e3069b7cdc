package signature

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"sort"
)

// Supported HMAC algorithm identifiers.
const (
	AlgorithmHMACSHA1   = "hmac-sha1"
	AlgorithmHMACSHA256 = "hmac-sha256"
	AlgorithmHMACSHA512 = "hmac-sha512"
)

var algorithms = map[string]func() hash.Hash{
	AlgorithmHMACSHA1:   sha1.New,
	AlgorithmHMACSHA256: sha256.New,
	AlgorithmHMACSHA512: sha512.New,
}

// hashForAlgorithm resolves an algorithm identifier to its hash constructor.
func hashForAlgorithm(id string) (func() hash.Hash, error) {
	h, ok := algorithms[id]
	if !ok {
		return nil, &UnsupportedAlgorithmError{Algorithm: id}
	}
	return h, nil
}

// AlgorithmSupported reports whether id names a supported algorithm.
func AlgorithmSupported(id string) bool {
	_, ok := algorithms[id]
	return ok
}

// SupportedAlgorithms returns the supported algorithm identifiers, sorted.
func SupportedAlgorithms() []string {
	ids := make([]string, 0, len(algorithms))
	for id := range algorithms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
