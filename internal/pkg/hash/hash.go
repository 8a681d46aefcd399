package hash

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AlgorithmSHA256 selects the unsalted SHA-256 hex digest.
	AlgorithmSHA256 = "sha256"
	// AlgorithmHMACSHA256 selects the keyed HMAC-SHA256 hex digest.
	AlgorithmHMACSHA256 = "hmac-sha256"
	// AlgorithmBcrypt selects bcrypt.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects Argon2id.
	AlgorithmArgon2id = "argon2id"
)

// ErrUnknownAlgorithm indicates an unsupported hash algorithm name.
var ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")

// Hash turns a plaintext into its stored form and checks plaintexts against it.
type Hash interface {
	// Hash returns the stored representation of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the stored representation hashed.
	Verify(hashed, str string) bool
}

// Options carries the secrets and cost parameters used by NewFromAlgorithm.
type Options struct {
	// Secret keys the HMAC digest.
	Secret string
	// Pepper is appended before hashing with bcrypt/argon2id.
	Pepper string
	// BcryptCost is the bcrypt work factor.
	BcryptCost int
}

// NewFromAlgorithm builds a Hash by algorithm name.
func NewFromAlgorithm(algorithm string, opts Options) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case AlgorithmSHA256, "":
		return NewSHA256(), nil
	case AlgorithmHMACSHA256:
		if opts.Secret == "" {
			return nil, errors.New("hash: hmac-sha256 requires a secret")
		}
		return NewHMACSHA256(opts.Secret), nil
	case AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost, opts.Pepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(opts.Pepper), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
}
