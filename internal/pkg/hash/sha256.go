package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SHA256 implements Hash with a plain, unsalted SHA-256 digest encoded as lower-case hex.
//
// Identical input always yields the identical 64-character digest. Short secrets
// hashed this way are open to precomputation; use HMACSHA256 when a server-side
// secret is available.
type SHA256 struct{}

// NewSHA256 returns an unsalted SHA-256 hasher.
func NewSHA256() *SHA256 {
	return &SHA256{}
}

// Hash returns the hex-encoded SHA-256 digest of str.
func (*SHA256) Hash(str string) ([]byte, error) {
	sum := sha256.Sum256([]byte(str))
	return hexBytes(sum[:]), nil
}

// Verify re-hashes str and compares it with hashed in constant time.
func (s *SHA256) Verify(hashed, str string) bool {
	if len(hashed) != hex.EncodedLen(sha256.Size) {
		return false
	}
	expected, _ := s.Hash(str)
	return subtle.ConstantTimeCompare([]byte(hashed), expected) == 1
}

func hexBytes(sum []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
