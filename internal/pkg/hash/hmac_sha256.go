package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 digest (hex-encoded).
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a new hasher with a secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the HMAC SHA-256 of str (hex-encoded).
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(str))
	return hexBytes(mac.Sum(nil)), nil
}

// Verify checks whether str matches the given digest.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	if len(hashed) != hex.EncodedLen(sha256.Size) {
		return false
	}
	expected, _ := s.Hash(str)
	return subtle.ConstantTimeCompare([]byte(hashed), expected) == 1
}
