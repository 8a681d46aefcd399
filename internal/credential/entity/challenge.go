package entity

import "time"

// Challenge is the pending OTP for one identity. Only the digest of the code
// is kept; a new challenge replaces the previous one.
type Challenge struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
}
