// Package hash provides helpers for hashing and verifying secrets.
//
// Two families live here. SHA256 and HMACSHA256 are deterministic hex digests
// used for short-lived one-time passcodes: the same code always maps to the same
// digest so it can be re-hashed and compared. Bcrypt and Argon2id are salted,
// slow password hashers used for account passwords and temporary passwords.
package hash
