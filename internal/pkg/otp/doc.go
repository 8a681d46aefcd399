// Package otp issues and checks short-lived numeric passcodes.
//
// A Generator draws six-digit codes in [100000, 999999] from a secure random
// source, digests them with a deterministic hash.Hash, and stamps them with an
// expiry window taken from its clock. Only the digest is meant to be stored;
// the plain code goes to the delivery channel.
//
// The default digest is unsalted SHA-256, so a leaked digest can be reversed by
// enumerating the 900000 possible codes. Deployments that need more should
// configure hash.AlgorithmHMACSHA256 with a server-side secret.
//
// Expiry and one-time consumption are enforced by the owner of the stored
// digest, not by this package. Verify only compares digests; Expired is
// provided for callers.
package otp
