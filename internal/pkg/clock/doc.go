// Package clock provides a tiny time abstraction.
//
// Credential expiry is always computed from a Clocker so that issuance and
// verification can be tested against a deterministic instant (see Frozen).
package clock
