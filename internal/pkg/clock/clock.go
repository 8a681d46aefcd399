package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Frozen is a Clocker that always returns the same instant until moved.
//
// It is not safe for concurrent Advance calls; tests drive it from a single goroutine.
type Frozen struct {
	At time.Time
}

// NewFrozen returns a Frozen clock pinned at t.
func NewFrozen(t time.Time) *Frozen {
	return &Frozen{At: t}
}

// Now returns the pinned instant.
func (f *Frozen) Now() time.Time {
	return f.At
}

// Advance moves the pinned instant forward by d.
func (f *Frozen) Advance(d time.Duration) {
	f.At = f.At.Add(d)
}
