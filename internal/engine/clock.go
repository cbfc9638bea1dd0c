package engine

import "time"

// Clock abstracts time.Now so "today" can be pinned in tests and in the
// daemon's dry runs.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in the local zone.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant.
type FixedClock time.Time

// Now returns the pinned instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
