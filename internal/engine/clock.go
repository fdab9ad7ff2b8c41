package engine

import "time"

// Clock abstracts time.Now() so "today" is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the local calendar date of c as midnight UTC.
func Today(c Clock) time.Time {
	return civilDay(c.Now())
}
