// Package clock supplies "today" as a calendar date for status derivation.
package clock

import "time"

type Clock interface {
	// Today returns midnight UTC of the current calendar day in the clock's location.
	Today() time.Time
}

type systemClock struct {
	loc *time.Location
}

func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Today() time.Time {
	return DateOf(time.Now().In(c.loc))
}

// Fixed always reports the same day. Used by tests and backfills.
type Fixed time.Time

func (f Fixed) Today() time.Time { return DateOf(time.Time(f)) }

// DateOf drops the time of day and location, keeping the wall-clock date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
