package clock

import "time"

// Clock supplies the current instant and the current business date.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// System reads the wall clock. Today is evaluated in Location.
type System struct {
	Location *time.Location
}

// NewSystem returns a wall clock for the given business time zone.
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.UTC
	}
	return System{Location: loc}
}

// Now returns the current instant in UTC.
func (s System) Now() time.Time {
	return time.Now().UTC()
}

// Today returns the current calendar date in the business time zone.
func (s System) Today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return Date(time.Now().In(loc))
}

// Fixed always reports the same instant.
type Fixed struct {
	At       time.Time
	Location *time.Location
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return f.At.UTC()
}

// Today returns the fixed instant's calendar date.
func (f Fixed) Today() time.Time {
	if f.Location != nil {
		return Date(f.At.In(f.Location))
	}
	return Date(f.At)
}

// Date strips the time of day. Calendar dates are carried as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
