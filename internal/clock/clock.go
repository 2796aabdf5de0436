// Package clock provides the time source every temporal check reads from.
package clock

import "time"

type Clock interface {
	// Now returns the current moment in the application time zone.
	Now() time.Time
}

type local struct {
	loc *time.Location
}

func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return local{loc: loc}
}

func (l local) Now() time.Time {
	return time.Now().In(l.loc)
}

type fixed struct {
	t time.Time
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return fixed{t: t}
}

func (f fixed) Now() time.Time {
	return f.t
}

// Today is midnight of the current day in the clock's location.
func Today(c Clock) time.Time {
	now := c.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
