// Package paycycle computes salary-period boundaries.
//
// A pay-cycle runs from the day after one payday to the next payday, both days
// included. Payday is the 10th of the month, moved back to Friday when the
// 10th falls on a weekend.
package paycycle

import (
	"time"
)

const paydayOfMonth = 10

// Cycle is an inclusive interval: Start at 00:00:00 on its first day, End at
// 23:59:59 on its last day.
type Cycle struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the cycle at second granularity.
func (c Cycle) Contains(t time.Time) bool {
	t = t.Truncate(time.Second)
	return !t.Before(c.Start) && !t.After(c.End)
}

// Payday returns midnight of the payday for the given month in loc.
func Payday(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month, paydayOfMonth, 0, 0, 0, 0, loc)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	}
	return d
}

// Current returns the cycle that contains now. The payday itself belongs to
// the cycle it closes. now must already be in the reporting timezone.
func Current(now time.Time) Cycle {
	loc := now.Location()
	thisPayday := Payday(now.Year(), now.Month(), loc)
	today := startOfDay(now)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	if !today.After(thisPayday) {
		last := firstOfMonth.AddDate(0, 0, -1)
		prevPayday := Payday(last.Year(), last.Month(), loc)
		return Cycle{
			Start: prevPayday.AddDate(0, 0, 1),
			End:   endOfDay(thisPayday),
		}
	}

	next := firstOfMonth.AddDate(0, 0, 32)
	next = time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, loc)
	return Cycle{
		Start: thisPayday.AddDate(0, 0, 1),
		End:   endOfDay(Payday(next.Year(), next.Month(), loc)),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// Calculator binds the process-wide timezone and clock.
type Calculator struct {
	loc *time.Location
	now func() time.Time
}

// NewCalculator binds loc and the clock. Nil values fall back to time.Local
// and time.Now.
func NewCalculator(loc *time.Location, now func() time.Time) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Calculator{loc: loc, now: now}
}

// Now returns the clock reading in the configured timezone.
func (c *Calculator) Now() time.Time {
	return c.now().In(c.loc)
}

// Current returns the active cycle according to the clock.
func (c *Calculator) Current() Cycle {
	return Current(c.Now())
}

// Location returns the reporting timezone.
func (c *Calculator) Location() *time.Location {
	return c.loc
}
