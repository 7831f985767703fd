// Package window expands an operator-requested planning window to whole
// rotation weeks (spec.md §4.1).
package window

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/rosterforge/engine/internal/rosterr"
)

// Week is one Sunday-through-Saturday span of the extended window. Dates
// holds up to seven consecutive calendar dates; a week can be short only
// at the very edges of a Go time.Time horizon, which never happens in
// practice since Expand always emits complete weeks.
type Week struct {
	Index int
	Dates []time.Time
}

// Boundary reports whether any date in the week falls outside the
// originally requested [start,end] range (spec.md §4.1: "boundary weeks
// are re-planned").
func (w Week) Boundary(requestedStart, requestedEnd time.Time) bool {
	for _, d := range w.Dates {
		if d.Before(requestedStart) || d.After(requestedEnd) {
			return true
		}
	}
	return false
}

// Expanded holds the result of widening a requested window to full weeks.
type Expanded struct {
	RequestedStart time.Time
	RequestedEnd   time.Time
	Start          time.Time // widened backward to the nearest Sunday
	End            time.Time // widened forward to the nearest Saturday
	Weeks          []Week
	Dates          []time.Time // flattened, ordered list of all dates in [Start,End]
}

// Expand widens [start,end] to whole Sunday→Saturday weeks and returns the
// ordered week partition, generated via a weekly RFC 5545 recurrence
// rooted at the widened start rather than hand-rolled date arithmetic.
func Expand(start, end time.Time) (*Expanded, error) {
	start = truncateDay(start)
	end = truncateDay(end)

	if end.Before(start) {
		return nil, rosterr.Input(fmt.Sprintf("planning window end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02")))
	}

	widenedStart := backToSunday(start)
	widenedEnd := forwardToSaturday(end)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Interval: 1,
		Dtstart: widenedStart,
		Until:   widenedEnd,
	})
	if err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "failed to build week-boundary recurrence")
	}

	sundays := rule.All()

	weeks := make([]Week, 0, len(sundays))
	dates := make([]time.Time, 0, len(sundays)*7)
	for i, sunday := range sundays {
		week := Week{Index: i}
		for d := 0; d < 7; d++ {
			date := sunday.AddDate(0, 0, d)
			if date.After(widenedEnd) {
				break
			}
			week.Dates = append(week.Dates, date)
			dates = append(dates, date)
		}
		weeks = append(weeks, week)
	}

	return &Expanded{
		RequestedStart: start,
		RequestedEnd:   end,
		Start:          widenedStart,
		End:            widenedEnd,
		Weeks:          weeks,
		Dates:          dates,
	}, nil
}

// WeekIndexOf returns the index of the week containing date, for callers
// consolidating locks before a Builder exists (the Model Builder keeps its
// own copy of this lookup once built).
func (e *Expanded) WeekIndexOf(date time.Time) (int, bool) {
	date = truncateDay(date)
	for _, w := range e.Weeks {
		for _, d := range w.Dates {
			if d.Equal(date) {
				return w.Index, true
			}
		}
	}
	return 0, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// backToSunday widens d backward to the nearest Sunday (time.Sunday == 0,
// the first day in the engine's Sunday-first ordering; index 6 names the
// same day in a Monday-first numbering).
func backToSunday(d time.Time) time.Time {
	offset := int(d.Weekday())
	return d.AddDate(0, 0, -offset)
}

// forwardToSaturday widens d forward to the nearest Saturday.
func forwardToSaturday(d time.Time) time.Time {
	offset := int(time.Saturday) - int(d.Weekday())
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, offset)
}
