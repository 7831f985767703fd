package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpand_WidensToFullWeeks(t *testing.T) {
	// Jan 2026: Jan 1 is a Thursday, Jan 31 is a Saturday.
	exp, err := Expand(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	assert.Equal(t, time.Sunday, exp.Start.Weekday())
	assert.Equal(t, time.Saturday, exp.End.Weekday())
	assert.True(t, !exp.Start.After(exp.RequestedStart))
	assert.True(t, !exp.End.Before(exp.RequestedEnd))

	for _, w := range exp.Weeks {
		assert.LessOrEqual(t, len(w.Dates), 7)
		assert.Equal(t, time.Sunday, w.Dates[0].Weekday())
	}
}

func TestExpand_RejectsEndBeforeStart(t *testing.T) {
	_, err := Expand(date(2026, 2, 1), date(2026, 1, 1))
	assert.Error(t, err)
}

func TestWeek_Boundary(t *testing.T) {
	exp, err := Expand(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	firstWeek := exp.Weeks[0]
	assert.True(t, firstWeek.Boundary(exp.RequestedStart, exp.RequestedEnd))

	var fullyInside *Week
	for i := range exp.Weeks {
		if !exp.Weeks[i].Boundary(exp.RequestedStart, exp.RequestedEnd) {
			fullyInside = &exp.Weeks[i]
			break
		}
	}
	require.NotNil(t, fullyInside, "expected at least one non-boundary week in a full month")
}

func TestExpand_AlreadyAlignedWindow(t *testing.T) {
	// Jan 4, 2026 is a Sunday; Jan 31 is a Saturday -- but let's pick an
	// exactly-aligned window: Sunday Jan 4 through Saturday Jan 10.
	exp, err := Expand(date(2026, 1, 4), date(2026, 1, 10))
	require.NoError(t, err)

	assert.Equal(t, date(2026, 1, 4), exp.Start)
	assert.Equal(t, date(2026, 1, 10), exp.End)
	assert.Len(t, exp.Weeks, 1)
	assert.Len(t, exp.Weeks[0].Dates, 7)
}
