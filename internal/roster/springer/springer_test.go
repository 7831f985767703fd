package springer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/roster/springer"
	"github.com/rosterforge/engine/pkg/rostertest"
)

func neverAbsent(int64, time.Time) bool { return false }

func TestReplace_FindsEligibleSameTeamCandidate(t *testing.T) {
	c := rostertest.Catalog()
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	roster := springer.NewRoster(c, []catalog.ShiftAssignment{
		{EmployeeID: 1, ShiftTypeID: rostertest.ShiftTypeF, Date: date},
	})
	absence := catalog.Absence{ID: 1, EmployeeID: 1, Code: catalog.AbsenceSick, Start: date, End: date}

	result := springer.Replace(roster, absence, neverAbsent, nil)

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]
	assert.True(t, outcome.Replaced)
	assert.Equal(t, catalog.ShiftEarly, outcome.ShiftCode)
	assert.NotEqual(t, int64(1), outcome.ReplacementID)

	replacement, ok := roster.Assignment(outcome.ReplacementID, date)
	require.True(t, ok)
	assert.Equal(t, rostertest.ShiftTypeF, replacement.ShiftTypeID)
	assert.True(t, replacement.IsSpringerAssignment)

	_, stillThere := roster.Assignment(1, date)
	assert.False(t, stillThere)
}

func TestReplace_NoReplacementFoundWhenEntireTeamIsBusy(t *testing.T) {
	c := rostertest.Catalog()
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	assignments := []catalog.ShiftAssignment{
		{EmployeeID: 1, ShiftTypeID: rostertest.ShiftTypeF, Date: date},
		{EmployeeID: 2, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
		{EmployeeID: 3, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
		{EmployeeID: 4, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
		{EmployeeID: 5, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
		{EmployeeID: 6, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
		{EmployeeID: 7, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
		{EmployeeID: 8, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
		{EmployeeID: 9, ShiftTypeID: rostertest.ShiftTypeN, Date: date},
	}
	roster := springer.NewRoster(c, assignments)
	absence := catalog.Absence{ID: 2, EmployeeID: 1, Code: catalog.AbsenceSick, Start: date, End: date}

	result := springer.Replace(roster, absence, neverAbsent, nil)

	require.Len(t, result.Outcomes, 1)
	assert.False(t, result.Outcomes[0].Replaced)
	assert.NotEmpty(t, result.Outcomes[0].Reason)
}

func TestReplace_EnqueuesNotificationsWhenQueueProvided(t *testing.T) {
	c := rostertest.Catalog()
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	roster := springer.NewRoster(c, []catalog.ShiftAssignment{
		{EmployeeID: 1, ShiftTypeID: rostertest.ShiftTypeF, Date: date},
	})
	absence := catalog.Absence{ID: 3, EmployeeID: 1, Code: catalog.AbsenceSick, Start: date, End: date}
	queue := notify.New()

	springer.Replace(roster, absence, neverAbsent, queue)

	require.NotEmpty(t, queue.Records())
	foundAssigned := false
	foundAfterSolve := false
	for _, r := range queue.Records() {
		switch r.Type {
		case "roster.springer.assigned":
			foundAssigned = true
		case "roster.absence.after_solve":
			foundAfterSolve = true
		}
	}
	assert.True(t, foundAssigned)
	assert.True(t, foundAfterSolve)
}

func TestReplace_LeavesUnaffectedAssignmentsAlone(t *testing.T) {
	c := rostertest.Catalog()
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	other := date.AddDate(0, 0, 10)
	roster := springer.NewRoster(c, []catalog.ShiftAssignment{
		{EmployeeID: 1, ShiftTypeID: rostertest.ShiftTypeF, Date: date},
		{EmployeeID: 1, ShiftTypeID: rostertest.ShiftTypeF, Date: other},
	})
	absence := catalog.Absence{ID: 4, EmployeeID: 1, Code: catalog.AbsenceSick, Start: date, End: date}

	springer.Replace(roster, absence, neverAbsent, nil)

	untouched, ok := roster.Assignment(1, other)
	require.True(t, ok)
	assert.Equal(t, rostertest.ShiftTypeF, untouched.ShiftTypeID)
}
