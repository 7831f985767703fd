package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/store"
	"github.com/rosterforge/engine/internal/store/memstore"
	"github.com/rosterforge/engine/pkg/rostertest"
)

func TestStore_LoadAbsencesFiltersByWindowOverlap(t *testing.T) {
	absences := []catalog.Absence{
		{ID: 1, EmployeeID: 1, Code: catalog.AbsenceSick, Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{ID: 2, EmployeeID: 2, Code: catalog.AbsenceVacation, Start: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)},
	}
	s := memstore.New(rostertest.Catalog(), absences, locks.New(), nil)

	got, err := s.LoadAbsences(context.Background(), store.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestStore_LoadPriorAssignmentsAppliesLookbackCutoff(t *testing.T) {
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	prior := []catalog.ShiftAssignment{
		{EmployeeID: 1, Date: before.AddDate(0, 0, -5)},  // inside a 10-day lookback
		{EmployeeID: 1, Date: before.AddDate(0, 0, -20)}, // outside
		{EmployeeID: 1, Date: before},                    // not strictly before cutoff target
	}
	s := memstore.New(rostertest.Catalog(), nil, locks.New(), prior)

	got, err := s.LoadPriorAssignments(context.Background(), before, 10)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, before.AddDate(0, 0, -5), got[0].Date)
}

func TestStore_SaveRosterAndNotificationsAccumulate(t *testing.T) {
	s := memstore.New(rostertest.Catalog(), nil, locks.New(), nil)

	require.NoError(t, s.SaveRoster(context.Background(), &solver.Result{Status: solver.StatusOptimal}))
	require.NoError(t, s.SaveRoster(context.Background(), &solver.Result{Status: solver.StatusFeasible}))
	require.NoError(t, s.SaveNotifications(context.Background(), []notify.Record{{Type: "x"}}))

	require.Len(t, s.SavedRosters, 2)
	assert.Equal(t, solver.StatusFeasible, s.SavedRosters[1].Status)
	require.Len(t, s.SavedNotifications, 1)
}

func TestStore_LoadCatalogReturnsSeededCatalog(t *testing.T) {
	c := rostertest.Catalog()
	s := memstore.New(c, nil, locks.New(), nil)

	got, err := s.LoadCatalog(context.Background())

	require.NoError(t, err)
	assert.Same(t, c, got)
}
