package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/model"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/roster/validate"
	"github.com/rosterforge/engine/internal/roster/window"
	"github.com/rosterforge/engine/pkg/rostertest"
)

// TestBuild_OneWeekWindowSolvesToAFullyValidRoster exercises the whole
// pipeline catalog -> window -> model.Build -> solver.Solve -> validate.Run
// end to end over one rotation week, the same path cmd/roster-planner's
// plan subcommand drives. Grounded on original_source's test_basic_month,
// scaled down to one week to keep the solve fast.
func TestBuild_OneWeekWindowSolvesToAFullyValidRoster(t *testing.T) {
	w, err := window.Expand(
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	input := &model.Input{
		Catalog: rostertest.Catalog(),
		Window:  w,
		Locks:   locks.New(),
	}

	builder, err := model.Build(input)
	require.NoError(t, err)

	result, err := solver.Solve(builder, solver.Options{TimeLimit: 10 * time.Second})
	require.NoError(t, err)
	require.Contains(t, []solver.Status{solver.StatusOptimal, solver.StatusFeasible}, result.Status)

	report := validate.Run(input, result)
	assert.Empty(t, report.Violations, "%+v", report.Violations)
}

func TestBuild_RejectsForbiddenAbsenceCodeBeforeAllocatingVariables(t *testing.T) {
	w, err := window.Expand(
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	input := &model.Input{
		Catalog:  rostertest.Catalog(),
		Window:   w,
		Locks:    locks.New(),
		Absences: []catalog.Absence{{EmployeeID: 1, Code: "V", Start: w.Start, End: w.Start}},
	}

	_, err = model.Build(input)
	assert.Error(t, err)
}

func TestBuilder_PreviousAndNextDateRespectWindowEdges(t *testing.T) {
	w, err := window.Expand(
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	input := &model.Input{Catalog: rostertest.Catalog(), Window: w, Locks: locks.New()}
	b := model.NewBuilder(input)

	_, ok := b.PreviousDate(w.Dates[0])
	assert.False(t, ok)

	next, ok := b.NextDate(w.Dates[0])
	require.True(t, ok)
	assert.Equal(t, w.Dates[1], next)

	_, ok = b.NextDate(w.Dates[len(w.Dates)-1])
	assert.False(t, ok)
}
