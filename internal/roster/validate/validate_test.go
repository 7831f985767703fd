package validate_test

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

func hasRule(findings []validate.Finding, rule string) bool {
	for _, f := range findings {
		if f.Rule == rule {
			return true
		}
	}
	return false
}

func newWeekInput(t *testing.T) *model.Input {
	t.Helper()
	w, err := window.Expand(
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return &model.Input{
		Catalog: rostertest.Catalog(),
		Window:  w,
		Locks:   locks.New(),
	}
}

func TestRun_CompletenessViolationWhenScheduleIsEmpty(t *testing.T) {
	input := newWeekInput(t)
	result := &solver.Result{Status: solver.StatusOptimal, CompleteSchedule: map[solver.ScheduleKey]string{}}

	report := validate.Run(input, result)

	assert.True(t, hasRule(report.Violations, "completeness"))
	assert.False(t, report.Passed())
}

func TestRun_ExclusivityViolationWhenAssignmentAndSpecialFunctionCollide(t *testing.T) {
	input := newWeekInput(t)
	date := input.Window.Dates[0]
	result := &solver.Result{
		Status:           solver.StatusOptimal,
		CompleteSchedule: map[solver.ScheduleKey]string{},
		Assignments: []solver.Assignment{
			{EmployeeID: 1, Date: date, ShiftTypeID: rostertest.ShiftTypeF, ShiftCode: catalog.ShiftEarly},
		},
		SpecialFunctions: []solver.SpecialFunction{
			{EmployeeID: 1, Date: date, Code: catalog.ShiftBMT},
		},
	}

	report := validate.Run(input, result)

	assert.True(t, hasRule(report.Violations, "exclusivity"))
}

func TestRun_AbsenceMaskingViolationWhenScheduledOverAbsence(t *testing.T) {
	input := newWeekInput(t)
	date := input.Window.Dates[1]
	input.Absences = []catalog.Absence{{EmployeeID: 2, Code: catalog.AbsenceSick, Start: date, End: date}}

	result := &solver.Result{
		Status: solver.StatusOptimal,
		CompleteSchedule: map[solver.ScheduleKey]string{
			{EmployeeID: 2, Date: date}: catalog.ShiftEarly,
		},
	}

	report := validate.Run(input, result)

	assert.True(t, hasRule(report.Violations, "absence-masking"))
}

func TestRun_LockFidelityViolationWhenEmployeeLockNotHonored(t *testing.T) {
	input := newWeekInput(t)
	date := input.Window.Dates[2]
	input.Locks.EmployeeShift[locks.EmployeeDateKey{EmployeeID: 3, Date: date}] = catalog.ShiftNight

	result := &solver.Result{
		Status: solver.StatusOptimal,
		CompleteSchedule: map[solver.ScheduleKey]string{
			{EmployeeID: 3, Date: date}: catalog.ShiftEarly,
		},
	}

	report := validate.Run(input, result)

	assert.True(t, hasRule(report.Violations, "lock-fidelity"))
}

func TestRun_SpecialFunctionsViolationWhenMissingOnWeekday(t *testing.T) {
	input := newWeekInput(t)
	var weekday time.Time
	for _, d := range input.Window.Dates {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			weekday = d
			break
		}
	}
	require.False(t, weekday.IsZero())

	result := &solver.Result{Status: solver.StatusOptimal, CompleteSchedule: map[solver.ScheduleKey]string{}}

	report := validate.Run(input, result)

	assert.True(t, hasRule(report.Violations, "special-functions"))
}

func TestReport_PassedIsTrueOnlyWithNoViolations(t *testing.T) {
	report := validate.Report{Warnings: []validate.Finding{{Severity: validate.SeverityWarning, Rule: "daily-ratio"}}}
	assert.True(t, report.Passed())

	report.Violations = append(report.Violations, validate.Finding{Severity: validate.SeverityViolation, Rule: "completeness"})
	assert.False(t, report.Passed())
}
