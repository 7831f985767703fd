// Package model builds the mixed-integer-programming model for one
// planning window (spec.md §4.2). Variables and constraints are built
// against github.com/nextmv-io/sdk/mip (HiGHS backend), the pack's one
// real, fetchable MIP library; boolean mip.Bool variables stand in for
// the spec's CP-SAT decision variables and soft rules add penalized
// mip.Float slack terms to the objective.
package model

import (
	"time"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/window"
)

// Input is everything the Model Builder needs to construct one solve.
type Input struct {
	Catalog  *catalog.Catalog
	Window   *window.Expanded
	Absences []catalog.Absence
	Locks    locks.Locks

	// PriorAssignments are shifts from before Window.Start, consulted only
	// for consecutive-day lookback accounting (spec.md §5).
	PriorAssignments []catalog.ShiftAssignment
}

// rotatingCodes are the three main shifts eligible for team rotation
// and the daily F≥S≥N ratio rule. BMT/BSB/TD/ZD/TA are excluded (they are
// IsSpecialFunction in the catalog).
var rotatingCodes = []string{catalog.ShiftEarly, catalog.ShiftLate, catalog.ShiftNight}

func isAbsent(absences []catalog.Absence, employeeID int64, date time.Time) bool {
	for _, a := range absences {
		if a.EmployeeID == employeeID && a.Covers(date) {
			return true
		}
	}
	return false
}
