package catalog

import (
	"fmt"

	"github.com/rosterforge/engine/internal/rosterr"
)

// forbiddenAbsenceCodes are rejected on input even though they appear in
// older source data (spec.md §3: "The codes V and K are forbidden").
var forbiddenAbsenceCodes = map[string]bool{"V": true, "K": true}

var validAbsenceCodes = map[string]bool{
	AbsenceVacation: true,
	AbsenceSick:     true,
	AbsenceTraining: true,
}

// ValidateEntities performs the eager, structural InputError checks run
// before any decision variable is allocated: dangling rotation-group, team
// and employee references, and forbidden, unknown or reversed absences.
// Shift codes are not checked here.
func ValidateEntities(c *Catalog, absences []Absence) error {
	for _, t := range c.Teams {
		if t.RotationGroupID != nil {
			if _, ok := c.RotationGroup(*t.RotationGroupID); !ok {
				return rosterr.Input(fmt.Sprintf("team %d references missing rotation group %d", t.ID, *t.RotationGroupID))
			}
		}
	}

	for _, e := range c.Employees {
		if e.TeamID != nil {
			if _, ok := c.Team(*e.TeamID); !ok {
				return rosterr.Input(fmt.Sprintf("employee %d references missing team %d", e.ID, *e.TeamID))
			}
		}
	}

	for _, a := range absences {
		if forbiddenAbsenceCodes[a.Code] {
			return rosterr.Input(fmt.Sprintf("absence %d uses forbidden code %q", a.ID, a.Code))
		}
		if !validAbsenceCodes[a.Code] {
			return rosterr.Input(fmt.Sprintf("absence %d uses unknown code %q", a.ID, a.Code))
		}
		if a.End.Before(a.Start) {
			return rosterr.Input(fmt.Sprintf("absence %d has end date before start date", a.ID))
		}
		if _, ok := c.Employee(a.EmployeeID); !ok {
			return rosterr.Input(fmt.Sprintf("absence %d references missing employee %d", a.ID, a.EmployeeID))
		}
	}

	return nil
}
