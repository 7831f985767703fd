package model

import (
	"time"

	"github.com/nextmv-io/sdk/mip"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/window"
)

// teamRotationRule is spec.md §4.2.7: each team selects exactly one main
// shift per week via team_shift[t,w,s]; active members must match it on
// weekdays; week-to-week changes that don't follow the rotation group's
// cycle carry a soft penalty.
type teamRotationRule struct{}

func (teamRotationRule) name() string { return "team rotation" }

func (r teamRotationRule) build(b *Builder) error {
	c := b.Input.Catalog
	weight := c.Settings.RotationPreferenceWeight
	if weight <= 0 {
		weight = 50.0
	}

	for _, t := range c.Teams {
		if t.IsVirtual {
			continue
		}
		codes := c.RotationCodes(t)

		for _, w := range b.Input.Window.Weeks {
			tk := twKey{TeamID: t.ID, WeekIndex: w.Index}
			keys := b.teamShiftByTeamWeek[tk]
			if len(keys) == 0 {
				continue
			}

			// Exactly one main shift chosen for the team this week.
			one := b.M.NewConstraint(mip.Equal, 1.0)
			for _, k := range keys {
				one.NewTerm(1.0, b.TeamShift[k])
			}

			r.requireMemberMatch(b, t, w, keys)
		}

		r.penalizeNonCyclicTransitions(b, t, codes, weight)
	}
	return nil
}

// requireMemberMatch forces every active, non-absent member of t to work
// the team's chosen shift on each weekday of w. Absent members are
// skipped: their x variables are already pinned to zero by
// absenceMaskingRule, so an equality here would force team_shift to zero
// as well and conflict with "exactly one main shift per week".
func (teamRotationRule) requireMemberMatch(b *Builder, t catalog.Team, w window.Week, keys []TeamShiftKey) {
	c := b.Input.Catalog
	members := c.TeamMembers(t.ID, b.Input.Window.Start)

	for _, e := range members {
		for _, date := range w.Dates {
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				continue
			}
			if isAbsent(b.Input.Absences, e.ID, date) {
				continue
			}
			for _, k := range keys {
				v, ok := b.X[XKey{EmployeeID: e.ID, Date: date, ShiftTypeID: shiftTypeIDForCode(c, k.Code)}]
				if !ok {
					continue
				}
				con := b.M.NewConstraint(mip.Equal, 0.0)
				con.NewTerm(1.0, v)
				con.NewTerm(-1.0, b.TeamShift[k])
			}
		}
	}
}

func shiftTypeIDForCode(c *catalog.Catalog, code string) int64 {
	if st, ok := c.ShiftTypeByCode(code); ok {
		return st.ID
	}
	return -1
}

func (teamRotationRule) penalizeNonCyclicTransitions(b *Builder, t catalog.Team, codes []string, weight float64) {
	weeks := b.Input.Window.Weeks
	for i := 0; i+1 < len(weeks); i++ {
		cur := weeks[i]
		next := weeks[i+1]
		for _, c1 := range codes {
			k1, ok1 := b.TeamShift[TeamShiftKey{TeamID: t.ID, WeekIndex: cur.Index, Code: c1}]
			if !ok1 {
				continue
			}
			for _, c2 := range codes {
				k2, ok2 := b.TeamShift[TeamShiftKey{TeamID: t.ID, WeekIndex: next.Index, Code: c2}]
				if !ok2 {
					continue
				}
				if isCompliantTransition(codes, c1, c2) {
					continue
				}
				bad := b.M.NewBool()
				con := b.M.NewConstraint(mip.LessThanOrEqual, 1.0)
				con.NewTerm(1.0, k1)
				con.NewTerm(1.0, k2)
				con.NewTerm(-1.0, bad)
				b.M.Objective().NewTerm(weight, bad)
			}
		}
	}
}

// isCompliantTransition reports whether moving from c1 to c2 stays put or
// follows the rotation group's cycle (default F→N→S→F…).
func isCompliantTransition(codes []string, c1, c2 string) bool {
	if c1 == c2 {
		return true
	}
	next, ok := catalog.NextInCycle(codes, c1)
	return ok && next == c2
}
