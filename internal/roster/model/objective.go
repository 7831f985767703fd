package model

import (
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// applyObjective adds the lexicographic-style fairness band described in
// spec.md §4.2.11. Every other rule module has already added its own
// soft-penalty slack terms directly to b.M.Objective() as it built its
// constraints; this pass adds the two parts that need a cross-rule view
// of the whole model: pairwise shift-count fairness penalties and the hard
// weekend cross-team override constraints (no objective term).
func applyObjective(b *Builder) {
	addFairnessTerms(b)
	addCrossTeamOverrideTerms(b)
}

// addFairnessTerms penalizes the pairwise absolute difference in total
// regular-shift counts between non-floater (team-affiliated) employees,
// so no single employee is worked substantially more than a peer.
func addFairnessTerms(b *Builder) {
	c := b.Input.Catalog
	weight := c.Settings.FairnessWeight
	if weight <= 0 {
		return
	}

	active := c.ActiveEmployees(b.Input.Window.Start)
	var affiliated []int64
	for _, e := range active {
		if !e.Unattached() {
			affiliated = append(affiliated, e.ID)
		}
	}
	if len(affiliated) < 2 {
		return
	}

	upperBound := float64(len(b.Input.Window.Dates))

	for i := 0; i < len(affiliated); i++ {
		for j := i + 1; j < len(affiliated); j++ {
			diff := b.M.NewFloat(0, upperBound)

			upper := b.M.NewConstraint(mip.LessThanOrEqual, 0.0)
			for _, k := range b.xByEmployee[affiliated[i]] {
				upper.NewTerm(1.0, b.X[k])
			}
			for _, k := range b.xByEmployee[affiliated[j]] {
				upper.NewTerm(-1.0, b.X[k])
			}
			upper.NewTerm(-1.0, diff)

			lower := b.M.NewConstraint(mip.LessThanOrEqual, 0.0)
			for _, k := range b.xByEmployee[affiliated[j]] {
				lower.NewTerm(1.0, b.X[k])
			}
			for _, k := range b.xByEmployee[affiliated[i]] {
				lower.NewTerm(-1.0, b.X[k])
			}
			lower.NewTerm(-1.0, diff)

			b.M.Objective().NewTerm(weight, diff)
		}
	}
}

// addCrossTeamOverrideTerms pins a team-affiliated employee's weekend
// shift to be a subset of their team's weekly selection (spec.md §8
// invariant (iv)): if the team didn't pick code on week w, no member can
// work it that weekend either. Weekdays are already pinned equal by
// teamRotationRule.requireMemberMatch; this is the weekend counterpart,
// and it is hard, matching checkWeekendConsistency's independent check —
// a model that could still choose a weekend deviation, even at a
// penalty, would hand back a roster the validator rejects outright.
func addCrossTeamOverrideTerms(b *Builder) {
	c := b.Input.Catalog

	for _, t := range c.Teams {
		if t.IsVirtual {
			continue
		}
		codes := c.RotationCodes(t)
		members := c.TeamMembers(t.ID, b.Input.Window.Start)

		for _, w := range b.Input.Window.Weeks {
			for _, date := range w.Dates {
				if date.Weekday() != time.Saturday && date.Weekday() != time.Sunday {
					continue
				}
				for _, e := range members {
					for _, code := range codes {
						st, ok := c.ShiftTypeByCode(code)
						if !ok {
							continue
						}
						v, ok := b.X[XKey{EmployeeID: e.ID, Date: date, ShiftTypeID: st.ID}]
						if !ok {
							continue
						}
						teamShift, ok := b.TeamShift[TeamShiftKey{TeamID: t.ID, WeekIndex: w.Index, Code: code}]
						if !ok {
							continue
						}
						con := b.M.NewConstraint(mip.LessThanOrEqual, 0.0)
						con.NewTerm(1.0, v)
						con.NewTerm(-1.0, teamShift)
					}
				}
			}
		}
	}
}
