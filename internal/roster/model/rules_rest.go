package model

import "github.com/nextmv-io/sdk/mip"

// forbiddenTransition is a (s1, s2) pair where s1 on day d followed by s2
// on day d+1 does not provide the employee enough rest.
type forbiddenTransition struct {
	From, To string
}

var forbiddenTransitions = []forbiddenTransition{
	{From: "S", To: "F"}, // 8h rest
	{From: "N", To: "F"}, // 0h rest
}

// restTransitionRule is spec.md §4.2.4: forbidden day-to-day shift pairs
// are hard, except a Sunday→Monday team-rotation change, which is
// soft-tracked rather than forbidden outright.
type restTransitionRule struct{}

func (restTransitionRule) name() string { return "rest transitions" }

func (restTransitionRule) build(b *Builder) error {
	c := b.Input.Catalog
	weight := c.Settings.RotationPreferenceWeight
	if weight <= 0 {
		weight = 50.0
	}

	for _, t := range forbiddenTransitions {
		s1, ok1 := c.ShiftTypeByCode(t.From)
		s2, ok2 := c.ShiftTypeByCode(t.To)
		if !ok1 || !ok2 {
			continue
		}
		for _, date := range b.Input.Window.Dates {
			next, ok := b.NextDate(date)
			if !ok {
				continue
			}
			isRotationBoundary := date.Weekday().String() == "Sunday" && next.Weekday().String() == "Monday"

			for _, e := range c.ActiveEmployees(b.Input.Window.Start) {
				v1, ok1 := b.X[XKey{EmployeeID: e.ID, Date: date, ShiftTypeID: s1.ID}]
				v2, ok2 := b.X[XKey{EmployeeID: e.ID, Date: next, ShiftTypeID: s2.ID}]
				if !ok1 || !ok2 {
					continue
				}

				if isRotationBoundary {
					// Soft-tracked: penalize but do not forbid, since a
					// rotation handover legitimately crosses the week
					// boundary on a Sunday→Monday pair.
					slack := b.M.NewBool()
					con := b.M.NewConstraint(mip.LessThanOrEqual, 1.0)
					con.NewTerm(1.0, v1)
					con.NewTerm(1.0, v2)
					con.NewTerm(-1.0, slack)
					b.M.Objective().NewTerm(weight, slack)
					continue
				}

				con := b.M.NewConstraint(mip.LessThanOrEqual, 1.0)
				con.NewTerm(1.0, v1)
				con.NewTerm(1.0, v2)
			}
		}
	}
	return nil
}
