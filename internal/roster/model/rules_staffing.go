package model

import (
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// staffingBoundsRule is spec.md §4.2.3: per (date, main shift) staffing
// bounds, split weekday/weekend, counting only team-affiliated employees.
// Max bounds are soft (heavily penalized slack); min bounds are hard.
type staffingBoundsRule struct{}

func (staffingBoundsRule) name() string { return "staffing bounds" }

func (r staffingBoundsRule) build(b *Builder) error {
	c := b.Input.Catalog
	weight := c.Settings.MaxStaffPenaltyWeight
	if weight <= 0 {
		weight = 1000.0
	}

	active := c.ActiveEmployees(b.Input.Window.Start)
	affiliated := make(map[int64]bool, len(active))
	for _, e := range active {
		if !e.Unattached() {
			affiliated[e.ID] = true
		}
	}

	for _, code := range rotatingCodes {
		st, ok := c.ShiftTypeByCode(code)
		if !ok {
			continue
		}
		for _, date := range b.Input.Window.Dates {
			if !st.WorksOn(date.Weekday()) {
				continue
			}
			min, max := st.Staffing.Bounds(date.Weekday())

			var terms []XKey
			for ek, keys := range b.xByEmployeeDate {
				if !ek.Date.Equal(date) {
					continue
				}
				if !affiliated[ek.EmployeeID] {
					continue
				}
				for _, k := range keys {
					if k.ShiftTypeID == st.ID {
						terms = append(terms, k)
					}
				}
			}

			if min > 0 {
				con := b.M.NewConstraint(mip.GreaterThanOrEqual, float64(min))
				for _, k := range terms {
					con.NewTerm(1.0, b.X[k])
				}
			}

			if max > 0 {
				slack := b.M.NewFloat(0, float64(len(active)))
				con := b.M.NewConstraint(mip.LessThanOrEqual, float64(max))
				for _, k := range terms {
					con.NewTerm(1.0, b.X[k])
				}
				con.NewTerm(-1.0, slack)
				b.M.Objective().NewTerm(weight, slack)
				b.maxStaffSlack(date, st.ID, slack)
			}
		}
	}
	return nil
}

type staffSlackKey struct {
	Date        time.Time
	ShiftTypeID int64
}

// maxStaffSlack records the slack variable in b.maxStaffSlackVars under its
// (date, shift type) key.
func (b *Builder) maxStaffSlack(date time.Time, shiftTypeID int64, v mip.Float) {
	if b.maxStaffSlackVars == nil {
		b.maxStaffSlackVars = make(map[staffSlackKey]mip.Float)
	}
	b.maxStaffSlackVars[staffSlackKey{Date: date, ShiftTypeID: shiftTypeID}] = v
}
