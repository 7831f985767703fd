package model

import (
	"github.com/nextmv-io/sdk/mip"

	"github.com/rosterforge/engine/internal/roster/catalog"
)

// consecutiveDayRule is spec.md §4.2.5: per-shift-type and cross-type
// rolling-window consecutive-day limits, soft with heavy penalties.
// Shifts persisted before Window.Start are folded in as constants so a
// chain that began in a previous planning period is counted correctly.
type consecutiveDayRule struct{}

func (consecutiveDayRule) name() string { return "consecutive-day limits" }

func (r consecutiveDayRule) build(b *Builder) error {
	c := b.Input.Catalog
	weight := c.Settings.MaxStaffPenaltyWeight
	if weight <= 0 {
		weight = 1000.0
	}

	prior := priorCodesByEmployeeDate(c, b.Input.PriorAssignments)

	maxAcrossTypes := 0
	for _, code := range rotatingCodes {
		if st, ok := c.ShiftTypeByCode(code); ok && st.MaxConsecutiveDays > maxAcrossTypes {
			maxAcrossTypes = st.MaxConsecutiveDays
		}
	}
	if maxAcrossTypes <= 0 {
		maxAcrossTypes = 6
	}

	for _, e := range c.ActiveEmployees(b.Input.Window.Start) {
		for _, code := range rotatingCodes {
			st, ok := c.ShiftTypeByCode(code)
			if !ok || st.MaxConsecutiveDays <= 0 {
				continue
			}
			r.slidePerType(b, e.ID, st, weight, prior)
		}
		r.slideWorkingDays(b, e.ID, maxAcrossTypes, weight, prior)
	}
	return nil
}

// slidePerType caps the run length of a single shift type in every rolling
// window of size st.MaxConsecutiveDays+1, soft via a penalized slack. start
// ranges down to -(windowLen-1) so windows abutting Window.Start reach back
// into PriorAssignments; a prior run folds into the window as a constant
// that tightens the right-hand side, so a chain straddling the period
// boundary is capped exactly as a chain entirely inside the window would be.
func (consecutiveDayRule) slidePerType(b *Builder, employeeID int64, st catalog.ShiftType, weight float64, prior map[edKey]string) {
	windowLen := st.MaxConsecutiveDays + 1
	dates := b.Input.Window.Dates

	for start := -(windowLen - 1); start < len(dates); start++ {
		var terms []mip.Bool
		constant := 0.0

		for i := 0; i < windowLen; i++ {
			cur := dates[0].AddDate(0, 0, start+i)
			if v, ok := b.X[XKey{EmployeeID: employeeID, Date: cur, ShiftTypeID: st.ID}]; ok {
				terms = append(terms, v)
				continue
			}
			if code, ok := prior[edKey{EmployeeID: employeeID, Date: cur}]; ok && code == st.Code {
				constant++
			}
		}

		if len(terms) == 0 {
			continue // window holds no decision variable; nothing this solve can affect
		}

		con := b.M.NewConstraint(mip.LessThanOrEqual, float64(st.MaxConsecutiveDays)-constant)
		for _, v := range terms {
			con.NewTerm(1.0, v)
		}

		slack := b.M.NewFloat(0, float64(windowLen))
		con.NewTerm(-1.0, slack)
		b.M.Objective().NewTerm(weight, slack)
	}
}

// slideWorkingDays caps total working days (any regular shift, BMT or BSB;
// TD is not counted) in every rolling window of size maxDays+1, regardless of shift
// identity. Each day's contribution is the sum of that day's regular-shift
// variables (at most one can be 1, per exclusivityRule) plus its BMT/BSB
// variables if present. Like slidePerType, start reaches back before
// Window.Start so a prior run tightens the right-hand side instead of being
// silently dropped.
func (consecutiveDayRule) slideWorkingDays(b *Builder, employeeID int64, maxDays int, weight float64, prior map[edKey]string) {
	windowLen := maxDays + 1
	dates := b.Input.Window.Dates

	for start := -(windowLen - 1); start < len(dates); start++ {
		var terms []mip.Bool
		constant := 0.0

		for i := 0; i < windowLen; i++ {
			cur := dates[0].AddDate(0, 0, start+i)
			ek := edKey{EmployeeID: employeeID, Date: cur}
			if keys := b.xByEmployeeDate[ek]; len(keys) > 0 {
				for _, k := range keys {
					terms = append(terms, b.X[k])
				}
			}
			if v, ok := b.BMT[SpecialKey{EmployeeID: employeeID, Date: cur}]; ok {
				terms = append(terms, v)
			}
			if v, ok := b.BSB[SpecialKey{EmployeeID: employeeID, Date: cur}]; ok {
				terms = append(terms, v)
			}
			if code, ok := prior[ek]; ok && code != "" {
				constant++
			}
		}

		if len(terms) == 0 {
			continue
		}

		con := b.M.NewConstraint(mip.LessThanOrEqual, float64(maxDays)-constant)
		for _, v := range terms {
			con.NewTerm(1.0, v)
		}

		slack := b.M.NewFloat(0, float64(windowLen))
		con.NewTerm(-1.0, slack)
		b.M.Objective().NewTerm(weight, slack)
	}
}

// priorCodesByEmployeeDate resolves each persisted pre-window assignment to
// its shift type code, for consecutive-day lookback accounting (§5).
func priorCodesByEmployeeDate(c *catalog.Catalog, assignments []catalog.ShiftAssignment) map[edKey]string {
	m := make(map[edKey]string, len(assignments))
	for _, a := range assignments {
		if st, ok := c.ShiftTypeByID(a.ShiftTypeID); ok {
			m[edKey{EmployeeID: a.EmployeeID, Date: a.Date}] = st.Code
		}
	}
	return m
}
