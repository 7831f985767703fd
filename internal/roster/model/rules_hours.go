package model

import (
	"time"

	"github.com/nextmv-io/sdk/mip"

	"github.com/rosterforge/engine/internal/roster/catalog"
)

// workingHoursRule is spec.md §4.2.6: scaled-integer weekly and 30-day
// rolling hour bounds. Weekly and monthly maxima are hard; the weekly
// minimum (against the employee's predominant shift's weekly target) is
// soft, since making it hard is the documented cause of past
// infeasibilities.
type workingHoursRule struct{}

func (workingHoursRule) name() string { return "working-hour bounds" }

func (r workingHoursRule) build(b *Builder) error {
	c := b.Input.Catalog
	weight := c.Settings.MinHoursPenaltyWeight
	if weight <= 0 {
		weight = 200.0
	}

	maxWeeklyScaled := 48 * c.Settings.HoursScale
	maxMonthlyScaled := 4 * maxWeeklyScaled

	for _, e := range c.ActiveEmployees(b.Input.Window.Start) {
		predominant, hasPredominant := predominantShift(c, e)

		for _, w := range b.Input.Window.Weeks {
			con := b.M.NewConstraint(mip.LessThanOrEqual, float64(maxWeeklyScaled))
			for _, d := range w.Dates {
				r.addHourTerms(b, con, e.ID, d)
			}

			if hasPredominant {
				target := predominant.WeeklyWorkingHours
				if target > 0 {
					slack := b.M.NewFloat(0, float64(target))
					min := b.M.NewConstraint(mip.GreaterThanOrEqual, float64(target))
					for _, d := range w.Dates {
						r.addHourTerms(b, min, e.ID, d)
					}
					min.NewTerm(1.0, slack)
					b.M.Objective().NewTerm(weight, slack)
				}
			}
		}

		r.slideMonthlyHours(b, e.ID, maxMonthlyScaled)
	}
	return nil
}

// addHourTerms adds every regular-shift variable's scaled-hour
// contribution on date to con.
func (workingHoursRule) addHourTerms(b *Builder, con mip.Constraint, employeeID int64, date time.Time) {
	c := b.Input.Catalog
	for _, key := range b.xByEmployeeDate[edKey{EmployeeID: employeeID, Date: date}] {
		if st, ok := c.ShiftTypeByID(key.ShiftTypeID); ok {
			con.NewTerm(float64(st.DurationHoursScaled), b.X[key])
		}
	}
}

// slideMonthlyHours adds a hard rolling 30-day scaled-hour ceiling.
func (r workingHoursRule) slideMonthlyHours(b *Builder, employeeID int64, maxMonthlyScaled int) {
	dates := b.Input.Window.Dates
	windowLen := 30
	if len(dates) < windowLen {
		windowLen = len(dates)
	}
	for start := 0; start+windowLen <= len(dates); start++ {
		con := b.M.NewConstraint(mip.LessThanOrEqual, float64(maxMonthlyScaled))
		for i := 0; i < windowLen; i++ {
			r.addHourTerms(b, con, employeeID, dates[start+i])
		}
	}
}

// predominantShift is the rotating shift type the employee is most often
// rostered to, approximated here by the team's first rotation code — the
// Model Builder has no historical frequency data within a single solve.
func predominantShift(c *catalog.Catalog, e catalog.Employee) (catalog.ShiftType, bool) {
	if e.TeamID == nil {
		return catalog.ShiftType{}, false
	}
	team, ok := c.Team(*e.TeamID)
	if !ok {
		return catalog.ShiftType{}, false
	}
	codes := c.RotationCodes(team)
	if len(codes) == 0 {
		return catalog.ShiftType{}, false
	}
	return c.ShiftTypeByCode(codes[0])
}
