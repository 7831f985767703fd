package model

import (
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// dailyRatioRule is spec.md §4.2.10: on each weekday, count(F) ≥ count(S)
// ≥ count(N). Soft with a heavy penalty, mirroring the max_staff ordering
// so the lowest-capacity shift is never over-filled while headroom
// remains on a higher-capacity one.
type dailyRatioRule struct{}

func (dailyRatioRule) name() string { return "daily shift ratio" }

func (r dailyRatioRule) build(b *Builder) error {
	c := b.Input.Catalog
	weight := c.Settings.MaxStaffPenaltyWeight
	if weight <= 0 {
		weight = 1000.0
	}

	f, okF := c.ShiftTypeByCode("F")
	s, okS := c.ShiftTypeByCode("S")
	n, okN := c.ShiftTypeByCode("N")
	if !okF || !okS || !okN {
		return nil
	}

	for _, date := range b.Input.Window.Dates {
		r.orderPair(b, date, f.ID, s.ID, weight)
		r.orderPair(b, date, s.ID, n.ID, weight)
	}
	return nil
}

// orderPair adds a soft count(hi) >= count(lo) constraint for date.
func (dailyRatioRule) orderPair(b *Builder, date time.Time, hiTypeID, loTypeID int64, weight float64) {
	var hiTerms, loTerms []mip.Bool
	for ek, keys := range b.xByEmployeeDate {
		if !ek.Date.Equal(date) {
			continue
		}
		for _, k := range keys {
			switch k.ShiftTypeID {
			case hiTypeID:
				hiTerms = append(hiTerms, b.X[k])
			case loTypeID:
				loTerms = append(loTerms, b.X[k])
			}
		}
	}
	if len(hiTerms) == 0 && len(loTerms) == 0 {
		return
	}

	slack := b.M.NewFloat(0, float64(len(loTerms)))
	con := b.M.NewConstraint(mip.GreaterThanOrEqual, 0.0)
	for _, v := range hiTerms {
		con.NewTerm(1.0, v)
	}
	for _, v := range loTerms {
		con.NewTerm(-1.0, v)
	}
	con.NewTerm(1.0, slack)
	b.M.Objective().NewTerm(weight, slack)
}
