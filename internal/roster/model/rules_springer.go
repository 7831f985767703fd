package model

import "github.com/nextmv-io/sdk/mip"

// springerAvailabilityRule is spec.md §4.2.9: unattached, qualified
// floaters are counted separately from team members; the solver must
// leave at least one free (unassigned to any regular shift) each week.
type springerAvailabilityRule struct{}

func (springerAvailabilityRule) name() string { return "springer availability" }

func (springerAvailabilityRule) build(b *Builder) error {
	c := b.Input.Catalog
	springers := c.UnattachedEmployees(b.Input.Window.Start)
	if len(springers) == 0 {
		return nil
	}

	for _, w := range b.Input.Window.Weeks {
		// free[e] can be 1 only if springer e worked nothing at all during week w.
		freeCount := b.M.NewConstraint(mip.GreaterThanOrEqual, 1.0)

		for _, e := range springers {
			working := b.M.NewConstraint(mip.LessThanOrEqual, float64(len(w.Dates)))
			anyTerm := false
			for _, d := range w.Dates {
				for _, key := range b.xByEmployeeDate[edKey{EmployeeID: e.ID, Date: d}] {
					working.NewTerm(1.0, b.X[key])
					anyTerm = true
				}
			}
			if !anyTerm {
				continue
			}

			free := b.M.NewBool()
			// working <= len(dates) * (1 - free)  <=>  working + len*free <= len
			working.NewTerm(float64(len(w.Dates)), free)
			freeCount.NewTerm(1.0, free)
		}
	}
	return nil
}
