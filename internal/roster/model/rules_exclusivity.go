package model

import "github.com/nextmv-io/sdk/mip"

// exclusivityRule is spec.md §4.2.1: for each (e,d), at most one of the
// employee's regular-shift, BMT, and BSB variables may be active.
type exclusivityRule struct{}

func (exclusivityRule) name() string { return "basic exclusivity" }

func (exclusivityRule) build(b *Builder) error {
	c := b.Input.Catalog
	active := c.ActiveEmployees(b.Input.Window.Start)

	for _, e := range active {
		for _, date := range b.Input.Window.Dates {
			var terms []mip.Bool
			for _, key := range b.xByEmployeeDate[edKey{EmployeeID: e.ID, Date: date}] {
				terms = append(terms, b.X[key])
			}
			if v, ok := b.BMT[SpecialKey{EmployeeID: e.ID, Date: date}]; ok {
				terms = append(terms, v)
			}
			if v, ok := b.BSB[SpecialKey{EmployeeID: e.ID, Date: date}]; ok {
				terms = append(terms, v)
			}
			if len(terms) < 2 {
				continue
			}
			con := b.M.NewConstraint(mip.LessThanOrEqual, 1.0)
			for _, v := range terms {
				con.NewTerm(1.0, v)
			}
		}
	}
	return nil
}
