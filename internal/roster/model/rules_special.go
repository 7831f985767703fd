package model

import (
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// specialFunctionRule is spec.md §4.2.8: on weekdays, exactly one BMT and
// one BSB among qualified, present employees; TD is exactly one
// per-week, per-qualified-employee assignment when enabled. BMT/BSB
// mutual exclusivity with regular shifts is enforced by exclusivityRule;
// TD is a separate per-week variable exclusivityRule does not touch, and
// its interaction with a holder's absences is resolved at extraction
// time, not by a model constraint (see absenceMaskingRule).
type specialFunctionRule struct{}

func (specialFunctionRule) name() string { return "special functions" }

func (specialFunctionRule) build(b *Builder) error {
	for _, date := range b.Input.Window.Dates {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		if vars := boolsFor(b.BMT, date); len(vars) > 0 {
			con := b.M.NewConstraint(mip.Equal, 1.0)
			for _, v := range vars {
				con.NewTerm(1.0, v)
			}
		}
		if vars := boolsFor(b.BSB, date); len(vars) > 0 {
			con := b.M.NewConstraint(mip.Equal, 1.0)
			for _, v := range vars {
				con.NewTerm(1.0, v)
			}
		}
	}

	for _, w := range b.Input.Window.Weeks {
		var terms []mip.Bool
		for _, e := range b.Input.Catalog.ActiveEmployees(b.Input.Window.Start) {
			if !e.QualifiedTD {
				continue
			}
			if v, ok := b.TD[TDKey{EmployeeID: e.ID, WeekIndex: w.Index}]; ok {
				terms = append(terms, v)
			}
		}
		if len(terms) == 0 {
			continue
		}
		con := b.M.NewConstraint(mip.Equal, 1.0)
		for _, v := range terms {
			con.NewTerm(1.0, v)
		}
	}

	return nil
}

func boolsFor(m map[SpecialKey]mip.Bool, date time.Time) []mip.Bool {
	var out []mip.Bool
	for k, v := range m {
		if k.Date.Equal(date) {
			out = append(out, v)
		}
	}
	return out
}
