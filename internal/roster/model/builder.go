package model

import (
	"time"

	"github.com/nextmv-io/sdk/mip"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/rosterr"
)

// XKey identifies a regular-shift decision variable x[e,d,s].
type XKey struct {
	EmployeeID  int64
	Date        time.Time
	ShiftTypeID int64
}

// SpecialKey identifies a bmt[e,d] or bsb[e,d] decision variable.
type SpecialKey struct {
	EmployeeID int64
	Date       time.Time
}

// TDKey identifies a td[e,w] decision variable.
type TDKey struct {
	EmployeeID int64
	WeekIndex  int
}

// TeamShiftKey identifies a team_shift[t,w,s] indicator.
type TeamShiftKey struct {
	TeamID    int64
	WeekIndex int
	Code      string
}

// Builder accumulates the mip.Model, its decision variables, and the soft
// constraint slack terms the Constraint Library modules populate.
type Builder struct {
	Input *Input
	M     mip.Model

	X         map[XKey]mip.Bool
	BMT       map[SpecialKey]mip.Bool
	BSB       map[SpecialKey]mip.Bool
	TD        map[TDKey]mip.Bool
	TeamShift map[TeamShiftKey]mip.Bool

	// dateIndex maps a calendar date to its position in Input.Window.Dates,
	// for neighbor lookups (d-1, d+1) during rest-transition and
	// consecutive-day constraints.
	dateIndex map[time.Time]int

	// weekIndexOf maps a date to the index of the week that contains it.
	weekIndexOf map[time.Time]int

	// xByEmployeeDate indexes X keys by (employee, date) for the
	// exclusivity, absence-masking and rest-transition rules.
	xByEmployeeDate map[edKey][]XKey
	// xByEmployee indexes X keys by employee, for hours/consecutive rules.
	xByEmployee map[int64][]XKey
	// teamShiftByTeamWeek indexes TeamShift keys by (team, week).
	teamShiftByTeamWeek map[twKey][]TeamShiftKey

	// maxStaffSlackVars holds the over-staffing slack for each (date,
	// shift type) pair, populated by staffingBoundsRule; no other rule and
	// not the solver Driver reads it.
	maxStaffSlackVars map[staffSlackKey]mip.Float
}

type edKey struct {
	EmployeeID int64
	Date       time.Time
}

type twKey struct {
	TeamID    int64
	WeekIndex int
}

// NewBuilder allocates an empty Builder bound to input. Call Build to run
// the full constraint library over it.
func NewBuilder(input *Input) *Builder {
	b := &Builder{
		Input:       input,
		M:           mip.NewModel(),
		X:           make(map[XKey]mip.Bool),
		BMT:         make(map[SpecialKey]mip.Bool),
		BSB:         make(map[SpecialKey]mip.Bool),
		TD:          make(map[TDKey]mip.Bool),
		TeamShift:   make(map[TeamShiftKey]mip.Bool),
		dateIndex:   make(map[time.Time]int),
		weekIndexOf: make(map[time.Time]int),
		xByEmployeeDate:     make(map[edKey][]XKey),
		xByEmployee:         make(map[int64][]XKey),
		teamShiftByTeamWeek: make(map[twKey][]TeamShiftKey),
	}
	for i, d := range input.Window.Dates {
		b.dateIndex[d] = i
	}
	for _, w := range input.Window.Weeks {
		for _, d := range w.Dates {
			b.weekIndexOf[d] = w.Index
		}
	}
	b.M.Objective().SetMinimize()
	return b
}

// WeekIndexOf returns the index of the week containing date.
func (b *Builder) WeekIndexOf(date time.Time) (int, bool) {
	idx, ok := b.weekIndexOf[date]
	return idx, ok
}

// PreviousDate returns the date immediately preceding date within the
// window, or the zero time and false if date is the window's first day.
func (b *Builder) PreviousDate(date time.Time) (time.Time, bool) {
	idx, ok := b.dateIndex[date]
	if !ok || idx == 0 {
		return time.Time{}, false
	}
	return b.Input.Window.Dates[idx-1], true
}

// NextDate returns the date immediately following date within the window.
func (b *Builder) NextDate(date time.Time) (time.Time, bool) {
	idx, ok := b.dateIndex[date]
	if !ok || idx == len(b.Input.Window.Dates)-1 {
		return time.Time{}, false
	}
	return b.Input.Window.Dates[idx+1], true
}

// allocateVariables creates one x[e,d,s] per active employee, window date
// and rotating shift type the employee's team (if any) may operate, plus
// BMT/BSB/TD/team_shift variables per spec.md §4.2.
func (b *Builder) allocateVariables() {
	c := b.Input.Catalog
	active := c.ActiveEmployees(b.Input.Window.Start)

	shiftsByCode := make(map[string]catalog.ShiftType)
	for _, code := range rotatingCodes {
		if st, ok := c.ShiftTypeByCode(code); ok {
			shiftsByCode[code] = st
		}
	}

	for _, e := range active {
		var team catalog.Team
		hasTeam := false
		if e.TeamID != nil {
			team, hasTeam = c.Team(*e.TeamID)
		}

		for _, date := range b.Input.Window.Dates {
			for _, st := range shiftsByCode {
				if !st.WorksOn(date.Weekday()) {
					continue
				}
				if hasTeam && !team.AllowsShiftType(st.ID) {
					continue
				}
				key := XKey{EmployeeID: e.ID, Date: date, ShiftTypeID: st.ID}
				b.X[key] = b.M.NewBool()
				ek := edKey{EmployeeID: e.ID, Date: date}
				b.xByEmployeeDate[ek] = append(b.xByEmployeeDate[ek], key)
				b.xByEmployee[e.ID] = append(b.xByEmployee[e.ID], key)
			}

			if e.QualifiedBMT {
				if date.Weekday() != time.Saturday && date.Weekday() != time.Sunday {
					b.BMT[SpecialKey{EmployeeID: e.ID, Date: date}] = b.M.NewBool()
				}
			}
			if e.QualifiedBSB {
				if date.Weekday() != time.Saturday && date.Weekday() != time.Sunday {
					b.BSB[SpecialKey{EmployeeID: e.ID, Date: date}] = b.M.NewBool()
				}
			}
		}

		if e.QualifiedTD {
			for _, w := range b.Input.Window.Weeks {
				b.TD[TDKey{EmployeeID: e.ID, WeekIndex: w.Index}] = b.M.NewBool()
			}
		}
	}

	for _, t := range c.Teams {
		if t.IsVirtual {
			continue
		}
		codes := c.RotationCodes(t)
		for _, w := range b.Input.Window.Weeks {
			for _, code := range codes {
				if st, ok := c.ShiftTypeByCode(code); ok && !t.AllowsShiftType(st.ID) {
					continue
				}
				key := TeamShiftKey{TeamID: t.ID, WeekIndex: w.Index, Code: code}
				b.TeamShift[key] = b.M.NewBool()
				tk := twKey{TeamID: t.ID, WeekIndex: w.Index}
				b.teamShiftByTeamWeek[tk] = append(b.teamShiftByTeamWeek[tk], key)
			}
		}
	}
}

// rule is one constraint-library module (SPEC_FULL.md §4.2: "one Go file
// per rule module"). Each rule both validates its preconditions eagerly
// (InputError) and appends hard/soft constraints to the shared model.
type rule interface {
	name() string
	build(b *Builder) error
}

// Build runs entity validation, allocates decision variables, and applies
// every constraint-library rule module in the order spec.md documents
// them (§4.2.1 through §4.2.11).
func Build(input *Input) (*Builder, error) {
	if err := catalog.ValidateEntities(input.Catalog, input.Absences); err != nil {
		return nil, err
	}

	b := NewBuilder(input)
	b.allocateVariables()

	rules := []rule{
		exclusivityRule{},
		absenceMaskingRule{},
		staffingBoundsRule{},
		restTransitionRule{},
		consecutiveDayRule{},
		workingHoursRule{},
		teamRotationRule{},
		specialFunctionRule{},
		springerAvailabilityRule{},
		dailyRatioRule{},
	}

	for _, r := range rules {
		if err := r.build(b); err != nil {
			return nil, rosterr.Wrap(err, rosterr.KindInput, "building "+r.name())
		}
	}

	applyObjective(b)

	return b, nil
}
