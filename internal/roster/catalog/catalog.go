// Package catalog holds the roster engine's entity types and the
// shift/rotation lookups built on top of them (spec.md §3).
package catalog

import (
	"sort"
	"time"
)

// HoursScale preserves half-hour shift durations by carrying every hour
// figure the engine produces or compares as a ×10 scaled integer.
const HoursScale = 10

// Absence codes. Only these three are accepted; V and K are rejected at
// the catalog's validation boundary.
const (
	AbsenceVacation = "U"
	AbsenceSick     = "AU"
	AbsenceTraining = "L"
)

// Standard shift-type codes. F/S/N form the rotating triad; TD is a
// per-week marker rather than a shift; BMT/BSB are weekday specialist
// roles; ZD/TA are additional codes the catalog accepts without
// hardcoding further behavior around them.
const (
	ShiftEarly  = "F"
	ShiftLate   = "S"
	ShiftNight  = "N"
	ShiftTD     = "TD"
	ShiftBMT    = "BMT"
	ShiftBSB    = "BSB"
	ShiftZD     = "ZD"
	ShiftTA     = "TA"
)

// Weekday is the engine's own weekday index: Go's time.Weekday, which is
// Sunday-first (Sunday = 0 starts the week, Saturday = 6 ends it). In a
// Monday-first numbering the same Sun..Sat week runs from index 6 to 5.
type Weekday = time.Weekday

// Employee is an identity and capability record. The scheduler never
// mutates it; lifecycle is owned by admin operations external to the
// engine.
type Employee struct {
	ID                int64
	PersonnelNumber   string
	FirstName         string
	LastName          string
	Email             string
	TeamID            *int64 // nil means unattached
	QualifiedTD       bool
	QualifiedBMT      bool
	QualifiedBSB      bool
	IsTeamLeader      bool
	IsTemporaryWorker bool
	HireDate          time.Time
	Active            bool
	VacationDaysYear  int
}

// DisplayName returns the employee's full name for reports and CLI output.
func (e Employee) DisplayName() string {
	return e.FirstName + " " + e.LastName
}

// Unattached reports whether the employee has no team, making them
// available as a springer floater (spec.md §4.2.9).
func (e Employee) Unattached() bool {
	return e.TeamID == nil
}

// Team groups employees and constrains which shift-type codes it may
// operate.
type Team struct {
	ID                  int64
	Name                string
	Description         string
	Color               string
	IsVirtual           bool
	AllowedShiftTypeIDs map[int64]struct{} // empty set means "any"
	RotationGroupID     *int64
}

// AllowsShiftType reports whether the team may operate the given
// shift-type id. An empty AllowedShiftTypeIDs means "any".
func (t Team) AllowsShiftType(shiftTypeID int64) bool {
	if len(t.AllowedShiftTypeIDs) == 0 {
		return true
	}
	_, ok := t.AllowedShiftTypeIDs[shiftTypeID]
	return ok
}

// StaffBounds holds a weekday/weekend pair of minimum/maximum staffing
// counts for a shift type.
type StaffBounds struct {
	MinWeekday int
	MaxWeekday int
	MinWeekend int
	MaxWeekend int
}

// Bounds returns the min/max pair in effect for the given date's weekday.
func (b StaffBounds) Bounds(weekday time.Weekday) (min, max int) {
	if weekday == time.Sunday || weekday == time.Saturday {
		return b.MinWeekend, b.MaxWeekend
	}
	return b.MinWeekday, b.MaxWeekday
}

// ShiftType is a catalog entry for a shift or special-function code.
type ShiftType struct {
	ID                  int64
	Code                string
	DisplayName         string
	Start               time.Time // time-of-day component only is meaningful
	End                 time.Time
	DurationHoursScaled int // ×HoursScale
	WorksWeekday        [7]bool
	Staffing            StaffBounds
	WeeklyWorkingHours  int // ×HoursScale, e.g. 400 for a 40h week; no default is applied
	MaxConsecutiveDays  int
	IsSpecialFunction   bool // BMT/BSB/TD-like: excluded from F/S/N ratio & rest-transition rules
}

// WorksOn reports whether the shift type is scheduled on the given weekday.
func (s ShiftType) WorksOn(weekday time.Weekday) bool {
	return s.WorksWeekday[int(weekday)]
}

// Absence records a closed, inclusive date range during which the
// employee cannot hold any shift; absences always shadow locks
// (invariant ii of spec.md §3).
type Absence struct {
	ID         int64
	EmployeeID int64
	Code       string // one of AbsenceVacation, AbsenceSick, AbsenceTraining
	Start      time.Time
	End        time.Time
	Notes      string
}

// Covers reports whether date falls within the absence's inclusive range.
func (a Absence) Covers(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(a.Start)) && !d.After(truncateDay(a.End))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ShiftAssignment is a concrete (employee, date, shift-type) record,
// created by the solver or the springer replacer.
type ShiftAssignment struct {
	ID                   int64
	EmployeeID           int64
	ShiftTypeID          int64
	Date                 time.Time
	IsManual             bool
	IsFixed              bool
	IsSpringerAssignment bool
	Notes                string
	CreatedAt            time.Time
}

// RotationGroupShift is one ordered step of a RotationGroup's cycle.
type RotationGroupShift struct {
	Position    int
	ShiftTypeID int64
}

// RotationGroup defines the cyclic sequence of main shifts a team rotates
// through, one per week. Falls back to the hardcoded F,N,S default when
// configuration omits it.
type RotationGroup struct {
	ID     int64
	Name   string
	Shifts []RotationGroupShift // ordered by Position
}

// DefaultRotationCodes is the hardcoded fallback cycle (spec.md §3:
// "by default [F, N, S]").
var DefaultRotationCodes = []string{ShiftEarly, ShiftNight, ShiftLate}

// NextInCycle returns the code that follows `from` in the rotation, wrapping
// around. Returns ok=false if `from` is not in the cycle.
func NextInCycle(codes []string, from string) (next string, ok bool) {
	for i, c := range codes {
		if c == from {
			return codes[(i+1)%len(codes)], true
		}
	}
	return "", false
}

// GlobalSettings are process-wide immutables held fixed for the duration
// of one solve (SPEC_FULL.md §3.1).
type GlobalSettings struct {
	MaxConsecutiveWeeks      int
	MinimumRestHours         int
	HoursScale               int
	MonthlyHoursMode         string // "rolling_30_day" | "calendar_month"
	LookbackCapDays          int
	FairnessWeight           float64
	TeamCohesionWeight       float64
	RotationPreferenceWeight float64
	MaxStaffPenaltyWeight    float64
	MinHoursPenaltyWeight    float64
}

// DefaultGlobalSettings mirrors the engine's defaults (pkg/config sets the
// same values; this copy lets callers that build a Catalog in-process,
// e.g. tests and --dry-run fixtures, avoid a config dependency).
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		MaxConsecutiveWeeks:      6,
		MinimumRestHours:         11,
		HoursScale:               HoursScale,
		MonthlyHoursMode:         "rolling_30_day",
		LookbackCapDays:          60,
		FairnessWeight:           5.0,
		TeamCohesionWeight:       3.0,
		RotationPreferenceWeight: 2.0,
		MaxStaffPenaltyWeight:    1000.0,
		MinHoursPenaltyWeight:    50.0,
	}
}

// Catalog is the immutable snapshot of all entity data a solve operates
// against.
type Catalog struct {
	Employees      []Employee
	Teams          []Team
	ShiftTypes     []ShiftType
	RotationGroups []RotationGroup
	Settings       GlobalSettings

	employeeByID  map[int64]Employee
	teamByID      map[int64]Team
	shiftByID     map[int64]ShiftType
	shiftByCode   map[string]ShiftType
	rotationByID  map[int64]RotationGroup
}

// New builds a Catalog with its lookup indexes populated.
func New(employees []Employee, teams []Team, shiftTypes []ShiftType, rotationGroups []RotationGroup, settings GlobalSettings) *Catalog {
	c := &Catalog{
		Employees:      employees,
		Teams:          teams,
		ShiftTypes:     shiftTypes,
		RotationGroups: rotationGroups,
		Settings:       settings,
		employeeByID:   make(map[int64]Employee, len(employees)),
		teamByID:       make(map[int64]Team, len(teams)),
		shiftByID:      make(map[int64]ShiftType, len(shiftTypes)),
		shiftByCode:    make(map[string]ShiftType, len(shiftTypes)),
		rotationByID:   make(map[int64]RotationGroup, len(rotationGroups)),
	}
	for _, e := range employees {
		c.employeeByID[e.ID] = e
	}
	for _, t := range teams {
		c.teamByID[t.ID] = t
	}
	for _, s := range shiftTypes {
		c.shiftByID[s.ID] = s
		c.shiftByCode[s.Code] = s
	}
	for _, r := range rotationGroups {
		c.rotationByID[r.ID] = r
	}
	return c
}

func (c *Catalog) Employee(id int64) (Employee, bool) {
	e, ok := c.employeeByID[id]
	return e, ok
}

func (c *Catalog) Team(id int64) (Team, bool) {
	t, ok := c.teamByID[id]
	return t, ok
}

func (c *Catalog) ShiftTypeByID(id int64) (ShiftType, bool) {
	s, ok := c.shiftByID[id]
	return s, ok
}

func (c *Catalog) ShiftTypeByCode(code string) (ShiftType, bool) {
	s, ok := c.shiftByCode[code]
	return s, ok
}

func (c *Catalog) RotationGroup(id int64) (RotationGroup, bool) {
	r, ok := c.rotationByID[id]
	return r, ok
}

// RotationCodes returns the ordered shift codes of the team's rotation
// group, falling back to DefaultRotationCodes when the team has none
// configured.
func (c *Catalog) RotationCodes(team Team) []string {
	if team.RotationGroupID == nil {
		return DefaultRotationCodes
	}
	group, ok := c.RotationGroup(*team.RotationGroupID)
	if !ok || len(group.Shifts) == 0 {
		return DefaultRotationCodes
	}
	shifts := make([]RotationGroupShift, len(group.Shifts))
	copy(shifts, group.Shifts)
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].Position < shifts[j].Position })

	codes := make([]string, 0, len(shifts))
	for _, s := range shifts {
		st, ok := c.ShiftTypeByID(s.ShiftTypeID)
		if !ok {
			continue
		}
		codes = append(codes, st.Code)
	}
	return codes
}

// ActiveEmployees returns employees with Active true as of asOf, mirroring
// the original source's is_active filter used throughout constraint
// construction.
func (c *Catalog) ActiveEmployees(asOf time.Time) []Employee {
	out := make([]Employee, 0, len(c.Employees))
	for _, e := range c.Employees {
		if e.Active && !e.HireDate.After(asOf) {
			out = append(out, e)
		}
	}
	return out
}

// TeamMembers returns the active employees belonging to the given team.
func (c *Catalog) TeamMembers(teamID int64, asOf time.Time) []Employee {
	out := make([]Employee, 0)
	for _, e := range c.ActiveEmployees(asOf) {
		if e.TeamID != nil && *e.TeamID == teamID {
			out = append(out, e)
		}
	}
	return out
}

// UnattachedEmployees returns active employees with no team — the
// springer floater pool (spec.md §4.2.9).
func (c *Catalog) UnattachedEmployees(asOf time.Time) []Employee {
	out := make([]Employee, 0)
	for _, e := range c.ActiveEmployees(asOf) {
		if e.Unattached() {
			out = append(out, e)
		}
	}
	return out
}
