// Package rostertest builds small, realistic catalog.Catalog fixtures for
// engine unit tests, grounded on the teacher's pkg/testutil fixture-struct
// pattern (fixtures.go) but returning ready-built entities directly
// instead of seeding a database.
package rostertest

import (
	"strconv"
	"time"

	"github.com/rosterforge/engine/internal/roster/catalog"
)

// Shift type IDs used across every fixture this package builds.
const (
	ShiftTypeF   int64 = 1
	ShiftTypeS   int64 = 2
	ShiftTypeN   int64 = 3
	ShiftTypeBMT int64 = 4
	ShiftTypeBSB int64 = 5
	ShiftTypeTD  int64 = 6
)

const (
	TeamAlpha int64 = 1
	TeamBeta  int64 = 2
)

func allWeekdays() [7]bool {
	return [7]bool{true, true, true, true, true, true, true}
}

func onlyWeekdays() [7]bool {
	// Sunday-first: index 0 = Sunday, 6 = Saturday.
	return [7]bool{false, true, true, true, true, true, false}
}

// ShiftTypes returns the F/S/N rotating triad plus BMT/BSB/TD, with
// realistic 8-hour durations (scaled by catalog.HoursScale) and
// consecutive-day limits of 5 for F and S and 4 for N.
func ShiftTypes() []catalog.ShiftType {
	clock := func(h, m int) time.Time { return time.Date(0, 1, 1, h, m, 0, 0, time.UTC) }
	return []catalog.ShiftType{
		{
			ID: ShiftTypeF, Code: catalog.ShiftEarly, DisplayName: "Early",
			Start: clock(6, 0), End: clock(14, 0), DurationHoursScaled: 8 * catalog.HoursScale,
			WorksWeekday:       allWeekdays(),
			Staffing:           catalog.StaffBounds{MinWeekday: 1, MaxWeekday: 2, MinWeekend: 1, MaxWeekend: 1},
			WeeklyWorkingHours: 40 * catalog.HoursScale, MaxConsecutiveDays: 5,
		},
		{
			ID: ShiftTypeS, Code: catalog.ShiftLate, DisplayName: "Late",
			Start: clock(14, 0), End: clock(22, 0), DurationHoursScaled: 8 * catalog.HoursScale,
			WorksWeekday:       allWeekdays(),
			Staffing:           catalog.StaffBounds{MinWeekday: 1, MaxWeekday: 2, MinWeekend: 1, MaxWeekend: 1},
			WeeklyWorkingHours: 40 * catalog.HoursScale, MaxConsecutiveDays: 5,
		},
		{
			ID: ShiftTypeN, Code: catalog.ShiftNight, DisplayName: "Night",
			Start: clock(22, 0), End: clock(6, 0), DurationHoursScaled: 8 * catalog.HoursScale,
			WorksWeekday:       allWeekdays(),
			Staffing:           catalog.StaffBounds{MinWeekday: 1, MaxWeekday: 1, MinWeekend: 1, MaxWeekend: 1},
			WeeklyWorkingHours: 40 * catalog.HoursScale, MaxConsecutiveDays: 4,
		},
		{
			ID: ShiftTypeBMT, Code: catalog.ShiftBMT, DisplayName: "Shift Supervisor",
			Start: clock(8, 0), End: clock(16, 0), DurationHoursScaled: 8 * catalog.HoursScale,
			WorksWeekday: onlyWeekdays(), IsSpecialFunction: true,
		},
		{
			ID: ShiftTypeBSB, Code: catalog.ShiftBSB, DisplayName: "On-call Backup",
			Start: clock(8, 0), End: clock(16, 0), DurationHoursScaled: 8 * catalog.HoursScale,
			WorksWeekday: onlyWeekdays(), IsSpecialFunction: true,
		},
		{
			ID: ShiftTypeTD, Code: catalog.ShiftTD, DisplayName: "Day Duty",
			WorksWeekday: onlyWeekdays(), IsSpecialFunction: true,
		},
	}
}

// Teams returns two rotating teams that may both run F/S/N plus BMT/BSB/TD.
func Teams() []catalog.Team {
	return []catalog.Team{
		{ID: TeamAlpha, Name: "Team Alpha"},
		{ID: TeamBeta, Name: "Team Beta"},
	}
}

// Employees returns four members per team (one TD-qualified per team) plus
// one unattached springer floater, all hired well before any test window
// and active.
func Employees() []catalog.Employee {
	hired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	teamA, teamB := TeamAlpha, TeamBeta
	mk := func(id int64, team *int64, td bool) catalog.Employee {
		return catalog.Employee{
			ID: id, PersonnelNumber: "E" + strconv.FormatInt(id, 10), FirstName: "Firstname", LastName: "Lastname",
			TeamID: team, QualifiedTD: td, QualifiedBMT: true, QualifiedBSB: true,
			HireDate: hired, Active: true, VacationDaysYear: 30,
		}
	}
	return []catalog.Employee{
		mk(1, &teamA, true), mk(2, &teamA, false), mk(3, &teamA, false), mk(4, &teamA, false),
		mk(5, &teamB, true), mk(6, &teamB, false), mk(7, &teamB, false), mk(8, &teamB, false),
		mk(9, nil, false), // springer floater
	}
}

// Catalog assembles Employees/Teams/ShiftTypes into a ready *catalog.Catalog
// using the engine's default global settings.
func Catalog() *catalog.Catalog {
	return catalog.New(Employees(), Teams(), ShiftTypes(), nil, catalog.DefaultGlobalSettings())
}
