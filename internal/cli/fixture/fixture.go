// Package fixture loads the JSON document the CLI's --dry-run flag and the
// validate/replace subcommands read in place of the Store port, so a
// roster can be planned, validated, or patched without Postgres.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
)

var validate = validator.New()

// Document is the on-disk shape of a --dry-run fixture: a full catalog
// snapshot plus the transient absence/lock/history inputs a real Store
// would otherwise load from Postgres.
type Document struct {
	Employees        []EmployeeDTO        `json:"employees" validate:"dive"`
	Teams            []TeamDTO            `json:"teams"`
	ShiftTypes       []ShiftTypeDTO       `json:"shift_types"`
	RotationGroups   []RotationGroupDTO   `json:"rotation_groups"`
	Absences         []AbsenceDTO         `json:"absences" validate:"dive"`
	Locks            LocksDTO             `json:"locks"`
	PriorAssignments []AssignmentDTO      `json:"prior_assignments"`
}

type EmployeeDTO struct {
	ID                int64  `json:"id" validate:"required"`
	PersonnelNumber   string `json:"personnel_number" validate:"required"`
	FirstName         string `json:"first_name" validate:"required"`
	LastName          string `json:"last_name" validate:"required"`
	Email             string `json:"email" validate:"omitempty,email"`
	TeamID            *int64 `json:"team_id"`
	QualifiedTD       bool   `json:"qualified_td"`
	QualifiedBMT      bool   `json:"qualified_bmt"`
	QualifiedBSB      bool   `json:"qualified_bsb"`
	IsTeamLeader      bool   `json:"is_team_leader"`
	IsTemporaryWorker bool   `json:"is_temporary_worker"`
	HireDate          string `json:"hire_date" validate:"required"`
	Active            bool   `json:"active"`
	VacationDaysYear  int    `json:"vacation_days_year" validate:"gte=0"`
}

type TeamDTO struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Color               string  `json:"color"`
	IsVirtual           bool    `json:"is_virtual"`
	AllowedShiftTypeIDs []int64 `json:"allowed_shift_type_ids"`
	RotationGroupID     *int64  `json:"rotation_group_id"`
}

type ShiftTypeDTO struct {
	ID                  int64  `json:"id"`
	Code                string `json:"code"`
	DisplayName         string `json:"display_name"`
	StartTime           string `json:"start_time"` // "HH:MM"
	EndTime             string `json:"end_time"`
	DurationHoursScaled int    `json:"duration_hours_scaled"`
	WorksWeekday        [7]bool `json:"works_weekday"` // Sunday-first
	MinWeekday          int    `json:"min_weekday"`
	MaxWeekday          int    `json:"max_weekday"`
	MinWeekend          int    `json:"min_weekend"`
	MaxWeekend          int    `json:"max_weekend"`
	WeeklyWorkingHours  int    `json:"weekly_working_hours"`
	MaxConsecutiveDays  int    `json:"max_consecutive_days"`
	IsSpecialFunction   bool   `json:"is_special_function"`
}

type RotationGroupDTO struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Codes  []string `json:"codes"` // ordered shift codes, resolved against ShiftTypes by Code
}

type AbsenceDTO struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee_id" validate:"required"`
	Code       string `json:"code" validate:"required,oneof=U AU L"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
	Notes      string `json:"notes"`
}

type AssignmentDTO struct {
	ID                   int64  `json:"id"`
	EmployeeID           int64  `json:"employee_id"`
	ShiftCode            string `json:"shift_code"`
	Date                 string `json:"date"`
	IsManual             bool   `json:"is_manual"`
	IsFixed              bool   `json:"is_fixed"`
	IsSpringerAssignment bool   `json:"is_springer_assignment"`
}

// LocksDTO mirrors locks.Locks in a JSON-friendly, flat-key shape.
type LocksDTO struct {
	TeamShift       []TeamShiftLockDTO     `json:"team_shift"`
	EmployeeShift   []EmployeeShiftLockDTO `json:"employee_shift"`
	EmployeeWeekend []EmployeeDateLockDTO  `json:"employee_weekend"`
	TD              []EmployeeWeekLockDTO  `json:"td"`
}

type TeamShiftLockDTO struct {
	TeamID    int64  `json:"team_id"`
	WeekIndex int    `json:"week_index"`
	Code      string `json:"code"`
}

type EmployeeShiftLockDTO struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Code       string `json:"code"`
}

type EmployeeDateLockDTO struct {
	EmployeeID int64 `json:"employee_id"`
	Date       string `json:"date"`
}

type EmployeeWeekLockDTO struct {
	EmployeeID int64 `json:"employee_id"`
	WeekIndex  int   `json:"week_index"`
}

// Load reads and parses a fixture document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("validating fixture %s: %w", path, err)
	}
	return &doc, nil
}

// BuildCatalog converts the fixture's entity sections into a
// *catalog.Catalog, applying the engine's default global settings.
func (d *Document) BuildCatalog() (*catalog.Catalog, error) {
	shiftByCode := make(map[string]int64, len(d.ShiftTypes))
	shiftTypes := make([]catalog.ShiftType, 0, len(d.ShiftTypes))
	for _, s := range d.ShiftTypes {
		start, err := parseClock(s.StartTime)
		if err != nil {
			return nil, fmt.Errorf("shift type %s start_time: %w", s.Code, err)
		}
		end, err := parseClock(s.EndTime)
		if err != nil {
			return nil, fmt.Errorf("shift type %s end_time: %w", s.Code, err)
		}
		shiftByCode[s.Code] = s.ID
		shiftTypes = append(shiftTypes, catalog.ShiftType{
			ID:                  s.ID,
			Code:                s.Code,
			DisplayName:         s.DisplayName,
			Start:               start,
			End:                 end,
			DurationHoursScaled: s.DurationHoursScaled,
			WorksWeekday:        s.WorksWeekday,
			Staffing: catalog.StaffBounds{
				MinWeekday: s.MinWeekday,
				MaxWeekday: s.MaxWeekday,
				MinWeekend: s.MinWeekend,
				MaxWeekend: s.MaxWeekend,
			},
			WeeklyWorkingHours: s.WeeklyWorkingHours,
			MaxConsecutiveDays: s.MaxConsecutiveDays,
			IsSpecialFunction:  s.IsSpecialFunction,
		})
	}

	rotationGroups := make([]catalog.RotationGroup, 0, len(d.RotationGroups))
	for _, rg := range d.RotationGroups {
		shifts := make([]catalog.RotationGroupShift, 0, len(rg.Codes))
		for i, code := range rg.Codes {
			id, ok := shiftByCode[code]
			if !ok {
				return nil, fmt.Errorf("rotation group %s references unknown shift code %q", rg.Name, code)
			}
			shifts = append(shifts, catalog.RotationGroupShift{Position: i, ShiftTypeID: id})
		}
		rotationGroups = append(rotationGroups, catalog.RotationGroup{ID: rg.ID, Name: rg.Name, Shifts: shifts})
	}

	teams := make([]catalog.Team, 0, len(d.Teams))
	for _, t := range d.Teams {
		allowed := make(map[int64]struct{}, len(t.AllowedShiftTypeIDs))
		for _, id := range t.AllowedShiftTypeIDs {
			allowed[id] = struct{}{}
		}
		teams = append(teams, catalog.Team{
			ID:                  t.ID,
			Name:                t.Name,
			Description:         t.Description,
			Color:               t.Color,
			IsVirtual:           t.IsVirtual,
			AllowedShiftTypeIDs: allowed,
			RotationGroupID:     t.RotationGroupID,
		})
	}

	employees := make([]catalog.Employee, 0, len(d.Employees))
	for _, e := range d.Employees {
		hireDate, err := parseDate(e.HireDate)
		if err != nil {
			return nil, fmt.Errorf("employee %d hire_date: %w", e.ID, err)
		}
		employees = append(employees, catalog.Employee{
			ID:                e.ID,
			PersonnelNumber:   e.PersonnelNumber,
			FirstName:         e.FirstName,
			LastName:          e.LastName,
			Email:             e.Email,
			TeamID:            e.TeamID,
			QualifiedTD:       e.QualifiedTD,
			QualifiedBMT:      e.QualifiedBMT,
			QualifiedBSB:      e.QualifiedBSB,
			IsTeamLeader:      e.IsTeamLeader,
			IsTemporaryWorker: e.IsTemporaryWorker,
			HireDate:          hireDate,
			Active:            e.Active,
			VacationDaysYear:  e.VacationDaysYear,
		})
	}

	return catalog.New(employees, teams, shiftTypes, rotationGroups, catalog.DefaultGlobalSettings()), nil
}

// BuildAbsences converts the fixture's absence section.
func (d *Document) BuildAbsences() ([]catalog.Absence, error) {
	out := make([]catalog.Absence, 0, len(d.Absences))
	for _, a := range d.Absences {
		start, err := parseDate(a.Start)
		if err != nil {
			return nil, fmt.Errorf("absence %d start: %w", a.ID, err)
		}
		end, err := parseDate(a.End)
		if err != nil {
			return nil, fmt.Errorf("absence %d end: %w", a.ID, err)
		}
		out = append(out, catalog.Absence{
			ID: a.ID, EmployeeID: a.EmployeeID, Code: a.Code, Start: start, End: end, Notes: a.Notes,
		})
	}
	return out, nil
}

// BuildLocks converts the fixture's raw lock section (pre-consolidation).
func (d *Document) BuildLocks() (locks.Locks, error) {
	out := locks.New()
	for _, l := range d.Locks.TeamShift {
		out.TeamShift[locks.TeamWeekKey{TeamID: l.TeamID, WeekIndex: l.WeekIndex}] = l.Code
	}
	for _, l := range d.Locks.EmployeeShift {
		date, err := parseDate(l.Date)
		if err != nil {
			return locks.Locks{}, fmt.Errorf("employee_shift lock for %d: %w", l.EmployeeID, err)
		}
		out.EmployeeShift[locks.EmployeeDateKey{EmployeeID: l.EmployeeID, Date: date}] = l.Code
	}
	for _, l := range d.Locks.EmployeeWeekend {
		date, err := parseDate(l.Date)
		if err != nil {
			return locks.Locks{}, fmt.Errorf("employee_weekend lock for %d: %w", l.EmployeeID, err)
		}
		out.EmployeeWeekend[locks.EmployeeDateKey{EmployeeID: l.EmployeeID, Date: date}] = true
	}
	for _, l := range d.Locks.TD {
		out.TD[locks.EmployeeWeekKey{EmployeeID: l.EmployeeID, WeekIndex: l.WeekIndex}] = true
	}
	return out, nil
}

// BuildPriorAssignments resolves the fixture's prior-assignment rows
// against c's shift-code lookup.
func (d *Document) BuildPriorAssignments(c *catalog.Catalog) ([]catalog.ShiftAssignment, error) {
	out := make([]catalog.ShiftAssignment, 0, len(d.PriorAssignments))
	for _, a := range d.PriorAssignments {
		date, err := parseDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("prior assignment %d date: %w", a.ID, err)
		}
		st, ok := c.ShiftTypeByCode(a.ShiftCode)
		if !ok {
			return nil, fmt.Errorf("prior assignment %d references unknown shift code %q", a.ID, a.ShiftCode)
		}
		out = append(out, catalog.ShiftAssignment{
			ID: a.ID, EmployeeID: a.EmployeeID, ShiftTypeID: st.ID, Date: date,
			IsManual: a.IsManual, IsFixed: a.IsFixed, IsSpringerAssignment: a.IsSpringerAssignment,
		})
	}
	return out, nil
}

// LoadAbsence reads a single-absence JSON file (the `roster replace
// --absence` input).
func LoadAbsence(path string) (*AbsenceDTO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading absence file %s: %w", path, err)
	}
	var a AbsenceDTO
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing absence file %s: %w", path, err)
	}
	if err := validate.Struct(a); err != nil {
		return nil, fmt.Errorf("validating absence file %s: %w", path, err)
	}
	return &a, nil
}

// ToAbsence converts the DTO into a catalog.Absence.
func (a *AbsenceDTO) ToAbsence() (catalog.Absence, error) {
	start, err := parseDate(a.Start)
	if err != nil {
		return catalog.Absence{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseDate(a.End)
	if err != nil {
		return catalog.Absence{}, fmt.Errorf("end: %w", err)
	}
	return catalog.Absence{
		ID: a.ID, EmployeeID: a.EmployeeID, Code: a.Code, Start: start, End: end, Notes: a.Notes,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseClock(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("15:04", s)
}
