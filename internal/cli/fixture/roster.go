package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/model"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/roster/window"
)

// RosterFile is the roster.json document `roster plan` writes and
// `roster validate`/`roster replace` read back: the fixture inputs that
// produced a roster plus the extracted result, so a later command can
// re-validate or patch it without re-solving.
type RosterFile struct {
	Fixture     Document  `json:"fixture"`
	WindowStart string    `json:"window_start"`
	WindowEnd   string    `json:"window_end"`
	Result      ResultDTO `json:"result"`
}

// ResultDTO is the JSON-friendly projection of solver.Result.
type ResultDTO struct {
	Status           string               `json:"status"`
	Assignments      []AssignmentResultDTO `json:"assignments"`
	SpecialFunctions []SpecialFunctionDTO `json:"special_functions"`
	CompleteSchedule map[string]string    `json:"complete_schedule"` // "employeeID|YYYY-MM-DD" -> code
	Diagnostics      []string             `json:"diagnostics,omitempty"`
}

type AssignmentResultDTO struct {
	EmployeeID  int64  `json:"employee_id"`
	Date        string `json:"date"`
	ShiftTypeID int64  `json:"shift_type_id"`
	ShiftCode   string `json:"shift_code"`
}

type SpecialFunctionDTO struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Code       string `json:"code"`
}

func scheduleKeyString(employeeID int64, date time.Time) string {
	return fmt.Sprintf("%d|%s", employeeID, date.Format("2006-01-02"))
}

// ToResultDTO projects a solver.Result into its JSON-friendly form.
func ToResultDTO(r *solver.Result) ResultDTO {
	dto := ResultDTO{
		Status:      string(r.Status),
		Diagnostics: r.Diagnostics,
	}
	for _, a := range r.Assignments {
		dto.Assignments = append(dto.Assignments, AssignmentResultDTO{
			EmployeeID: a.EmployeeID, Date: a.Date.Format("2006-01-02"),
			ShiftTypeID: a.ShiftTypeID, ShiftCode: a.ShiftCode,
		})
	}
	for _, sf := range r.SpecialFunctions {
		dto.SpecialFunctions = append(dto.SpecialFunctions, SpecialFunctionDTO{
			EmployeeID: sf.EmployeeID, Date: sf.Date.Format("2006-01-02"), Code: sf.Code,
		})
	}
	dto.CompleteSchedule = make(map[string]string, len(r.CompleteSchedule))
	for k, code := range r.CompleteSchedule {
		dto.CompleteSchedule[scheduleKeyString(k.EmployeeID, k.Date)] = code
	}
	return dto
}

// ToResult reconstructs a solver.Result from its JSON-friendly form.
func (dto ResultDTO) ToResult() (*solver.Result, error) {
	result := &solver.Result{
		Status:           solver.Status(dto.Status),
		Diagnostics:      dto.Diagnostics,
		CompleteSchedule: make(map[solver.ScheduleKey]string, len(dto.CompleteSchedule)),
	}
	for _, a := range dto.Assignments {
		date, err := parseDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("assignment date: %w", err)
		}
		result.Assignments = append(result.Assignments, solver.Assignment{
			EmployeeID: a.EmployeeID, Date: date, ShiftTypeID: a.ShiftTypeID, ShiftCode: a.ShiftCode,
		})
	}
	for _, sf := range dto.SpecialFunctions {
		date, err := parseDate(sf.Date)
		if err != nil {
			return nil, fmt.Errorf("special function date: %w", err)
		}
		result.SpecialFunctions = append(result.SpecialFunctions, solver.SpecialFunction{
			EmployeeID: sf.EmployeeID, Date: date, Code: sf.Code,
		})
	}
	for key, code := range dto.CompleteSchedule {
		var employeeID int64
		var dateStr string
		if _, err := fmt.Sscanf(key, "%d|%s", &employeeID, &dateStr); err != nil {
			return nil, fmt.Errorf("malformed complete_schedule key %q: %w", key, err)
		}
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("complete_schedule key %q date: %w", key, err)
		}
		result.CompleteSchedule[solver.ScheduleKey{EmployeeID: employeeID, Date: date}] = code
	}
	return result, nil
}

// LoadRosterFile reads and parses a roster.json document.
func LoadRosterFile(path string) (*RosterFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file %s: %w", path, err)
	}
	var rf RosterFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing roster file %s: %w", path, err)
	}
	return &rf, nil
}

// Save writes rf as indented JSON to path.
func (rf *RosterFile) Save(path string) error {
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding roster file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// employeeTeamLookup adapts a *catalog.Catalog to locks.EmployeeTeamLookup.
type employeeTeamLookup struct{ c *catalog.Catalog }

func (l employeeTeamLookup) TeamOf(employeeID int64) (int64, bool) {
	e, ok := l.c.Employee(employeeID)
	if !ok || e.TeamID == nil {
		return 0, false
	}
	return *e.TeamID, true
}

// BuildInput assembles a *model.Input from the fixture document: expands
// the window, consolidates raw locks against it, and drops any lock
// shadowed by an absence (spec.md §4's Lock Consolidator pipeline).
func (d *Document) BuildInput(start, end time.Time) (*model.Input, []locks.Conflict, error) {
	c, err := d.BuildCatalog()
	if err != nil {
		return nil, nil, err
	}
	absences, err := d.BuildAbsences()
	if err != nil {
		return nil, nil, err
	}
	rawLocks, err := d.BuildLocks()
	if err != nil {
		return nil, nil, err
	}
	prior, err := d.BuildPriorAssignments(c)
	if err != nil {
		return nil, nil, err
	}

	win, err := window.Expand(start, end)
	if err != nil {
		return nil, nil, err
	}

	consolidated, conflicts := locks.Consolidate(rawLocks, win.WeekIndexOf, employeeTeamLookup{c})
	final, absentConflicts := locks.DropAbsent(consolidated, func(employeeID int64, date time.Time) bool {
		for _, a := range absences {
			if a.EmployeeID == employeeID && a.Covers(date) {
				return true
			}
		}
		return false
	})
	conflicts = append(conflicts, absentConflicts...)

	return &model.Input{
		Catalog:          c,
		Window:           win,
		Absences:         absences,
		Locks:            final,
		PriorAssignments: prior,
	}, conflicts, nil
}
