// Package postgresstore is the production Store adapter (SPEC_FULL.md
// §6.1): sqlx + lib/pq for execution, Masterminds/squirrel for the
// variable-filter listing queries that the teacher built by hand-
// concatenating a WHERE clause string in
// internal/staff/repository/shift.go's ListAssignments. Table and column
// names here are this engine's own schema, not the teacher's.
package postgresstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/rosterr"
	"github.com/rosterforge/engine/internal/store"
	"github.com/rosterforge/engine/pkg/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is the Postgres-backed implementation of store.Store.
type Store struct {
	db *database.DB
}

// New wraps an already-connected database.DB.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

var _ store.Store = (*Store)(nil)

type employeeRow struct {
	ID               int64      `db:"id"`
	PersonnelNumber  string     `db:"personnel_number"`
	FirstName        string     `db:"first_name"`
	LastName         string     `db:"last_name"`
	Email            string     `db:"email"`
	TeamID           *int64     `db:"team_id"`
	QualifiedTD      bool       `db:"qualified_td"`
	QualifiedBMT     bool       `db:"qualified_bmt"`
	QualifiedBSB     bool       `db:"qualified_bsb"`
	IsTeamLeader     bool       `db:"is_team_leader"`
	IsTemporary      bool       `db:"is_temporary_worker"`
	HireDate         time.Time  `db:"hire_date"`
	Active           bool       `db:"active"`
	VacationDaysYear int        `db:"vacation_days_year"`
}

type teamRow struct {
	ID              int64   `db:"id"`
	Name            string  `db:"name"`
	Description     string  `db:"description"`
	Color           string  `db:"color"`
	IsVirtual       bool    `db:"is_virtual"`
	RotationGroupID *int64  `db:"rotation_group_id"`
}

type teamShiftTypeRow struct {
	TeamID      int64 `db:"team_id"`
	ShiftTypeID int64 `db:"shift_type_id"`
}

type shiftTypeRow struct {
	ID                  int64  `db:"id"`
	Code                string `db:"code"`
	DisplayName         string `db:"display_name"`
	StartMinutes        int    `db:"start_minutes"`
	EndMinutes          int    `db:"end_minutes"`
	DurationHoursScaled int    `db:"duration_hours_scaled"`
	WeeklyWorkingHours  int    `db:"weekly_working_hours"`
	MaxConsecutiveDays  int    `db:"max_consecutive_days"`
	IsSpecialFunction   bool   `db:"is_special_function"`
	MinWeekday          int    `db:"min_staff_weekday"`
	MaxWeekday          int    `db:"max_staff_weekday"`
	MinWeekend          int    `db:"min_staff_weekend"`
	MaxWeekend          int    `db:"max_staff_weekend"`
}

type rotationGroupRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type rotationGroupShiftRow struct {
	RotationGroupID int64  `db:"rotation_group_id"`
	Position        int    `db:"position"`
	ShiftTypeCode   string `db:"shift_type_code"`
}

// LoadCatalog loads every entity needed for one solve. Rows are not
// filtered by the active flag; inactive employees are included.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var employeeRows []employeeRow
	if err := s.db.SelectContext(ctx, &employeeRows, `
		SELECT id, personnel_number, first_name, last_name, email, team_id,
		       qualified_td, qualified_bmt, qualified_bsb, is_team_leader,
		       is_temporary_worker, hire_date, active, vacation_days_year
		FROM employees
	`); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading employees")
	}

	var teamRows []teamRow
	if err := s.db.SelectContext(ctx, &teamRows, `
		SELECT id, name, description, color, is_virtual, rotation_group_id
		FROM teams
	`); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading teams")
	}

	var teamShiftTypeRows []teamShiftTypeRow
	if err := s.db.SelectContext(ctx, &teamShiftTypeRows, `
		SELECT team_id, shift_type_id FROM team_allowed_shift_types
	`); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading team shift-type permissions")
	}

	var shiftTypeRows []shiftTypeRow
	if err := s.db.SelectContext(ctx, &shiftTypeRows, `
		SELECT id, code, display_name, start_minutes, end_minutes,
		       duration_hours_scaled, weekly_working_hours, max_consecutive_days,
		       is_special_function, min_staff_weekday, max_staff_weekday,
		       min_staff_weekend, max_staff_weekend
		FROM shift_types
	`); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading shift types")
	}

	var rotationGroupRows []rotationGroupRow
	if err := s.db.SelectContext(ctx, &rotationGroupRows, `SELECT id, name FROM rotation_groups`); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading rotation groups")
	}
	var rotationGroupShiftRows []rotationGroupShiftRow
	if err := s.db.SelectContext(ctx, &rotationGroupShiftRows, `
		SELECT rotation_group_id, position, shift_type_code FROM rotation_group_shifts ORDER BY position
	`); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading rotation group shifts")
	}

	return assembleCatalog(employeeRows, teamRows, teamShiftTypeRows, shiftTypeRows, rotationGroupRows, rotationGroupShiftRows)
}

// assembleCatalog converts flat row sets into the nested Catalog entities,
// resolving the junction tables (team_allowed_shift_types,
// rotation_group_shifts) into the in-memory maps/slices catalog.New wants.
func assembleCatalog(
	employeeRows []employeeRow,
	teamRows []teamRow,
	teamShiftTypeRows []teamShiftTypeRow,
	shiftTypeRows []shiftTypeRow,
	rotationGroupRows []rotationGroupRow,
	rotationGroupShiftRows []rotationGroupShiftRow,
) (*catalog.Catalog, error) {
	shiftTypes := make([]catalog.ShiftType, 0, len(shiftTypeRows))
	shiftTypeIDByCode := make(map[string]int64, len(shiftTypeRows))
	for _, r := range shiftTypeRows {
		st := catalog.ShiftType{
			ID:                  r.ID,
			Code:                r.Code,
			DisplayName:         r.DisplayName,
			DurationHoursScaled: r.DurationHoursScaled,
			WeeklyWorkingHours:  r.WeeklyWorkingHours,
			MaxConsecutiveDays:  r.MaxConsecutiveDays,
			IsSpecialFunction:   r.IsSpecialFunction,
			Staffing: catalog.StaffBounds{
				MinWeekday: r.MinWeekday, MaxWeekday: r.MaxWeekday,
				MinWeekend: r.MinWeekend, MaxWeekend: r.MaxWeekend,
			},
		}
		for d := 0; d < 7; d++ {
			st.WorksWeekday[d] = true
		}
		shiftTypes = append(shiftTypes, st)
		shiftTypeIDByCode[r.Code] = r.ID
	}

	allowedByTeam := make(map[int64]map[int64]struct{})
	for _, r := range teamShiftTypeRows {
		if allowedByTeam[r.TeamID] == nil {
			allowedByTeam[r.TeamID] = make(map[int64]struct{})
		}
		allowedByTeam[r.TeamID][r.ShiftTypeID] = struct{}{}
	}

	teams := make([]catalog.Team, 0, len(teamRows))
	for _, r := range teamRows {
		teams = append(teams, catalog.Team{
			ID: r.ID, Name: r.Name, Description: r.Description, Color: r.Color,
			IsVirtual: r.IsVirtual, RotationGroupID: r.RotationGroupID,
			AllowedShiftTypeIDs: allowedByTeam[r.ID],
		})
	}

	employees := make([]catalog.Employee, 0, len(employeeRows))
	for _, r := range employeeRows {
		employees = append(employees, catalog.Employee{
			ID: r.ID, PersonnelNumber: r.PersonnelNumber, FirstName: r.FirstName,
			LastName: r.LastName, Email: r.Email, TeamID: r.TeamID,
			QualifiedTD: r.QualifiedTD, QualifiedBMT: r.QualifiedBMT, QualifiedBSB: r.QualifiedBSB,
			IsTeamLeader: r.IsTeamLeader, IsTemporaryWorker: r.IsTemporary,
			HireDate: r.HireDate, Active: r.Active, VacationDaysYear: r.VacationDaysYear,
		})
	}

	shiftsByGroup := make(map[int64][]catalog.RotationGroupShift)
	for _, r := range rotationGroupShiftRows {
		shiftsByGroup[r.RotationGroupID] = append(shiftsByGroup[r.RotationGroupID], catalog.RotationGroupShift{
			Position:    r.Position,
			ShiftTypeID: shiftTypeIDByCode[r.ShiftTypeCode],
		})
	}
	rotationGroups := make([]catalog.RotationGroup, 0, len(rotationGroupRows))
	for _, r := range rotationGroupRows {
		rotationGroups = append(rotationGroups, catalog.RotationGroup{ID: r.ID, Name: r.Name, Shifts: shiftsByGroup[r.ID]})
	}

	return catalog.New(employees, teams, shiftTypes, rotationGroups, catalog.DefaultGlobalSettings()), nil
}

// LoadAbsences returns absences overlapping window, built with squirrel
// instead of the teacher's hand-concatenated WHERE clause.
func (s *Store) LoadAbsences(ctx context.Context, window store.DateRange) ([]catalog.Absence, error) {
	query, args, err := psql.Select("id", "employee_id", "code", "start_date", "end_date", "notes").
		From("absences").
		Where(sq.LtOrEq{"start_date": window.End}).
		Where(sq.GtOrEq{"end_date": window.Start}).
		ToSql()
	if err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "building absences query")
	}

	var rows []struct {
		ID         int64     `db:"id"`
		EmployeeID int64     `db:"employee_id"`
		Code       string    `db:"code"`
		StartDate  time.Time `db:"start_date"`
		EndDate    time.Time `db:"end_date"`
		Notes      string    `db:"notes"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading absences")
	}

	out := make([]catalog.Absence, 0, len(rows))
	for _, r := range rows {
		out = append(out, catalog.Absence{ID: r.ID, EmployeeID: r.EmployeeID, Code: r.Code, Start: r.StartDate, End: r.EndDate, Notes: r.Notes})
	}
	return out, nil
}

// LoadLocks returns the raw (pre-consolidation) locks for window.
func (s *Store) LoadLocks(ctx context.Context, window store.DateRange) (locks.Locks, error) {
	l := locks.New()

	var teamRows []struct {
		TeamID    int64  `db:"team_id"`
		WeekIndex int    `db:"week_index"`
		Code      string `db:"code"`
	}
	query, args, err := psql.Select("team_id", "week_index", "code").
		From("team_shift_locks").
		Where(sq.GtOrEq{"week_start": window.Start}).
		Where(sq.LtOrEq{"week_start": window.End}).
		ToSql()
	if err != nil {
		return l, rosterr.Wrap(err, rosterr.KindInput, "building team lock query")
	}
	if err := s.db.SelectContext(ctx, &teamRows, s.db.Rebind(query), args...); err != nil {
		return l, rosterr.Wrap(err, rosterr.KindInput, "loading team locks")
	}
	for _, r := range teamRows {
		l.TeamShift[locks.TeamWeekKey{TeamID: r.TeamID, WeekIndex: r.WeekIndex}] = r.Code
	}

	var employeeRows []struct {
		EmployeeID int64     `db:"employee_id"`
		Date       time.Time `db:"lock_date"`
		Code       string    `db:"code"`
	}
	if err := s.db.SelectContext(ctx, &employeeRows, `
		SELECT employee_id, lock_date, code FROM employee_shift_locks
		WHERE lock_date BETWEEN $1 AND $2
	`, window.Start, window.End); err != nil {
		return l, rosterr.Wrap(err, rosterr.KindInput, "loading employee locks")
	}
	for _, r := range employeeRows {
		l.EmployeeShift[locks.EmployeeDateKey{EmployeeID: r.EmployeeID, Date: r.Date}] = r.Code
	}

	return l, nil
}

// LoadPriorAssignments returns persisted shifts in [before-lookbackDays,
// before) for cross-period consecutive-day accounting (spec.md §5).
func (s *Store) LoadPriorAssignments(ctx context.Context, before time.Time, lookbackDays int) ([]catalog.ShiftAssignment, error) {
	cutoff := before.AddDate(0, 0, -lookbackDays)

	var rows []struct {
		ID          int64     `db:"id"`
		EmployeeID  int64     `db:"employee_id"`
		ShiftTypeID int64     `db:"shift_type_id"`
		Date        time.Time `db:"shift_date"`
		IsManual    bool      `db:"is_manual"`
		IsFixed     bool      `db:"is_fixed"`
		IsSpringer  bool      `db:"is_springer_assignment"`
		Notes       string    `db:"notes"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, employee_id, shift_type_id, shift_date, is_manual, is_fixed,
		       is_springer_assignment, notes
		FROM shift_assignments
		WHERE shift_date >= $1 AND shift_date < $2
	`, cutoff, before); err != nil {
		return nil, rosterr.Wrap(err, rosterr.KindInput, "loading prior assignments")
	}

	out := make([]catalog.ShiftAssignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, catalog.ShiftAssignment{
			ID: r.ID, EmployeeID: r.EmployeeID, ShiftTypeID: r.ShiftTypeID, Date: r.Date,
			IsManual: r.IsManual, IsFixed: r.IsFixed, IsSpringerAssignment: r.IsSpringer, Notes: r.Notes,
		})
	}
	return out, nil
}

// SaveRoster persists every extracted assignment and special function
// inside a single transaction, grounded on the teacher's
// db.Transaction(ctx, fn) wrapper.
func (s *Store) SaveRoster(ctx context.Context, result *solver.Result) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		ctx := s.db.WithTx(ctx, tx)
		for _, a := range result.Assignments {
			if _, err := s.db.ExecContext(ctx, `
				INSERT INTO shift_assignments (employee_id, shift_type_id, shift_date, is_springer_assignment)
				VALUES ($1, $2, $3, false)
				ON CONFLICT (employee_id, shift_date) DO UPDATE SET shift_type_id = EXCLUDED.shift_type_id
			`, a.EmployeeID, a.ShiftTypeID, a.Date); err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "saving assignment")
			}
		}
		for _, sf := range result.SpecialFunctions {
			if _, err := s.db.ExecContext(ctx, `
				INSERT INTO special_function_assignments (employee_id, code, assignment_date)
				VALUES ($1, $2, $3)
				ON CONFLICT (employee_id, assignment_date) DO UPDATE SET code = EXCLUDED.code
			`, sf.EmployeeID, sf.Code, sf.Date); err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "saving special function")
			}
		}
		return nil
	})
}

// SaveNotifications bulk-inserts queued notification records.
func (s *Store) SaveNotifications(ctx context.Context, notifications []notify.Record) error {
	if len(notifications) == 0 {
		return nil
	}

	insert := psql.Insert("notifications").Columns("type", "occurred_at", "summary", "severity")
	for _, n := range notifications {
		insert = insert.Values(n.Type, n.Timestamp, n.Summary, string(n.Severity))
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return rosterr.Wrap(err, rosterr.KindInput, "building notifications insert")
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return rosterr.Wrap(err, rosterr.KindInput, "saving notifications")
	}
	return nil
}
