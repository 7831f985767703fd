package postgresstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/store"
	"github.com/rosterforge/engine/internal/store/postgresstore"
	"github.com/rosterforge/engine/pkg/database"
	"github.com/rosterforge/engine/pkg/logger"
)

// schema creates the engine's own tables — not the teacher's staff schema —
// against a fresh container, mirroring the column set postgresstore's SELECTs
// and INSERTs expect.
const schema = `
CREATE TABLE rotation_groups (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE rotation_group_shifts (
	rotation_group_id BIGINT NOT NULL REFERENCES rotation_groups(id),
	position INT NOT NULL,
	shift_type_code TEXT NOT NULL
);
CREATE TABLE teams (
	id BIGINT PRIMARY KEY, name TEXT NOT NULL, description TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '', is_virtual BOOLEAN NOT NULL DEFAULT false,
	rotation_group_id BIGINT REFERENCES rotation_groups(id)
);
CREATE TABLE team_allowed_shift_types (team_id BIGINT NOT NULL, shift_type_id BIGINT NOT NULL);
CREATE TABLE shift_types (
	id BIGINT PRIMARY KEY, code TEXT NOT NULL, display_name TEXT NOT NULL,
	start_minutes INT NOT NULL DEFAULT 0, end_minutes INT NOT NULL DEFAULT 0,
	duration_hours_scaled INT NOT NULL, weekly_working_hours INT NOT NULL DEFAULT 0,
	max_consecutive_days INT NOT NULL DEFAULT 0, is_special_function BOOLEAN NOT NULL DEFAULT false,
	min_staff_weekday INT NOT NULL DEFAULT 0, max_staff_weekday INT NOT NULL DEFAULT 0,
	min_staff_weekend INT NOT NULL DEFAULT 0, max_staff_weekend INT NOT NULL DEFAULT 0
);
CREATE TABLE employees (
	id BIGINT PRIMARY KEY, personnel_number TEXT NOT NULL, first_name TEXT NOT NULL,
	last_name TEXT NOT NULL, email TEXT NOT NULL DEFAULT '', team_id BIGINT REFERENCES teams(id),
	qualified_td BOOLEAN NOT NULL DEFAULT false, qualified_bmt BOOLEAN NOT NULL DEFAULT false,
	qualified_bsb BOOLEAN NOT NULL DEFAULT false, is_team_leader BOOLEAN NOT NULL DEFAULT false,
	is_temporary_worker BOOLEAN NOT NULL DEFAULT false, hire_date DATE NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true, vacation_days_year INT NOT NULL DEFAULT 30
);
CREATE TABLE absences (
	id BIGSERIAL PRIMARY KEY, employee_id BIGINT NOT NULL, code TEXT NOT NULL,
	start_date DATE NOT NULL, end_date DATE NOT NULL, notes TEXT NOT NULL DEFAULT ''
);
CREATE TABLE team_shift_locks (team_id BIGINT NOT NULL, week_index INT NOT NULL, week_start DATE NOT NULL, code TEXT NOT NULL);
CREATE TABLE employee_shift_locks (employee_id BIGINT NOT NULL, lock_date DATE NOT NULL, code TEXT NOT NULL);
CREATE TABLE shift_assignments (
	id BIGSERIAL PRIMARY KEY, employee_id BIGINT NOT NULL, shift_type_id BIGINT NOT NULL,
	shift_date DATE NOT NULL, is_manual BOOLEAN NOT NULL DEFAULT false, is_fixed BOOLEAN NOT NULL DEFAULT false,
	is_springer_assignment BOOLEAN NOT NULL DEFAULT false, notes TEXT NOT NULL DEFAULT '',
	UNIQUE (employee_id, shift_date)
);
CREATE TABLE special_function_assignments (
	employee_id BIGINT NOT NULL, code TEXT NOT NULL, assignment_date DATE NOT NULL,
	UNIQUE (employee_id, assignment_date)
);
CREATE TABLE notifications (id BIGSERIAL PRIMARY KEY, type TEXT NOT NULL, occurred_at TIMESTAMPTZ NOT NULL, summary TEXT NOT NULL, severity TEXT NOT NULL);
`

var testDB *database.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("roster_test"),
		postgres.WithUsername("roster"),
		postgres.WithPassword("roster"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		panic("failed to start postgres container: " + err.Error())
	}
	defer container.Terminate(ctx)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic("failed to resolve container DSN: " + err.Error())
	}

	log := logger.New("roster-planner-test", "test")
	testDB, err = database.NewWithDSN(dsn, log)
	if err != nil {
		panic("failed to connect to test container: " + err.Error())
	}
	defer testDB.Close()

	if _, err := testDB.ExecContext(ctx, schema); err != nil {
		panic("failed to create schema: " + err.Error())
	}

	os.Exit(m.Run())
}

func seedCatalogRows(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := testDB.ExecContext(ctx, `
		INSERT INTO shift_types (id, code, display_name, duration_hours_scaled, weekly_working_hours, max_consecutive_days, min_staff_weekday, max_staff_weekday, min_staff_weekend, max_staff_weekend)
		VALUES (1, 'F', 'Early', 80, 400, 5, 1, 2, 1, 1)
	`)
	require.NoError(t, err)

	_, err = testDB.ExecContext(ctx, `INSERT INTO teams (id, name) VALUES (1, 'Team Alpha')`)
	require.NoError(t, err)

	_, err = testDB.ExecContext(ctx, `
		INSERT INTO employees (id, personnel_number, first_name, last_name, team_id, hire_date)
		VALUES (1, 'E1', 'Firstname', 'Lastname', 1, '2020-01-01')
	`)
	require.NoError(t, err)

	t.Cleanup(func() {
		testDB.ExecContext(ctx, `TRUNCATE shift_types, teams, employees, absences, shift_assignments, special_function_assignments, notifications, team_shift_locks, employee_shift_locks RESTART IDENTITY CASCADE`)
	})
}

func TestStore_LoadCatalogAssemblesEntitiesFromRows(t *testing.T) {
	ctx := context.Background()
	seedCatalogRows(t, ctx)
	s := postgresstore.New(testDB)

	c, err := s.LoadCatalog(ctx)

	require.NoError(t, err)
	employee, ok := c.Employee(1)
	require.True(t, ok)
	require.NotNil(t, employee.TeamID)
	assert.Equal(t, int64(1), *employee.TeamID)

	st, ok := c.ShiftTypeByCode("F")
	require.True(t, ok)
	assert.Equal(t, 80, st.DurationHoursScaled)
}

func TestStore_LoadAbsencesFiltersByOverlap(t *testing.T) {
	ctx := context.Background()
	seedCatalogRows(t, ctx)
	_, err := testDB.ExecContext(ctx, `
		INSERT INTO absences (employee_id, code, start_date, end_date) VALUES (1, 'AU', '2026-03-01', '2026-03-03')
	`)
	require.NoError(t, err)

	s := postgresstore.New(testDB)
	got, err := s.LoadAbsences(ctx, store.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, catalog.AbsenceSick, got[0].Code)
}

func TestStore_SaveRosterIsIdempotentUnderConflictUpdate(t *testing.T) {
	ctx := context.Background()
	seedCatalogRows(t, ctx)
	s := postgresstore.New(testDB)
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	result := &solver.Result{
		Status: solver.StatusOptimal,
		Assignments: []solver.Assignment{
			{EmployeeID: 1, ShiftTypeID: 1, Date: date, ShiftCode: "F"},
		},
	}

	require.NoError(t, s.SaveRoster(ctx, result))
	require.NoError(t, s.SaveRoster(ctx, result)) // re-save must not violate the unique constraint

	var count int
	require.NoError(t, testDB.GetContext(ctx, &count, `SELECT count(*) FROM shift_assignments WHERE employee_id = 1 AND shift_date = $1`, date))
	assert.Equal(t, 1, count)
}

func TestStore_SaveNotificationsBulkInserts(t *testing.T) {
	ctx := context.Background()
	seedCatalogRows(t, ctx)
	s := postgresstore.New(testDB)

	records := []notify.Record{
		{Type: "roster.springer.assigned", Timestamp: time.Now().UTC(), Summary: "x", Severity: notify.SeverityInfo},
		{Type: "roster.springer.no_replacement_found", Timestamp: time.Now().UTC(), Summary: "y", Severity: notify.SeverityWarning},
	}

	require.NoError(t, s.SaveNotifications(ctx, records))

	var count int
	require.NoError(t, testDB.GetContext(ctx, &count, `SELECT count(*) FROM notifications`))
	assert.Equal(t, 2, count)
}
