package postgresstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/store"
	"github.com/rosterforge/engine/internal/store/postgresstore"
	"github.com/rosterforge/engine/pkg/database"
	"github.com/rosterforge/engine/pkg/logger"
)

// newMockStore builds a postgresstore.Store around a go-sqlmock connection,
// for assertions on query shape that don't need a live database.
func newMockStore(t *testing.T) (*postgresstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	wrapped := database.NewForTest(sqlxDB, logger.New("roster-planner-test", "test"))
	return postgresstore.New(wrapped), mock
}

func TestStore_LoadAbsencesRebindsSquirrelPlaceholders(t *testing.T) {
	s, mock := newMockStore(t)
	window := store.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	rows := sqlmock.NewRows([]string{"id", "employee_id", "code", "start_date", "end_date", "notes"}).
		AddRow(1, 2, "AU", window.Start, window.Start.AddDate(0, 0, 2), "")
	mock.ExpectQuery(`SELECT id, employee_id, code, start_date, end_date, notes FROM absences WHERE`).
		WithArgs(window.End, window.Start).
		WillReturnRows(rows)

	got, err := s.LoadAbsences(context.Background(), window)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].EmployeeID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveNotificationsSkipsQueryWhenEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.SaveNotifications(context.Background(), nil)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet()) // no expectations were ever set, so none can be unmet
}

func TestStore_SaveNotificationsInsertsEachRecord(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs("roster.springer.assigned", sqlmock.AnyArg(), "x", "info").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.SaveNotifications(context.Background(), []notify.Record{
		{Type: "roster.springer.assigned", Timestamp: time.Now().UTC(), Summary: "x", Severity: notify.SeverityInfo},
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
