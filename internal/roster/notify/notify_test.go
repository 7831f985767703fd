package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/pkg/messaging"
)

type fakeSink struct {
	records []notify.Record
}

func (f *fakeSink) Notify(r notify.Record) {
	f.records = append(f.records, r)
}

func TestQueue_SpringerAssignedEnqueuesAndFansOutToSinks(t *testing.T) {
	sink := &fakeSink{}
	q := notify.New(sink)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	q.SpringerAssigned("abs-1", 5, 9, date, "F")

	require.Len(t, q.Records(), 1)
	record := q.Records()[0]
	assert.Equal(t, messaging.EventSpringerAssigned, record.Type)
	assert.Equal(t, notify.SeverityInfo, record.Severity)
	assert.Equal(t, []string{"ops", "replacement"}, record.Roles)

	payload, ok := record.Payload.(messaging.SpringerAssignedEvent)
	require.True(t, ok)
	assert.Equal(t, "5", payload.AbsentEmployee)
	assert.Equal(t, "9", payload.ReplacementID)
	assert.Equal(t, "F", payload.ShiftTypeCode)

	require.Len(t, sink.records, 1)
	assert.Equal(t, record, sink.records[0])
}

func TestQueue_NoReplacementFoundIsWarningSeverity(t *testing.T) {
	q := notify.New()
	date := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	q.NoReplacementFound("abs-2", 5, date, "N", "no qualified unattached employee available")

	require.Len(t, q.Records(), 1)
	assert.Equal(t, notify.SeverityWarning, q.Records()[0].Severity)
	assert.Equal(t, []string{"ops"}, q.Records()[0].Roles)
}

func TestQueue_AbsenceAfterSolveRecordsPayload(t *testing.T) {
	q := notify.New()
	date := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	q.AbsenceAfterSolve("abs-3", 2, date)

	require.Len(t, q.Records(), 1)
	payload, ok := q.Records()[0].Payload.(messaging.AbsenceAfterSolveEvent)
	require.True(t, ok)
	assert.Equal(t, "abs-3", payload.AbsenceID)
	assert.Equal(t, "2", payload.EmployeeID)
}

func TestQueue_RecordsAccumulateInOrderAcrossMultipleEnqueues(t *testing.T) {
	q := notify.New()
	date := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)

	q.SpringerAssigned("abs-4", 1, 9, date, "F")
	q.NoReplacementFound("abs-5", 2, date, "S", "no candidates")

	records := q.Records()
	require.Len(t, records, 2)
	assert.Equal(t, messaging.EventSpringerAssigned, records[0].Type)
	assert.Equal(t, messaging.EventNoReplacementFound, records[1].Type)
}
