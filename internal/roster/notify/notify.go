// Package notify is the in-process Notification Queue (spec.md §4.6):
// every trigger produces a structured record and actual dispatch is an
// external collaborator, wired here as an optional best-effort publish to
// pkg/messaging.
package notify

import (
	"strconv"
	"time"

	"github.com/rosterforge/engine/pkg/messaging"
)

// Severity of a notification record.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Record is one structured notification: trigger type, timestamp,
// descriptive summary, recipient roles, and a typed payload.
type Record struct {
	Type      string
	Timestamp time.Time
	Summary   string
	Roles     []string
	Severity  Severity
	Payload   any
}

// Sink receives Records as they are enqueued. AMQPSink is the only
// production implementation; tests use a plain slice.
type Sink interface {
	Notify(Record)
}

// Queue is the append-only in-process buffer every Springer Replacer
// outcome is enqueued onto.
type Queue struct {
	records []Record
	sinks   []Sink
}

// New creates an empty Queue, optionally fanning every record out to sinks
// (e.g. an AMQPSink) in addition to the in-process buffer.
func New(sinks ...Sink) *Queue {
	return &Queue{sinks: sinks}
}

// Records returns every record enqueued so far, oldest first.
func (q *Queue) Records() []Record {
	return q.records
}

func (q *Queue) enqueue(r Record) {
	q.records = append(q.records, r)
	for _, s := range q.sinks {
		s.Notify(r)
	}
}

// SpringerAssigned enqueues a SpringerAssigned notification (spec.md §4.5
// step 4): the replacement candidate and ops roles are notified.
func (q *Queue) SpringerAssigned(absenceID string, absentEmployeeID, replacementEmployeeID int64, date time.Time, shiftCode string) {
	q.enqueue(Record{
		Type:      messaging.EventSpringerAssigned,
		Timestamp: date,
		Summary:   "springer assigned to cover absence",
		Roles:     []string{"ops", "replacement"},
		Severity:  SeverityInfo,
		Payload: messaging.SpringerAssignedEvent{
			AbsenceID:      absenceID,
			AbsentEmployee: formatID(absentEmployeeID),
			ReplacementID:  formatID(replacementEmployeeID),
			Date:           date,
			ShiftTypeCode:  shiftCode,
		},
	})
}

// NoReplacementFound enqueues a NoReplacementAvailable notification
// (spec.md §4.5 step 5).
func (q *Queue) NoReplacementFound(absenceID string, absentEmployeeID int64, date time.Time, shiftCode, reason string) {
	q.enqueue(Record{
		Type:      messaging.EventNoReplacementFound,
		Timestamp: date,
		Summary:   "no eligible springer found for absence",
		Roles:     []string{"ops"},
		Severity:  SeverityWarning,
		Payload: messaging.NoReplacementFoundEvent{
			AbsenceID:      absenceID,
			AbsentEmployee: formatID(absentEmployeeID),
			Date:           date,
			ShiftTypeCode:  shiftCode,
			Reason:         reason,
		},
	})
}

// AbsenceAfterSolve enqueues the unconditional AbsenceAfterScheduling
// summary notification (spec.md §4.5 step 6).
func (q *Queue) AbsenceAfterSolve(absenceID string, employeeID int64, date time.Time) {
	q.enqueue(Record{
		Type:      messaging.EventAbsenceAfterSolve,
		Timestamp: date,
		Summary:   "absence recorded against an already-solved roster",
		Roles:     []string{"ops"},
		Severity:  SeverityInfo,
		Payload: messaging.AbsenceAfterSolveEvent{
			AbsenceID:  absenceID,
			EmployeeID: formatID(employeeID),
			Date:       date,
		},
	})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
