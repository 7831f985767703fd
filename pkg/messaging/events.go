package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification event types dispatched by the Notification Queue (SPEC_FULL.md
// §4.6). These are the hand-off to the out-of-scope delivery system, not
// delivery itself.
const (
	EventSpringerAssigned     = "roster.springer.assigned"
	EventNoReplacementFound   = "roster.springer.no_replacement_found"
	EventAbsenceAfterSolve    = "roster.absence.after_solve"
)

// ExchangeRosterNotifications is the topic exchange the engine publishes
// notification events to.
const ExchangeRosterNotifications = "roster.notifications"

// Event is the envelope every notification is wrapped in before publishing.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// SpringerAssignedEvent is published when the Springer Replacer finds an
// eligible replacement for an absence (spec.md §4.5).
type SpringerAssignedEvent struct {
	AbsenceID      string    `json:"absence_id"`
	AbsentEmployee string    `json:"absent_employee_id"`
	ReplacementID  string    `json:"replacement_employee_id"`
	Date           time.Time `json:"date"`
	ShiftTypeCode  string    `json:"shift_type_code"`
}

// NoReplacementFoundEvent is published when the Springer Replacer exhausts
// the eligible pool without finding a replacement.
type NoReplacementFoundEvent struct {
	AbsenceID      string    `json:"absence_id"`
	AbsentEmployee string    `json:"absent_employee_id"`
	Date           time.Time `json:"date"`
	ShiftTypeCode  string    `json:"shift_type_code"`
	Reason         string    `json:"reason"`
}

// AbsenceAfterSolveEvent is published when an absence is recorded for a date
// already covered by a solved roster, flagging it for operator review.
type AbsenceAfterSolveEvent struct {
	AbsenceID  string    `json:"absence_id"`
	EmployeeID string    `json:"employee_id"`
	Date       time.Time `json:"date"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
