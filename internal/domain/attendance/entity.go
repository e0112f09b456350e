package attendance

import (
	"cmp"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
)

type EventType string

const (
	EventClockIn    EventType = "clock_in"
	EventClockOut   EventType = "clock_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

var EventTypeValues = []string{
	string(EventClockIn),
	string(EventClockOut),
	string(EventBreakStart),
	string(EventBreakEnd),
}

func (t EventType) IsValid() bool {
	switch t {
	case EventClockIn, EventClockOut, EventBreakStart, EventBreakEnd:
		return true
	}
	return false
}

// OpensSession reports whether the event starts a work session and so carries a modality snapshot.
func (t EventType) OpensSession() bool {
	return t == EventClockIn || t == EventBreakEnd
}

// BreakDetails describes a break. Only break_start events carry it.
type BreakDetails struct {
	IsSplitShift      bool   `json:"is_split_shift"`
	IsPersonal        bool   `json:"is_personal"`
	IsJustified       bool   `json:"is_justified"`
	JustificationType string `json:"justification_type,omitempty"`
	Note              string `json:"note,omitempty"`
}

// Value implements driver.Valuer for database storage
func (b BreakDetails) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for database retrieval
func (b *BreakDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return errors.New("failed to scan BreakDetails: invalid type")
	}
}

// ClockEvent is one immutable entry of an employee's event log. Only an
// approved correction may replace its Timestamp.
type ClockEvent struct {
	ID           string
	EmployeeID   string
	CompanyID    string
	Type         EventType
	Timestamp    time.Time
	BreakDetails *BreakDetails
	WorkModality *employee.WorkModality
	CreatedAt    time.Time

	// DTO / Join
	EmployeeName *string
}

// compareEvents orders events by timestamp, then by insertion time, then by id.
func compareEvents(a, b ClockEvent) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
