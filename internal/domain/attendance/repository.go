package attendance

import (
	"context"
	"time"
)

// OpenSession is an employee whose latest event leaves them working or on break.
type OpenSession struct {
	EmployeeID string
	CompanyID  string
	UserID     *string
	FullName   string
	LastEvent  ClockEvent
}

// EventRepository is the append-only event log. All reads are ordered by
// timestamp, created_at and id.
type EventRepository interface {
	// Append inserts a single event atomically.
	Append(ctx context.Context, event ClockEvent) (ClockEvent, error)

	// GetByID retrieves an event with company isolation
	GetByID(ctx context.Context, id string, companyID string) (ClockEvent, error)

	// Query returns an employee's events with from <= timestamp <= to.
	Query(ctx context.Context, employeeID string, from, to time.Time) ([]ClockEvent, error)

	// QueryCompany returns events for every employee of a company in the range.
	QueryCompany(ctx context.Context, companyID string, from, to time.Time) ([]ClockEvent, error)

	// Latest returns the most recent event, nil when the log is empty.
	Latest(ctx context.Context, employeeID string) (*ClockEvent, error)

	// UpdateTimestamp replaces the timestamp of an event. Used only by approved corrections.
	UpdateTimestamp(ctx context.Context, id string, timestamp time.Time) error

	// ListOpenSessions returns employees whose latest event is older than before and not a clock_out.
	ListOpenSessions(ctx context.Context, before time.Time) ([]OpenSession, error)
}
