package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type clockEventRepository struct {
	db *database.DB
}

func NewClockEventRepository(db *database.DB) attendance.EventRepository {
	return &clockEventRepository{db: db}
}

const clockEventColumns = `
	ce.id, ce.employee_id, ce.company_id, ce.type, ce.timestamp, ce.break_details, ce.work_modality, ce.created_at,
	e.full_name
`

const clockEventOrder = ` ORDER BY ce.timestamp ASC, ce.created_at ASC, ce.id ASC`

func scanClockEvent(row pgx.Row) (attendance.ClockEvent, error) {
	var ev attendance.ClockEvent
	var details *attendance.BreakDetails
	var modality *string

	err := row.Scan(
		&ev.ID, &ev.EmployeeID, &ev.CompanyID, &ev.Type, &ev.Timestamp, &details, &modality, &ev.CreatedAt,
		&ev.EmployeeName,
	)
	if err != nil {
		return attendance.ClockEvent{}, err
	}

	ev.BreakDetails = details
	if modality != nil {
		m := employee.WorkModality(*modality)
		ev.WorkModality = &m
	}
	return ev, nil
}

func collectClockEvents(rows pgx.Rows) ([]attendance.ClockEvent, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (attendance.ClockEvent, error) {
		return scanClockEvent(row)
	})
}

// Append implements attendance.EventRepository.
func (r *clockEventRepository) Append(ctx context.Context, event attendance.ClockEvent) (attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	var modality *string
	if event.WorkModality != nil {
		m := string(*event.WorkModality)
		modality = &m
	}

	query := `
		INSERT INTO clock_events (employee_id, company_id, type, timestamp, break_details, work_modality)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		event.EmployeeID,
		event.CompanyID,
		string(event.Type),
		event.Timestamp,
		event.BreakDetails,
		modality,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return attendance.ClockEvent{}, fmt.Errorf("failed to append clock event: %w", err)
	}

	return event, nil
}

// GetByID implements attendance.EventRepository.
func (r *clockEventRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + clockEventColumns + `
		FROM clock_events ce
		JOIN employees e ON e.id = ce.employee_id
		WHERE ce.id = $1 AND ce.company_id = $2
	`

	ev, err := scanClockEvent(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ClockEvent{}, attendance.ErrEventNotFound
		}
		return attendance.ClockEvent{}, fmt.Errorf("failed to get clock event by ID: %w", err)
	}

	return ev, nil
}

// Query implements attendance.EventRepository.
func (r *clockEventRepository) Query(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + clockEventColumns + `
		FROM clock_events ce
		JOIN employees e ON e.id = ce.employee_id
		WHERE ce.employee_id = $1 AND ce.timestamp BETWEEN $2 AND $3
	` + clockEventOrder

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query clock events: %w", err)
	}

	events, err := collectClockEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan clock events: %w", err)
	}
	return events, nil
}

// QueryCompany implements attendance.EventRepository.
func (r *clockEventRepository) QueryCompany(ctx context.Context, companyID string, from, to time.Time) ([]attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + clockEventColumns + `
		FROM clock_events ce
		JOIN employees e ON e.id = ce.employee_id
		WHERE ce.company_id = $1 AND ce.timestamp BETWEEN $2 AND $3
		ORDER BY e.full_name ASC, ce.timestamp ASC, ce.created_at ASC, ce.id ASC
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query company clock events: %w", err)
	}

	events, err := collectClockEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan company clock events: %w", err)
	}
	return events, nil
}

// Latest implements attendance.EventRepository.
func (r *clockEventRepository) Latest(ctx context.Context, employeeID string) (*attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + clockEventColumns + `
		FROM clock_events ce
		JOIN employees e ON e.id = ce.employee_id
		WHERE ce.employee_id = $1
		ORDER BY ce.timestamp DESC, ce.created_at DESC, ce.id DESC
		LIMIT 1
	`

	ev, err := scanClockEvent(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest clock event: %w", err)
	}

	return &ev, nil
}

// UpdateTimestamp implements attendance.EventRepository.
func (r *clockEventRepository) UpdateTimestamp(ctx context.Context, id string, timestamp time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE clock_events SET timestamp = $1 WHERE id = $2`, timestamp, id)
	if err != nil {
		return fmt.Errorf("failed to update clock event timestamp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrEventNotFound
	}

	return nil
}

// ListOpenSessions implements attendance.EventRepository.
func (r *clockEventRepository) ListOpenSessions(ctx context.Context, before time.Time) ([]attendance.OpenSession, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH latest AS (
			SELECT DISTINCT ON (ce.employee_id)
				ce.id, ce.employee_id, ce.company_id, ce.type, ce.timestamp, ce.break_details, ce.work_modality, ce.created_at
			FROM clock_events ce
			ORDER BY ce.employee_id, ce.timestamp DESC, ce.created_at DESC, ce.id DESC
		)
		SELECT l.id, l.employee_id, l.company_id, l.type, l.timestamp, l.break_details, l.work_modality, l.created_at,
			e.full_name, e.user_id
		FROM latest l
		JOIN employees e ON e.id = l.employee_id
		WHERE l.type <> $1 AND l.timestamp < $2 AND e.deleted_at IS NULL
		ORDER BY l.timestamp
	`

	rows, err := q.Query(ctx, query, string(attendance.EventClockOut), before)
	if err != nil {
		return nil, fmt.Errorf("failed to query open sessions: %w", err)
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (attendance.OpenSession, error) {
		var s attendance.OpenSession
		var details *attendance.BreakDetails
		var modality *string

		err := row.Scan(
			&s.LastEvent.ID, &s.LastEvent.EmployeeID, &s.LastEvent.CompanyID, &s.LastEvent.Type,
			&s.LastEvent.Timestamp, &details, &modality, &s.LastEvent.CreatedAt,
			&s.FullName, &s.UserID,
		)
		if err != nil {
			return s, err
		}
		s.LastEvent.BreakDetails = details
		if modality != nil {
			m := employee.WorkModality(*modality)
			s.LastEvent.WorkModality = &m
		}
		s.EmployeeID = s.LastEvent.EmployeeID
		s.CompanyID = s.LastEvent.CompanyID
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan open sessions: %w", err)
	}

	return sessions, nil
}
