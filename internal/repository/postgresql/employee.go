package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT id, user_id, company_id, employee_code, full_name, weekly_hours, work_schedule,
		strict_schedule, courtesy_margin_minutes, work_modality, timezone, employment_status,
		created_at, updated_at
	FROM employees
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	var scheduleJSON []byte

	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.CompanyID, &emp.EmployeeCode, &emp.FullName, &emp.WeeklyHours, &scheduleJSON,
		&emp.StrictSchedule, &emp.CourtesyMarginMinutes, &emp.WorkModality, &emp.Timezone, &emp.EmploymentStatus,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}

	if len(scheduleJSON) > 0 && string(scheduleJSON) != "null" {
		var ws schedule.WorkSchedule
		if err := json.Unmarshal(scheduleJSON, &ws); err != nil {
			return employee.Employee{}, fmt.Errorf("%w: %v", employee.ErrInvalidSchedule, err)
		}
		emp.WorkSchedule = &ws
	}

	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+` WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id %s: %w", id, err)
	}

	return emp, nil
}

// GetByUserID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+` WHERE user_id = $1 AND deleted_at IS NULL`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by user id %s: %w", userID, err)
	}

	return emp, nil
}

// GetActiveByCompanyID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx,
		employeeSelect+` WHERE company_id = $1 AND employment_status = $2 AND deleted_at IS NULL ORDER BY full_name`,
		companyID, employee.EmploymentStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of company %s: %w", companyID, err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// ListReviewerUserIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListReviewerUserIDs(ctx context.Context, companyID string) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id
		FROM users
		WHERE company_id = $1 AND role = ANY($2::text[])
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, companyID, []string{string(user.RoleManager), string(user.RoleOwner)})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewers of company %s: %w", companyID, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read reviewers of company %s: %w", companyID, err)
	}

	return ids, nil
}
