package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/absence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type absenceRepository struct {
	db *database.DB
}

func NewAbsenceRepository(db *database.DB) absence.AbsenceRepository {
	return &absenceRepository{db: db}
}

// ListApprovedBetween implements absence.AbsenceRepository.
func (a *absenceRepository) ListApprovedBetween(ctx context.Context, employeeID string, from, to time.Time) ([]absence.Absence, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, type, status, start_date, end_date, created_at, updated_at
		FROM absences
		WHERE employee_id = $1
		  AND status = $2
		  AND start_date <= $4::date
		  AND end_date >= $3::date
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, employeeID, absence.StatusApproved,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}

	absences, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (absence.Absence, error) {
		var abs absence.Absence
		err := row.Scan(&abs.ID, &abs.EmployeeID, &abs.Type, &abs.Status, &abs.StartDate, &abs.EndDate, &abs.CreatedAt, &abs.UpdatedAt)
		return abs, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan absences: %w", err)
	}

	return absences, nil
}
