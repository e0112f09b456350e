package absence

import (
	"context"
	"time"
)

type AbsenceRepository interface {
	// ListApprovedBetween returns approved absences of an employee overlapping [from, to] dates.
	ListApprovedBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Absence, error)
}
