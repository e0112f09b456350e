package employee

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// Employee is the profile consumed by attendance. It is owned by HR and read-only here.
type Employee struct {
	ID                    string
	UserID                *string
	CompanyID             string
	EmployeeCode          string
	FullName              string
	WeeklyHours           decimal.Decimal
	WorkSchedule          *schedule.WorkSchedule
	StrictSchedule        bool
	CourtesyMarginMinutes int
	WorkModality          WorkModality
	Timezone              string
	EmploymentStatus      EmploymentStatus
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Location returns the employee's local calendar, UTC when unset or unknown.
func (e Employee) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HasSchedule reports whether a weekly schedule is configured.
func (e Employee) HasSchedule() bool {
	return e.WorkSchedule != nil && len(e.WorkSchedule.Days) > 0
}

type WorkModality string

const (
	ModalityOnSite WorkModality = "Presencial"
	ModalityRemote WorkModality = "Teletrabajo"
	ModalityHybrid WorkModality = "Mixto"
)

// IsSession reports whether m can describe a single work session.
func (m WorkModality) IsSession() bool {
	return m == ModalityOnSite || m == ModalityRemote
}

func (m WorkModality) IsValid() bool {
	return m.IsSession() || m == ModalityHybrid
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)
