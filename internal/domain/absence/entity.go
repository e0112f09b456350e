package absence

import "time"

type AbsenceType string

const (
	TypeVacation  AbsenceType = "vacation"
	TypeSickLeave AbsenceType = "sick_leave"
	TypePersonal  AbsenceType = "personal"
	TypeOther     AbsenceType = "other"
)

type AbsenceStatus string

const (
	StatusApproved AbsenceStatus = "Aprobada"
	StatusPending  AbsenceStatus = "Pendiente"
	StatusRejected AbsenceStatus = "Rechazada"
)

// Absence is an inclusive range of calendar dates. StartDate and EndDate only
// carry the date part.
type Absence struct {
	ID         string
	EmployeeID string
	Type       AbsenceType
	Status     AbsenceStatus
	StartDate  time.Time
	EndDate    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Covers reports whether at, read on the calendar of loc, falls within the
// absence dates. Only approved absences cover anything.
func (a Absence) Covers(at time.Time, loc *time.Location) bool {
	if a.Status != StatusApproved {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	day := dateOnly(at.In(loc))
	return !day.Before(dateOnly(a.StartDate)) && !day.After(dateOnly(a.EndDate))
}

// AnyCovers reports whether at least one absence covers at.
func AnyCovers(absences []Absence, at time.Time, loc *time.Location) bool {
	for _, a := range absences {
		if a.Covers(at, loc) {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
