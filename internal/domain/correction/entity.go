package correction

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var StatusValues = []string{
	string(StatusPending),
	string(StatusApproved),
	string(StatusRejected),
}

// CorrectionRequest proposes a replacement timestamp for one clock event.
// At most one request per event is pending at a time.
type CorrectionRequest struct {
	ID                 string
	EventID            string
	EmployeeID         string
	CompanyID          string
	RequesterID        string // user id notified on resolution
	EventType          attendance.EventType
	OriginalTimestamp  time.Time
	RequestedTimestamp time.Time
	Reason             string
	Status             Status
	ReviewerID         *string
	ReviewedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// DTO / Join
	EmployeeName *string
}

func (c CorrectionRequest) IsSettled() bool {
	return c.Status == StatusApproved || c.Status == StatusRejected
}
