package correction

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

type CreateCorrectionRequest struct {
	EventID            string `json:"-"`
	RequestedTimestamp string `json:"requested_timestamp"` // RFC3339
	Reason             string `json:"reason"`
}

func (r *CreateCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EventID) {
		errs.Add("event_id", "event_id must be a valid UUID")
	}
	if validator.IsEmpty(r.RequestedTimestamp) {
		errs.Add("requested_timestamp", "requested_timestamp is required")
	} else if _, ok := validator.IsValidDateTime(r.RequestedTimestamp); !ok {
		errs.Add("requested_timestamp", "requested_timestamp must be an RFC3339 timestamp")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	} else if len(r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	return errs.Err()
}

// Timestamp returns the parsed requested timestamp, truncated to whole seconds.
func (r *CreateCorrectionRequest) Timestamp() time.Time {
	t, _ := validator.IsValidDateTime(r.RequestedTimestamp)
	return t.UTC().Truncate(time.Second)
}

type CorrectionFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *CorrectionFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	if f.Status != nil && *f.Status != "" && !validator.IsInSlice(*f.Status, StatusValues) {
		errs.Add("status", "status must be one of: "+strings.Join(StatusValues, ", "))
	}
	if f.EmployeeID != nil && *f.EmployeeID != "" && !validator.IsValidUUID(*f.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}

	return errs.Err()
}

type CorrectionResponse struct {
	ID                 string  `json:"id"`
	EventID            string  `json:"event_id"`
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       *string `json:"employee_name,omitempty"`
	EventType          string  `json:"event_type"`
	OriginalTimestamp  string  `json:"original_timestamp"`
	RequestedTimestamp string  `json:"requested_timestamp"`
	Reason             string  `json:"reason"`
	Status             string  `json:"status"`
	ReviewerID         *string `json:"reviewer_id,omitempty"`
	ReviewedAt         *string `json:"reviewed_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

func NewCorrectionResponse(c CorrectionRequest) CorrectionResponse {
	resp := CorrectionResponse{
		ID:                 c.ID,
		EventID:            c.EventID,
		EmployeeID:         c.EmployeeID,
		EmployeeName:       c.EmployeeName,
		EventType:          string(c.EventType),
		OriginalTimestamp:  c.OriginalTimestamp.UTC().Format(time.RFC3339),
		RequestedTimestamp: c.RequestedTimestamp.UTC().Format(time.RFC3339),
		Reason:             c.Reason,
		Status:             string(c.Status),
		ReviewerID:         c.ReviewerID,
		CreatedAt:          c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          c.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if c.ReviewedAt != nil {
		s := c.ReviewedAt.UTC().Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}

type ListCorrectionResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Corrections []CorrectionResponse `json:"corrections"`
}
