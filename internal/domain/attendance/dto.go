package attendance

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// EVENT DTOs
// ========================================

type RecordEventRequest struct {
	Type         string        `json:"type"`
	WorkModality *string       `json:"work_modality,omitempty"`
	BreakDetails *BreakDetails `json:"break_details,omitempty"`
}

func (r *RecordEventRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(r.Type, EventTypeValues) {
		errs.Add("type", "type must be one of: clock_in, clock_out, break_start, break_end")
	}

	if r.WorkModality != nil && !employee.WorkModality(*r.WorkModality).IsSession() {
		errs.Add("work_modality", "work_modality must be one of: Presencial, Teletrabajo")
	}

	if r.BreakDetails != nil {
		if r.BreakDetails.IsJustified && validator.IsEmpty(r.BreakDetails.JustificationType) {
			errs.Add("break_details.justification_type", "justification_type is required for a justified break")
		}
		if len(r.BreakDetails.Note) > 500 {
			errs.Add("break_details.note", "note must not exceed 500 characters")
		}
	}

	return errs.Err()
}

// Modality returns the requested modality as a domain value.
func (r *RecordEventRequest) Modality() *employee.WorkModality {
	if r.WorkModality == nil {
		return nil
	}
	m := employee.WorkModality(*r.WorkModality)
	return &m
}

type ClockEventResponse struct {
	ID           string        `json:"id"`
	EmployeeID   string        `json:"employee_id"`
	EmployeeName *string       `json:"employee_name,omitempty"`
	Type         string        `json:"type"`
	Timestamp    string        `json:"timestamp"`
	LocalDate    string        `json:"local_date"`
	LocalTime    string        `json:"local_time"`
	WorkModality *string       `json:"work_modality,omitempty"`
	BreakDetails *BreakDetails `json:"break_details,omitempty"`
	CreatedAt    string        `json:"created_at"`
}

// NewClockEventResponse renders ev with local date and time on loc's calendar.
func NewClockEventResponse(ev ClockEvent, loc *time.Location) ClockEventResponse {
	local := ev.Timestamp.In(loc)
	resp := ClockEventResponse{
		ID:           ev.ID,
		EmployeeID:   ev.EmployeeID,
		EmployeeName: ev.EmployeeName,
		Type:         string(ev.Type),
		Timestamp:    ev.Timestamp.UTC().Format(time.RFC3339),
		LocalDate:    local.Format("2006-01-02"),
		LocalTime:    local.Format("15:04:05"),
		BreakDetails: ev.BreakDetails,
		CreatedAt:    ev.CreatedAt.UTC().Format(time.RFC3339),
	}
	if ev.WorkModality != nil {
		m := string(*ev.WorkModality)
		resp.WorkModality = &m
	}
	return resp
}

type RecordEventResponse struct {
	Event ClockEventResponse `json:"event"`
	State State              `json:"state"`
}

type EventFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

func (f *EventFilter) Validate() error {
	var errs validator.ValidationErrors
	validateDateRange(&errs, f.StartDate, f.EndDate)
	return errs.Err()
}

type ListEventsResponse struct {
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Total     int                  `json:"total"`
	Events    []ClockEventResponse `json:"events"`
}

// ========================================
// STATUS & SUMMARY DTOs
// ========================================

type DayScheduleResponse struct {
	Weekday string   `json:"weekday"`
	Type    string   `json:"type"`
	Slots   []string `json:"slots"`
}

type StatusResponse struct {
	State                 State               `json:"state"`
	CanClockIn            bool                `json:"can_clock_in"`
	CanClockOut           bool                `json:"can_clock_out"`
	CanStartBreak         bool                `json:"can_start_break"`
	CanEndBreak           bool                `json:"can_end_break"`
	ClockInBlockedReason  *string             `json:"clock_in_blocked_reason,omitempty"`
	LastEvent             *ClockEventResponse `json:"last_event,omitempty"`
	Timezone              string              `json:"timezone"`
	WorkModality          string              `json:"work_modality"`
	StrictSchedule        bool                `json:"strict_schedule"`
	CourtesyMarginMinutes int                 `json:"courtesy_margin_minutes"`
	Today                 DayScheduleResponse `json:"today"`
	TodayWorkedMinutes    int                 `json:"today_worked_minutes"`
	WeekStart             string              `json:"week_start"`
	WeekEnd               string              `json:"week_end"`
	WeekWorkedMinutes     int                 `json:"week_worked_minutes"`
	ScheduledWeeklyHours  float64             `json:"scheduled_weekly_hours"`
	ContractedWeeklyHours decimal.Decimal     `json:"contracted_weekly_hours"`
	ContractDeviation     decimal.Decimal     `json:"contract_deviation_hours"`
}

type SummaryRequest struct {
	Date *string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Date != nil && *r.Date != "" {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs.Add("date", "date must be in YYYY-MM-DD format")
		}
	}
	return errs.Err()
}

type DaySummary struct {
	Date          string `json:"date"`
	Weekday       string `json:"weekday"`
	WorkedMinutes int    `json:"worked_minutes"`
}

type WeeklySummaryResponse struct {
	WeekStart            string          `json:"week_start"`
	WeekEnd              string          `json:"week_end"`
	WorkedMinutes        int             `json:"worked_minutes"`
	WorkedHours          float64         `json:"worked_hours"`
	Days                 []DaySummary    `json:"days"`
	ScheduledWeeklyHours float64         `json:"scheduled_weekly_hours"`
	ContractedHours      decimal.Decimal `json:"contracted_weekly_hours"`
}

type DailySummaryResponse struct {
	Date          string               `json:"date"`
	Weekday       string               `json:"weekday"`
	WorkedMinutes int                  `json:"worked_minutes"`
	Schedule      DayScheduleResponse  `json:"schedule"`
	Events        []ClockEventResponse `json:"events"`
}

// ========================================
// EXPORT DTOs
// ========================================

const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

type ExportRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Format     string  `json:"format"`
}

func (r *ExportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && *r.EmployeeID != "" && !validator.IsValidUUID(*r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}

	if r.Format == "" {
		r.Format = ExportFormatCSV
	}
	if !validator.IsInSlice(r.Format, []string{ExportFormatCSV, ExportFormatXLSX}) {
		errs.Add("format", "format must be one of: csv, xlsx")
	}

	validateDateRange(&errs, r.StartDate, r.EndDate)

	return errs.Err()
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func validateDateRange(errs *validator.ValidationErrors, startDate, endDate *string) {
	var start, end time.Time
	var hasStart, hasEnd bool

	if startDate != nil && *startDate != "" {
		start, hasStart = validator.IsValidDate(*startDate)
		if !hasStart {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if endDate != nil && *endDate != "" {
		end, hasEnd = validator.IsValidDate(*endDate)
		if !hasEnd {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	if hasStart && hasEnd && end.Sub(start) > 366*24*time.Hour {
		errs.Add("end_date", "date range must not exceed one year")
	}
}
