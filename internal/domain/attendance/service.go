package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// RecordEvent validates and appends a clock event for the authenticated employee
	RecordEvent(ctx context.Context, req RecordEventRequest) (RecordEventResponse, error)

	// GetStatus returns the current state with today's and this week's totals
	GetStatus(ctx context.Context) (StatusResponse, error)

	// ListMyEvents lists the authenticated employee's events, defaulting to the current ISO week
	ListMyEvents(ctx context.Context, filter EventFilter) (ListEventsResponse, error)

	// WeeklySummary aggregates the ISO week containing req.Date
	WeeklySummary(ctx context.Context, req SummaryRequest) (WeeklySummaryResponse, error)

	// DailySummary aggregates a single calendar day
	DailySummary(ctx context.Context, req SummaryRequest) (DailySummaryResponse, error)

	// Export renders events as CSV or XLSX (manager+)
	Export(ctx context.Context, req ExportRequest) (ExportFile, error)
}
