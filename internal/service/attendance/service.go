package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/absence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
)

type AttendanceServiceImpl struct {
	attendance.EventRepository
	employee.EmployeeRepository
	absence.AbsenceRepository
	now func() time.Time
}

func NewAttendanceService(
	eventRepo attendance.EventRepository,
	employeeRepo employee.EmployeeRepository,
	absenceRepo absence.AbsenceRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		EventRepository:    eventRepo,
		EmployeeRepository: employeeRepo,
		AbsenceRepository:  absenceRepo,
		now:                time.Now,
	}
}

// clock returns the current instant in UTC, truncated to the second the event log stores.
func (a *AttendanceServiceImpl) clock() time.Time {
	return a.now().UTC().Truncate(time.Second)
}

// currentEmployee loads the caller's profile and checks it belongs to the caller's company.
func (a *AttendanceServiceImpl) currentEmployee(ctx context.Context) (employee.Employee, error) {
	claims, err := jwt.RequireEmployee(ctx)
	if err != nil {
		return employee.Employee{}, err
	}

	emp, err := a.EmployeeRepository.GetByID(ctx, claims.EmployeeID)
	if err != nil {
		return employee.Employee{}, err
	}
	if emp.CompanyID != claims.CompanyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

// currentState reads the latest event; an empty log is Out.
func (a *AttendanceServiceImpl) currentState(ctx context.Context, employeeID string) (attendance.State, *attendance.ClockEvent, error) {
	latest, err := a.EventRepository.Latest(ctx, employeeID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	if latest == nil {
		return attendance.StateOut, nil, nil
	}
	return attendance.StateAfter(latest.Type), latest, nil
}

func (a *AttendanceServiceImpl) absencesOn(ctx context.Context, emp employee.Employee, at time.Time) ([]absence.Absence, error) {
	local := at.In(emp.Location())
	absences, err := a.AbsenceRepository.ListApprovedBetween(ctx, emp.ID, local, local)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	return absences, nil
}

// RecordEvent implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordEvent(ctx context.Context, req attendance.RecordEventRequest) (attendance.RecordEventResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordEventResponse{}, err
	}

	emp, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.RecordEventResponse{}, err
	}
	if emp.EmploymentStatus != employee.EmploymentStatusActive {
		return attendance.RecordEventResponse{}, employee.ErrUnauthorized
	}

	next := attendance.EventType(req.Type)
	now := a.clock()

	current, _, err := a.currentState(ctx, emp.ID)
	if err != nil {
		return attendance.RecordEventResponse{}, err
	}

	var absences []absence.Absence
	if next == attendance.EventClockIn {
		absences, err = a.absencesOn(ctx, emp, now)
		if err != nil {
			return attendance.RecordEventResponse{}, err
		}
	}

	tc := attendance.TransitionContext{
		Current:    current,
		Employee:   emp,
		Absences:   absences,
		EvaluateAt: now,
	}
	if err := attendance.Validate(tc, next); err != nil {
		return attendance.RecordEventResponse{}, err
	}
	if err := attendance.CheckBreakDetails(next, req.BreakDetails); err != nil {
		return attendance.RecordEventResponse{}, err
	}
	modality, err := attendance.ResolveModality(emp, next, req.Modality())
	if err != nil {
		return attendance.RecordEventResponse{}, err
	}

	saved, err := a.EventRepository.Append(ctx, attendance.ClockEvent{
		EmployeeID:   emp.ID,
		CompanyID:    emp.CompanyID,
		Type:         next,
		Timestamp:    now,
		BreakDetails: req.BreakDetails,
		WorkModality: modality,
	})
	if err != nil {
		return attendance.RecordEventResponse{}, fmt.Errorf("failed to append clock event: %w", err)
	}
	if saved.EmployeeName == nil {
		saved.EmployeeName = &emp.FullName
	}

	slog.Info("clock event recorded",
		"employee_id", emp.ID,
		"event_id", saved.ID,
		"type", saved.Type,
		"from_state", current,
	)

	return attendance.RecordEventResponse{
		Event: attendance.NewClockEventResponse(saved, emp.Location()),
		State: attendance.StateAfter(next),
	}, nil
}

// GetStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetStatus(ctx context.Context) (attendance.StatusResponse, error) {
	emp, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	loc := emp.Location()
	now := a.clock()
	local := now.In(loc)

	current, latest, err := a.currentState(ctx, emp.ID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	weekStart, weekEnd := attendance.ISOWeek(local)
	events, err := a.EventRepository.Query(ctx, emp.ID, weekStart, weekEnd)
	if err != nil {
		return attendance.StatusResponse{}, fmt.Errorf("failed to query events: %w", err)
	}

	resp := attendance.StatusResponse{
		State:                 current,
		CanClockOut:           current.Allows(attendance.EventClockOut),
		CanStartBreak:         current.Allows(attendance.EventBreakStart),
		CanEndBreak:           current.Allows(attendance.EventBreakEnd),
		Timezone:              loc.String(),
		WorkModality:          string(emp.WorkModality),
		StrictSchedule:        emp.StrictSchedule,
		CourtesyMarginMinutes: emp.CourtesyMarginMinutes,
		Today:                 daySchedule(emp, local),
		TodayWorkedMinutes:    attendance.DayWorkedMinutes(events, local),
		WeekStart:             weekStart.Format("2006-01-02"),
		WeekEnd:               weekEnd.Format("2006-01-02"),
		WeekWorkedMinutes:     attendance.WeeklyWorkedMinutes(events, weekStart, weekEnd),
		ContractedWeeklyHours: emp.WeeklyHours,
	}
	if latest != nil {
		last := attendance.NewClockEventResponse(*latest, loc)
		resp.LastEvent = &last
	}

	if current.Allows(attendance.EventClockIn) {
		absences, err := a.absencesOn(ctx, emp, now)
		if err != nil {
			return attendance.StatusResponse{}, err
		}
		tc := attendance.TransitionContext{Current: current, Employee: emp, Absences: absences, EvaluateAt: now}
		if err := attendance.Validate(tc, attendance.EventClockIn); err != nil {
			reason := err.Error()
			resp.ClockInBlockedReason = &reason
		} else {
			resp.CanClockIn = true
		}
	}

	if emp.WorkSchedule != nil {
		resp.ScheduledWeeklyHours = schedule.TotalWeeklyScheduledHours(*emp.WorkSchedule)
		resp.ContractDeviation = schedule.ContractDeviation(*emp.WorkSchedule, emp.WeeklyHours)
	} else {
		resp.ContractDeviation = emp.WeeklyHours.Neg()
	}

	return resp, nil
}

// ListMyEvents implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListMyEvents(ctx context.Context, filter attendance.EventFilter) (attendance.ListEventsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListEventsResponse{}, err
	}

	emp, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.ListEventsResponse{}, err
	}

	loc := emp.Location()
	from, to := dateRange(filter.StartDate, filter.EndDate, a.clock().In(loc), loc)

	events, err := a.EventRepository.Query(ctx, emp.ID, from, to)
	if err != nil {
		return attendance.ListEventsResponse{}, fmt.Errorf("failed to query events: %w", err)
	}

	return attendance.ListEventsResponse{
		StartDate: from.Format("2006-01-02"),
		EndDate:   to.Format("2006-01-02"),
		Total:     len(events),
		Events:    toResponses(events, loc),
	}, nil
}

// WeeklySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) WeeklySummary(ctx context.Context, req attendance.SummaryRequest) (attendance.WeeklySummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.WeeklySummaryResponse{}, err
	}

	emp, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.WeeklySummaryResponse{}, err
	}

	loc := emp.Location()
	day := summaryDay(req.Date, a.clock().In(loc), loc)
	weekStart, weekEnd := attendance.ISOWeek(day)

	events, err := a.EventRepository.Query(ctx, emp.ID, weekStart, weekEnd)
	if err != nil {
		return attendance.WeeklySummaryResponse{}, fmt.Errorf("failed to query events: %w", err)
	}

	minutes := attendance.WeeklyWorkedMinutes(events, weekStart, weekEnd)
	resp := attendance.WeeklySummaryResponse{
		WeekStart:       weekStart.Format("2006-01-02"),
		WeekEnd:         weekEnd.Format("2006-01-02"),
		WorkedMinutes:   minutes,
		WorkedHours:     math.Round(float64(minutes)/60*100) / 100,
		Days:            make([]attendance.DaySummary, 0, 7),
		ContractedHours: emp.WeeklyHours,
	}
	for i := 0; i < 7; i++ {
		d := weekStart.AddDate(0, 0, i)
		resp.Days = append(resp.Days, attendance.DaySummary{
			Date:          d.Format("2006-01-02"),
			Weekday:       schedule.WeekdayKey(d.Weekday()),
			WorkedMinutes: attendance.DayWorkedMinutes(events, d),
		})
	}
	if emp.WorkSchedule != nil {
		resp.ScheduledWeeklyHours = schedule.TotalWeeklyScheduledHours(*emp.WorkSchedule)
	}

	return resp, nil
}

// DailySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DailySummary(ctx context.Context, req attendance.SummaryRequest) (attendance.DailySummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DailySummaryResponse{}, err
	}

	emp, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.DailySummaryResponse{}, err
	}

	loc := emp.Location()
	day := summaryDay(req.Date, a.clock().In(loc), loc)
	start, end := attendance.DayBounds(day)

	events, err := a.EventRepository.Query(ctx, emp.ID, start, end)
	if err != nil {
		return attendance.DailySummaryResponse{}, fmt.Errorf("failed to query events: %w", err)
	}

	return attendance.DailySummaryResponse{
		Date:          start.Format("2006-01-02"),
		Weekday:       schedule.WeekdayKey(start.Weekday()),
		WorkedMinutes: attendance.DayWorkedMinutes(events, day),
		Schedule:      daySchedule(emp, day),
		Events:        toResponses(events, loc),
	}, nil
}

// Export implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Export(ctx context.Context, req attendance.ExportRequest) (attendance.ExportFile, error) {
	if err := req.Validate(); err != nil {
		return attendance.ExportFile{}, err
	}

	claims, err := jwt.RequireCompany(ctx)
	if err != nil {
		return attendance.ExportFile{}, err
	}
	if !user.HasPermission(claims.Role, user.PermissionAttendanceExport) {
		return attendance.ExportFile{}, user.ErrInsufficientPermissions
	}

	var (
		events []attendance.ClockEvent
		locate export.LocationFunc
		from   time.Time
		to     time.Time
	)

	if req.EmployeeID != nil && *req.EmployeeID != "" {
		emp, err := a.EmployeeRepository.GetByID(ctx, *req.EmployeeID)
		if err != nil {
			return attendance.ExportFile{}, err
		}
		if emp.CompanyID != claims.CompanyID {
			return attendance.ExportFile{}, employee.ErrEmployeeNotFound
		}
		loc := emp.Location()
		from, to = dateRange(req.StartDate, req.EndDate, a.clock().In(loc), loc)
		events, err = a.EventRepository.Query(ctx, emp.ID, from, to)
		if err != nil {
			return attendance.ExportFile{}, fmt.Errorf("failed to query events: %w", err)
		}
		locate = func(string) *time.Location { return loc }
	} else {
		// Company exports span employees in different zones; bounds are UTC days.
		from, to = dateRange(req.StartDate, req.EndDate, a.clock(), time.UTC)
		events, err = a.EventRepository.QueryCompany(ctx, claims.CompanyID, from, to)
		if err != nil {
			return attendance.ExportFile{}, fmt.Errorf("failed to query company events: %w", err)
		}
		employees, err := a.EmployeeRepository.GetActiveByCompanyID(ctx, claims.CompanyID)
		if err != nil {
			return attendance.ExportFile{}, fmt.Errorf("failed to list employees: %w", err)
		}
		locations := make(map[string]*time.Location, len(employees))
		for _, emp := range employees {
			locations[emp.ID] = emp.Location()
		}
		locate = func(id string) *time.Location { return locations[id] }
	}

	file := attendance.ExportFile{
		Filename: fmt.Sprintf("attendance_%s_%s.%s", from.Format("20060102"), to.Format("20060102"), req.Format),
	}
	switch req.Format {
	case attendance.ExportFormatXLSX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		file.Data, err = export.XLSX(events, locate)
	default:
		file.ContentType = "text/csv; charset=utf-8"
		file.Data, err = export.CSV(events, locate)
	}
	if err != nil {
		return attendance.ExportFile{}, err
	}

	slog.Info("attendance exported",
		"company_id", claims.CompanyID,
		"user_id", claims.UserID,
		"format", req.Format,
		"rows", len(events),
	)
	return file, nil
}

func toResponses(events []attendance.ClockEvent, loc *time.Location) []attendance.ClockEventResponse {
	out := make([]attendance.ClockEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, attendance.NewClockEventResponse(ev, loc))
	}
	return out
}

func daySchedule(emp employee.Employee, local time.Time) attendance.DayScheduleResponse {
	var day schedule.WorkDay = schedule.NonWorking{}
	if emp.WorkSchedule != nil {
		day = emp.WorkSchedule.DayFor(local)
	}
	slots := make([]string, 0, len(day.Slots()))
	for _, s := range day.Slots() {
		slots = append(slots, s.Start+"-"+s.End)
	}
	return attendance.DayScheduleResponse{
		Weekday: schedule.WeekdayKey(local.Weekday()),
		Type:    string(day.Kind()),
		Slots:   slots,
	}
}

// parseLocalDate reads a validated YYYY-MM-DD as midnight in loc.
func parseLocalDate(s *string, loc *time.Location) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", *s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func summaryDay(date *string, today time.Time, loc *time.Location) time.Time {
	if d, ok := parseLocalDate(date, loc); ok {
		return d
	}
	return today
}

// dateRange resolves optional dates to an inclusive instant range on loc's
// calendar. A missing bound falls back to the ISO week of today.
func dateRange(startDate, endDate *string, today time.Time, loc *time.Location) (from, to time.Time) {
	weekStart, weekEnd := attendance.ISOWeek(today.In(loc))
	from, to = weekStart, weekEnd

	if d, ok := parseLocalDate(startDate, loc); ok {
		from = d
		if _, ok := parseLocalDate(endDate, loc); !ok {
			_, to = attendance.ISOWeek(d)
		}
	}
	if d, ok := parseLocalDate(endDate, loc); ok {
		_, to = attendance.DayBounds(d)
		if _, ok := parseLocalDate(startDate, loc); !ok {
			from, _ = attendance.ISOWeek(d)
		}
	}
	return from, to
}
