package attendance

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/absence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// FAKES
// ========================================

type fakeEvents struct {
	events []attendance.ClockEvent
	seq    int
}

func (f *fakeEvents) Append(ctx context.Context, ev attendance.ClockEvent) (attendance.ClockEvent, error) {
	f.seq++
	ev.ID = fmt.Sprintf("ev-%03d", f.seq)
	ev.CreatedAt = ev.Timestamp
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeEvents) GetByID(ctx context.Context, id, companyID string) (attendance.ClockEvent, error) {
	for _, ev := range f.events {
		if ev.ID == id && ev.CompanyID == companyID {
			return ev, nil
		}
	}
	return attendance.ClockEvent{}, attendance.ErrEventNotFound
}

func (f *fakeEvents) Query(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.ClockEvent, error) {
	var out []attendance.ClockEvent
	for _, ev := range f.events {
		if ev.EmployeeID == employeeID && !ev.Timestamp.Before(from) && !ev.Timestamp.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEvents) QueryCompany(ctx context.Context, companyID string, from, to time.Time) ([]attendance.ClockEvent, error) {
	var out []attendance.ClockEvent
	for _, ev := range f.events {
		if ev.CompanyID == companyID && !ev.Timestamp.Before(from) && !ev.Timestamp.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEvents) Latest(ctx context.Context, employeeID string) (*attendance.ClockEvent, error) {
	mine, _ := f.Query(ctx, employeeID, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	last, ok := attendance.Latest(mine)
	if !ok {
		return nil, nil
	}
	return &last, nil
}

func (f *fakeEvents) UpdateTimestamp(ctx context.Context, id string, ts time.Time) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].Timestamp = ts
			return nil
		}
	}
	return attendance.ErrEventNotFound
}

func (f *fakeEvents) ListOpenSessions(ctx context.Context, before time.Time) ([]attendance.OpenSession, error) {
	return nil, nil
}

type fakeEmployees struct {
	byID map[string]employee.Employee
}

func (f *fakeEmployees) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	emp, ok := f.byID[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeEmployees) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	for _, emp := range f.byID {
		if emp.UserID != nil && *emp.UserID == userID {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployees) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, emp := range f.byID {
		if emp.CompanyID == companyID {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (f *fakeEmployees) ListReviewerUserIDs(ctx context.Context, companyID string) ([]string, error) {
	return nil, nil
}

type fakeAbsences struct {
	absences []absence.Absence
}

func (f *fakeAbsences) ListApprovedBetween(ctx context.Context, employeeID string, from, to time.Time) ([]absence.Absence, error) {
	var out []absence.Absence
	for _, a := range f.absences {
		if a.EmployeeID == employeeID && a.Status == absence.StatusApproved {
			out = append(out, a)
		}
	}
	return out, nil
}

// ========================================
// HELPERS
// ========================================

var madrid, _ = time.LoadLocation("Europe/Madrid")

// Wednesday 2025-03-12 in Madrid.
func madridAt(h, m int) time.Time {
	return time.Date(2025, 3, 12, h, m, 0, 0, madrid)
}

func officeSchedule() *schedule.WorkSchedule {
	day := schedule.Continuous{Slot: schedule.TimeSlot{Start: "09:00", End: "17:00"}}
	return &schedule.WorkSchedule{Days: map[time.Weekday]schedule.WorkDay{
		time.Monday: day, time.Tuesday: day, time.Wednesday: day, time.Thursday: day, time.Friday: day,
	}}
}

func baseEmployee() employee.Employee {
	return employee.Employee{
		ID:                    "emp-1",
		CompanyID:             "co-1",
		FullName:              "Lucía Gómez",
		WeeklyHours:           decimal.NewFromInt(40),
		WorkSchedule:          officeSchedule(),
		CourtesyMarginMinutes: 10,
		WorkModality:          employee.ModalityOnSite,
		Timezone:              "Europe/Madrid",
		EmploymentStatus:      employee.EmploymentStatusActive,
	}
}

type fixture struct {
	svc      *AttendanceServiceImpl
	events   *fakeEvents
	absences *fakeAbsences
	now      time.Time
}

func newFixture(emps ...employee.Employee) *fixture {
	f := &fixture{
		events:   &fakeEvents{},
		absences: &fakeAbsences{},
		now:      madridAt(9, 5),
	}
	byID := make(map[string]employee.Employee)
	for _, e := range emps {
		byID[e.ID] = e
	}
	f.svc = &AttendanceServiceImpl{
		EventRepository:    f.events,
		EmployeeRepository: &fakeEmployees{byID: byID},
		AbsenceRepository:  f.absences,
		now:                func() time.Time { return f.now },
	}
	return f
}

func authContext(t *testing.T, c jwt.Claims) context.Context {
	t.Helper()
	svc := jwt.NewJWTService("test-secret", time.Hour)
	tokenString, _, err := svc.GenerateAccessToken(c)
	require.NoError(t, err)
	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func employeeCtx(t *testing.T) context.Context {
	return authContext(t, jwt.Claims{UserID: "user-1", EmployeeID: "emp-1", CompanyID: "co-1", Role: user.RoleEmployee})
}

func record(t *testing.T, f *fixture, ctx context.Context, typ attendance.EventType, at time.Time) (attendance.RecordEventResponse, error) {
	t.Helper()
	f.now = at
	return f.svc.RecordEvent(ctx, attendance.RecordEventRequest{Type: string(typ)})
}

// ========================================
// TESTS
// ========================================

func TestRecordEvent_FullDay(t *testing.T) {
	f := newFixture(baseEmployee())
	ctx := employeeCtx(t)

	resp, err := record(t, f, ctx, attendance.EventClockIn, madridAt(9, 0))
	require.NoError(t, err)
	assert.Equal(t, attendance.StateWorking, resp.State)
	assert.Equal(t, "09:00:00", resp.Event.LocalTime)
	require.NotNil(t, resp.Event.WorkModality)
	assert.Equal(t, "Presencial", *resp.Event.WorkModality)

	_, err = record(t, f, ctx, attendance.EventBreakStart, madridAt(13, 0))
	require.NoError(t, err)
	_, err = record(t, f, ctx, attendance.EventBreakEnd, madridAt(13, 30))
	require.NoError(t, err)
	resp, err = record(t, f, ctx, attendance.EventClockOut, madridAt(17, 0))
	require.NoError(t, err)
	assert.Equal(t, attendance.StateOut, resp.State)

	require.Len(t, f.events.events, 4)
	assert.Nil(t, f.events.events[3].WorkModality, "clock_out carries no modality")
}

func TestRecordEvent_TruncatesToSecond(t *testing.T) {
	f := newFixture(baseEmployee())
	f.now = madridAt(9, 0).Add(750 * time.Millisecond)

	_, err := f.svc.RecordEvent(employeeCtx(t), attendance.RecordEventRequest{Type: string(attendance.EventClockIn)})
	require.NoError(t, err)
	assert.Zero(t, f.events.events[0].Timestamp.Nanosecond())
}

func TestRecordEvent_InvalidTransitionAppendsNothing(t *testing.T) {
	f := newFixture(baseEmployee())
	ctx := employeeCtx(t)

	_, err := record(t, f, ctx, attendance.EventClockIn, madridAt(9, 0))
	require.NoError(t, err)

	_, err = record(t, f, ctx, attendance.EventClockIn, madridAt(9, 1))
	assert.ErrorIs(t, err, attendance.ErrInvalidTransition)

	_, err = record(t, f, ctx, attendance.EventBreakEnd, madridAt(9, 2))
	assert.ErrorIs(t, err, attendance.ErrInvalidTransition)

	assert.Len(t, f.events.events, 1)
}

func TestRecordEvent_StrictSchedule(t *testing.T) {
	emp := baseEmployee()
	emp.StrictSchedule = true
	f := newFixture(emp)
	ctx := employeeCtx(t)

	_, err := record(t, f, ctx, attendance.EventClockIn, madridAt(20, 0))
	assert.ErrorIs(t, err, attendance.ErrOutOfSchedule)
	assert.Empty(t, f.events.events)

	_, err = record(t, f, ctx, attendance.EventClockIn, madridAt(8, 51))
	assert.NoError(t, err)
}

func TestRecordEvent_AbsenceBlocksClockIn(t *testing.T) {
	f := newFixture(baseEmployee())
	f.absences.absences = []absence.Absence{{
		ID:         "abs-1",
		EmployeeID: "emp-1",
		Type:       absence.TypeVacation,
		Status:     absence.StatusApproved,
		StartDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}}

	_, err := record(t, f, employeeCtx(t), attendance.EventClockIn, madridAt(9, 0))
	assert.ErrorIs(t, err, attendance.ErrAbsenceActive)
	assert.Empty(t, f.events.events)
}

func TestRecordEvent_HybridModality(t *testing.T) {
	emp := baseEmployee()
	emp.WorkModality = employee.ModalityHybrid
	f := newFixture(emp)
	ctx := employeeCtx(t)
	f.now = madridAt(9, 0)

	_, err := f.svc.RecordEvent(ctx, attendance.RecordEventRequest{Type: string(attendance.EventClockIn)})
	assert.ErrorIs(t, err, attendance.ErrModalityRequired)

	remote := string(employee.ModalityRemote)
	resp, err := f.svc.RecordEvent(ctx, attendance.RecordEventRequest{Type: string(attendance.EventClockIn), WorkModality: &remote})
	require.NoError(t, err)
	assert.Equal(t, remote, *resp.Event.WorkModality)
}

func TestRecordEvent_BreakDetailsOnlyOnBreakStart(t *testing.T) {
	f := newFixture(baseEmployee())
	ctx := employeeCtx(t)
	f.now = madridAt(9, 0)

	_, err := f.svc.RecordEvent(ctx, attendance.RecordEventRequest{
		Type:         string(attendance.EventClockIn),
		BreakDetails: &attendance.BreakDetails{IsPersonal: true},
	})
	assert.ErrorIs(t, err, attendance.ErrBreakDetailsNotAllowed)
}

func TestRecordEvent_RejectsOtherCompanyProfile(t *testing.T) {
	emp := baseEmployee()
	emp.CompanyID = "co-2"
	f := newFixture(emp)

	_, err := record(t, f, employeeCtx(t), attendance.EventClockIn, madridAt(9, 0))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestRecordEvent_RequiresEmployeeClaim(t *testing.T) {
	f := newFixture(baseEmployee())
	ctx := authContext(t, jwt.Claims{UserID: "user-9", CompanyID: "co-1", Role: user.RoleOwner})

	_, err := record(t, f, ctx, attendance.EventClockIn, madridAt(9, 0))
	assert.ErrorIs(t, err, user.ErrEmployeeIDRequired)
}

func TestGetStatus(t *testing.T) {
	emp := baseEmployee()
	emp.StrictSchedule = true
	f := newFixture(emp)
	ctx := employeeCtx(t)

	_, err := record(t, f, ctx, attendance.EventClockIn, madridAt(9, 0))
	require.NoError(t, err)
	_, err = record(t, f, ctx, attendance.EventClockOut, madridAt(12, 0))
	require.NoError(t, err)

	f.now = madridAt(20, 0)
	status, err := f.svc.GetStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, attendance.StateOut, status.State)
	assert.False(t, status.CanClockIn, "outside the strict window")
	require.NotNil(t, status.ClockInBlockedReason)
	assert.Contains(t, *status.ClockInBlockedReason, "outside the scheduled working window")
	assert.False(t, status.CanClockOut)
	assert.Equal(t, 180, status.TodayWorkedMinutes)
	assert.Equal(t, 180, status.WeekWorkedMinutes)
	assert.Equal(t, "2025-03-10", status.WeekStart)
	assert.Equal(t, "2025-03-16", status.WeekEnd)
	assert.Equal(t, "continua", status.Today.Type)
	assert.Equal(t, []string{"09:00-17:00"}, status.Today.Slots)
	assert.Equal(t, 40.0, status.ScheduledWeeklyHours)
	assert.True(t, status.ContractDeviation.IsZero())
	require.NotNil(t, status.LastEvent)
	assert.Equal(t, "clock_out", status.LastEvent.Type)
}

func TestWeeklyAndDailySummary(t *testing.T) {
	f := newFixture(baseEmployee())
	ctx := employeeCtx(t)

	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, madrid)
	at := func(day, h, m int) time.Time { return monday.AddDate(0, 0, day).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	for _, step := range []struct {
		typ attendance.EventType
		at  time.Time
	}{
		{attendance.EventClockIn, at(0, 9, 0)},
		{attendance.EventBreakStart, at(0, 13, 0)},
		{attendance.EventBreakEnd, at(0, 13, 30)},
		{attendance.EventClockOut, at(0, 17, 0)},
		{attendance.EventClockIn, at(2, 8, 0)},
		{attendance.EventClockOut, at(2, 12, 15)},
	} {
		_, err := record(t, f, ctx, step.typ, step.at)
		require.NoError(t, err)
	}

	date := "2025-03-12"
	week, err := f.svc.WeeklySummary(ctx, attendance.SummaryRequest{Date: &date})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", week.WeekStart)
	assert.Equal(t, 450+255, week.WorkedMinutes)
	assert.Equal(t, 11.75, week.WorkedHours)
	require.Len(t, week.Days, 7)
	assert.Equal(t, 450, week.Days[0].WorkedMinutes)
	assert.Equal(t, "monday", week.Days[0].Weekday)
	assert.Equal(t, 255, week.Days[2].WorkedMinutes)
	assert.Zero(t, week.Days[6].WorkedMinutes)

	monDate := "2025-03-10"
	day, err := f.svc.DailySummary(ctx, attendance.SummaryRequest{Date: &monDate})
	require.NoError(t, err)
	assert.Equal(t, 450, day.WorkedMinutes)
	assert.Len(t, day.Events, 4)
	assert.Equal(t, "monday", day.Weekday)

	bad := "12/03/2025"
	_, err = f.svc.DailySummary(ctx, attendance.SummaryRequest{Date: &bad})
	assert.Error(t, err)
}

func TestListMyEvents_DefaultsToCurrentWeek(t *testing.T) {
	f := newFixture(baseEmployee())
	ctx := employeeCtx(t)

	_, err := record(t, f, ctx, attendance.EventClockIn, time.Date(2025, 3, 3, 9, 0, 0, 0, madrid))
	require.NoError(t, err)
	_, err = record(t, f, ctx, attendance.EventClockOut, madridAt(10, 0))
	require.NoError(t, err)

	resp, err := f.svc.ListMyEvents(ctx, attendance.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", resp.StartDate)
	assert.Equal(t, "2025-03-16", resp.EndDate)
	assert.Equal(t, 1, resp.Total)

	start := "2025-03-01"
	resp, err = f.svc.ListMyEvents(ctx, attendance.EventFilter{StartDate: &start, EndDate: ptr("2025-03-31")})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
}

func TestExport(t *testing.T) {
	f := newFixture(baseEmployee())
	ctx := employeeCtx(t)

	_, err := record(t, f, ctx, attendance.EventClockIn, madridAt(9, 0))
	require.NoError(t, err)
	_, err = record(t, f, ctx, attendance.EventClockOut, madridAt(17, 0))
	require.NoError(t, err)

	t.Run("employees may not export", func(t *testing.T) {
		_, err := f.svc.Export(ctx, attendance.ExportRequest{})
		assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
	})

	managerCtx := authContext(t, jwt.Claims{UserID: "user-2", CompanyID: "co-1", Role: user.RoleManager})

	t.Run("unknown employee", func(t *testing.T) {
		file, err := f.svc.Export(managerCtx, attendance.ExportRequest{
			EmployeeID: ptr("0199a5b2-7c3e-7d4f-8a1b-2c3d4e5f6a7b"),
		})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
		assert.Empty(t, file.Data)
	})

	t.Run("company csv round trips", func(t *testing.T) {
		file, err := f.svc.Export(managerCtx, attendance.ExportRequest{
			StartDate: ptr("2025-03-10"),
			EndDate:   ptr("2025-03-16"),
		})
		require.NoError(t, err)
		assert.Equal(t, "attendance_20250310_20250316.csv", file.Filename)
		assert.Contains(t, file.ContentType, "text/csv")

		events, err := export.ParseCSV(bytes.NewReader(file.Data))
		require.NoError(t, err)
		require.Len(t, events, 2)

		weekStart, weekEnd := attendance.ISOWeek(madridAt(12, 0))
		assert.Equal(t, 480, attendance.WeeklyWorkedMinutes(events, weekStart, weekEnd))
	})

	t.Run("xlsx", func(t *testing.T) {
		file, err := f.svc.Export(managerCtx, attendance.ExportRequest{Format: attendance.ExportFormatXLSX})
		require.NoError(t, err)
		assert.Equal(t, ".xlsx", file.Filename[len(file.Filename)-5:])

		events, err := export.ParseXLSX(bytes.NewReader(file.Data))
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})
}

func ptr[T any](v T) *T { return &v }
