package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
)

// AttendanceJobs reminds employees who left a shift or break open.
type AttendanceJobs struct {
	events   attendance.EventRepository
	sink     notification.Sink
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewAttendanceJobs reminds once a session has been open for maxAge. interval
// is how often the reminder job runs.
func NewAttendanceJobs(events attendance.EventRepository, sink notification.Sink, maxAge, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		events:   events,
		sink:     sink,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "remind_open_shifts",
		Interval: j.interval,
		Timeout:  time.Minute,
		Fn:       j.RemindOpenShifts,
	})
}

// RemindOpenShifts notifies each employee whose session crossed maxAge since
// the previous run, so a session is reminded about once.
func (j *AttendanceJobs) RemindOpenShifts(ctx context.Context) error {
	now := j.now().UTC()
	before := now.Add(-j.maxAge)
	since := before.Add(-j.interval)

	sessions, err := j.events.ListOpenSessions(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to list open sessions: %w", err)
	}

	sent := 0
	for _, session := range sessions {
		if session.UserID == nil || !session.LastEvent.Timestamp.After(since) {
			continue
		}
		if err := j.sink.Send(ctx, openShiftNotice(session, now)); err != nil {
			slog.Error("failed to send open shift reminder",
				"employee_id", session.EmployeeID,
				"error", err,
			)
			continue
		}
		sent++
	}

	slog.Info("open shift reminders sent", "open_sessions", len(sessions), "sent", sent)
	return nil
}

func openShiftNotice(session attendance.OpenSession, now time.Time) notification.Outbound {
	state := attendance.StateAfter(session.LastEvent.Type)
	open := now.Sub(session.LastEvent.Timestamp).Truncate(time.Minute)

	title := "You are still clocked in"
	if state == attendance.StateOnBreak {
		title = "Your break is still open"
	}

	return notification.Outbound{
		CompanyID:   session.CompanyID,
		RecipientID: *session.UserID,
		Type:        notification.TypeOpenShiftReminder,
		Title:       title,
		Message: fmt.Sprintf("Your last %s was %s ago. Record the missing event or request a correction.",
			session.LastEvent.Type, open),
		Link: "/attendance",
		Data: map[string]interface{}{
			"employee_id": session.EmployeeID,
			"event_id":    session.LastEvent.ID,
			"state":       string(state),
		},
	}
}
