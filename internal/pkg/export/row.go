// Package export renders clock events as flat rows for operator download.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
)

// Header is the column order shared by the CSV and XLSX outputs.
var Header = []string{
	"event_id",
	"date",
	"weekday",
	"employee_id",
	"employee",
	"event_type",
	"time",
	"timestamp",
	"work_modality",
	"split_shift",
	"personal",
	"justified",
	"justification",
	"note",
}

// Row is one clock event projected onto the employee's local calendar.
type Row struct {
	EventID       string
	Date          string
	Weekday       string
	EmployeeID    string
	Employee      string
	EventType     string
	Time          string
	Timestamp     string
	WorkModality  string
	SplitShift    bool
	Personal      bool
	Justified     bool
	Justification string
	Note          string
}

// LocationFunc returns the timezone an employee's events are rendered in.
type LocationFunc func(employeeID string) *time.Location

// Project builds one row per event. A nil locate, or a nil location, renders in UTC.
func Project(events []attendance.ClockEvent, locate LocationFunc) []Row {
	rows := make([]Row, 0, len(events))
	for _, ev := range events {
		loc := time.UTC
		if locate != nil {
			if l := locate(ev.EmployeeID); l != nil {
				loc = l
			}
		}
		local := ev.Timestamp.In(loc)

		row := Row{
			EventID:    ev.ID,
			Date:       local.Format("2006-01-02"),
			Weekday:    local.Weekday().String(),
			EmployeeID: ev.EmployeeID,
			EventType:  string(ev.Type),
			Time:       local.Format("15:04:05"),
			Timestamp:  local.Format(time.RFC3339),
		}
		if ev.EmployeeName != nil {
			row.Employee = *ev.EmployeeName
		}
		if ev.WorkModality != nil {
			row.WorkModality = string(*ev.WorkModality)
		}
		if bd := ev.BreakDetails; bd != nil {
			row.SplitShift = bd.IsSplitShift
			row.Personal = bd.IsPersonal
			row.Justified = bd.IsJustified
			row.Justification = bd.JustificationType
			row.Note = bd.Note
		}
		rows = append(rows, row)
	}
	return rows
}

func (r Row) record() []string {
	return []string{
		r.EventID,
		r.Date,
		r.Weekday,
		r.EmployeeID,
		r.Employee,
		r.EventType,
		r.Time,
		r.Timestamp,
		r.WorkModality,
		strconv.FormatBool(r.SplitShift),
		strconv.FormatBool(r.Personal),
		strconv.FormatBool(r.Justified),
		r.Justification,
		r.Note,
	}
}

// event rebuilds the clock event a row was projected from.
func (r Row) event() (attendance.ClockEvent, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return attendance.ClockEvent{}, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}
	et := attendance.EventType(r.EventType)
	if !et.IsValid() {
		return attendance.ClockEvent{}, fmt.Errorf("%w: %q", attendance.ErrInvalidEventType, r.EventType)
	}

	ev := attendance.ClockEvent{
		ID:         r.EventID,
		EmployeeID: r.EmployeeID,
		Type:       et,
		Timestamp:  ts.UTC(),
	}
	if r.Employee != "" {
		name := r.Employee
		ev.EmployeeName = &name
	}
	if r.WorkModality != "" {
		m := employee.WorkModality(r.WorkModality)
		ev.WorkModality = &m
	}
	if et == attendance.EventBreakStart {
		ev.BreakDetails = &attendance.BreakDetails{
			IsSplitShift:      r.SplitShift,
			IsPersonal:        r.Personal,
			IsJustified:       r.Justified,
			JustificationType: r.Justification,
			Note:              r.Note,
		}
	}
	return ev, nil
}

func rowFromRecord(rec []string) (Row, error) {
	if len(rec) < len(Header) {
		return Row{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(rec))
	}
	flag := func(i int) (bool, error) {
		v := strings.TrimSpace(rec[i])
		if v == "" {
			return false, nil
		}
		return strconv.ParseBool(v)
	}

	row := Row{
		EventID:       rec[0],
		Date:          rec[1],
		Weekday:       rec[2],
		EmployeeID:    rec[3],
		Employee:      rec[4],
		EventType:     rec[5],
		Time:          rec[6],
		Timestamp:     rec[7],
		WorkModality:  rec[8],
		Justification: rec[12],
		Note:          rec[13],
	}
	var err error
	if row.SplitShift, err = flag(9); err != nil {
		return Row{}, fmt.Errorf("split_shift: %w", err)
	}
	if row.Personal, err = flag(10); err != nil {
		return Row{}, fmt.Errorf("personal: %w", err)
	}
	if row.Justified, err = flag(11); err != nil {
		return Row{}, fmt.Errorf("justified: %w", err)
	}
	return row, nil
}
