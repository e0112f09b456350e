package attendance

import (
	"fmt"
	"slices"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/absence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

type State string

const (
	StateOut     State = "out"
	StateWorking State = "working"
	StateOnBreak State = "on_break"
)

// transitions lists, per state, the events it accepts and the state they lead to.
var transitions = map[State]map[EventType]State{
	StateOut:     {EventClockIn: StateWorking},
	StateWorking: {EventBreakStart: StateOnBreak, EventClockOut: StateOut},
	StateOnBreak: {EventBreakEnd: StateWorking},
}

// Allows reports whether next is a legal event from s, ignoring guards.
func (s State) Allows(next EventType) bool {
	_, ok := transitions[s][next]
	return ok
}

// StateAfter maps an event type to the state it leaves the employee in.
func StateAfter(t EventType) State {
	switch t {
	case EventClockIn, EventBreakEnd:
		return StateWorking
	case EventBreakStart:
		return StateOnBreak
	default:
		return StateOut
	}
}

// Latest returns the most recent event. Ties on timestamp fall back to
// insertion time and then id so the answer does not depend on input order.
func Latest(events []ClockEvent) (ClockEvent, bool) {
	if len(events) == 0 {
		return ClockEvent{}, false
	}
	return slices.MaxFunc(events, compareEvents), true
}

// DeriveState returns the state implied by the latest event, Out when there is none.
func DeriveState(events []ClockEvent) State {
	last, ok := Latest(events)
	if !ok {
		return StateOut
	}
	return StateAfter(last.Type)
}

// TransitionContext is everything Validate needs. EvaluateAt stands in for "now".
type TransitionContext struct {
	Current    State
	Employee   employee.Employee
	Absences   []absence.Absence
	EvaluateAt time.Time
}

// Validate decides whether next may be appended. It performs no I/O.
func Validate(tc TransitionContext, next EventType) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEventType, next)
	}
	if !tc.Current.Allows(next) {
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, next, tc.Current)
	}
	if next != EventClockIn {
		return nil
	}

	loc := tc.Employee.Location()
	if absence.AnyCovers(tc.Absences, tc.EvaluateAt, loc) {
		return ErrAbsenceActive
	}

	if tc.Employee.StrictSchedule {
		// Strict employees without a schedule have no window to clock into.
		if !tc.Employee.HasSchedule() {
			return fmt.Errorf("%w: no work schedule configured", ErrOutOfSchedule)
		}
		local := tc.EvaluateAt.In(loc)
		day := tc.Employee.WorkSchedule.DayFor(local)
		if !schedule.IsWithinWindow(day, local, tc.Employee.CourtesyMarginMinutes) {
			return fmt.Errorf("%w: %s at %s", ErrOutOfSchedule, schedule.WeekdayKey(local.Weekday()), local.Format("15:04"))
		}
	}

	return nil
}

// ResolveModality returns the modality snapshot to store on an event of type
// next. Hybrid employees must pick Presencial or Teletrabajo for each session;
// everyone else records their own modality.
func ResolveModality(emp employee.Employee, next EventType, requested *employee.WorkModality) (*employee.WorkModality, error) {
	if !next.OpensSession() {
		if requested != nil {
			return nil, ErrModalityNotAllowed
		}
		return nil, nil
	}

	if emp.WorkModality == employee.ModalityHybrid {
		if requested == nil {
			return nil, ErrModalityRequired
		}
		if !requested.IsSession() {
			return nil, ErrInvalidModality
		}
		m := *requested
		return &m, nil
	}

	if requested != nil && *requested != emp.WorkModality {
		return nil, ErrInvalidModality
	}
	if !emp.WorkModality.IsSession() {
		return nil, nil
	}
	m := emp.WorkModality
	return &m, nil
}

// CheckBreakDetails rejects break details on anything but break_start.
func CheckBreakDetails(next EventType, details *BreakDetails) error {
	if details != nil && next != EventBreakStart {
		return ErrBreakDetailsNotAllowed
	}
	return nil
}
