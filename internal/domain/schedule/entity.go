package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayKind is the wire name of a WorkDay variant.
type DayKind string

const (
	DayKindNonWorking DayKind = "no-laboral" // Day off
	DayKindContinuous DayKind = "continua"   // One uninterrupted slot
	DayKindSplit      DayKind = "partida"    // Two or more slots
)

var DayKindValues = []string{
	string(DayKindNonWorking),
	string(DayKindContinuous),
	string(DayKindSplit),
}

// TimeSlot is a wall-clock interval in the employee's local time, "HH:MM".
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkDay is one of NonWorking, Continuous or Split.
type WorkDay interface {
	Kind() DayKind
	Slots() []TimeSlot
	isWorkDay()
}

type NonWorking struct{}

func (NonWorking) Kind() DayKind     { return DayKindNonWorking }
func (NonWorking) Slots() []TimeSlot { return nil }
func (NonWorking) isWorkDay()        {}

type Continuous struct {
	Slot TimeSlot
}

func (c Continuous) Kind() DayKind     { return DayKindContinuous }
func (c Continuous) Slots() []TimeSlot { return []TimeSlot{c.Slot} }
func (Continuous) isWorkDay()          {}

type Split struct {
	Parts []TimeSlot
}

func (s Split) Kind() DayKind { return DayKindSplit }
func (s Split) Slots() []TimeSlot {
	out := make([]TimeSlot, len(s.Parts))
	copy(out, s.Parts)
	return out
}
func (Split) isWorkDay() {}

// NewWorkDay builds the variant for kind, enforcing the slot count of each kind.
func NewWorkDay(kind DayKind, slots []TimeSlot) (WorkDay, error) {
	switch kind {
	case DayKindNonWorking:
		if len(slots) != 0 {
			return nil, fmt.Errorf("%w: %s day must not have slots", ErrInvalidSlotCount, kind)
		}
		return NonWorking{}, nil
	case DayKindContinuous:
		if len(slots) != 1 {
			return nil, fmt.Errorf("%w: %s day needs exactly one slot, got %d", ErrInvalidSlotCount, kind, len(slots))
		}
		return Continuous{Slot: slots[0]}, nil
	case DayKindSplit:
		if len(slots) < 2 {
			return nil, fmt.Errorf("%w: %s day needs at least two slots, got %d", ErrInvalidSlotCount, kind, len(slots))
		}
		parts := make([]TimeSlot, len(slots))
		copy(parts, slots)
		return Split{Parts: parts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDayKind, kind)
	}
}

// WorkSchedule maps each weekday to its WorkDay. Missing weekdays are non-working.
type WorkSchedule struct {
	Days map[time.Weekday]WorkDay
}

// DayFor returns the WorkDay for t's weekday in t's location.
func (s WorkSchedule) DayFor(t time.Time) WorkDay {
	if s.Days == nil {
		return NonWorking{}
	}
	day, ok := s.Days[t.Weekday()]
	if !ok || day == nil {
		return NonWorking{}
	}
	return day
}

// Validate checks that every slot is a well formed "HH:MM" pair with start before end.
func (s WorkSchedule) Validate() error {
	for _, wd := range orderedWeekdays {
		day, ok := s.Days[wd]
		if !ok || day == nil {
			continue
		}
		for i, slot := range day.Slots() {
			start, okStart := parseClock(slot.Start)
			end, okEnd := parseClock(slot.End)
			if !okStart || !okEnd {
				return fmt.Errorf("%w: %s slot %d (%s-%s)", ErrMalformedSlot, weekdayKeys[wd], i, slot.Start, slot.End)
			}
			if end <= start {
				return fmt.Errorf("%w: %s slot %d ends before it starts", ErrMalformedSlot, weekdayKeys[wd], i)
			}
		}
	}
	return nil
}

var orderedWeekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

var weekdayKeys = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

// WeekdayKey returns the lowercase english weekday name used on the wire.
func WeekdayKey(d time.Weekday) string {
	return weekdayKeys[d]
}

type workDayJSON struct {
	Type  DayKind    `json:"type"`
	Slots []TimeSlot `json:"slots"`
}

// MarshalJSON encodes the schedule as {"monday": {"type": "continua", "slots": [...]}, ...}.
func (s WorkSchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string]workDayJSON, len(s.Days))
	for wd, day := range s.Days {
		if day == nil {
			continue
		}
		slots := day.Slots()
		if slots == nil {
			slots = []TimeSlot{}
		}
		out[weekdayKeys[wd]] = workDayJSON{Type: day.Kind(), Slots: slots}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the weekday keyed form and enforces the slot count of each day kind.
func (s *WorkSchedule) UnmarshalJSON(data []byte) error {
	var raw map[string]workDayJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	days := make(map[time.Weekday]WorkDay, len(raw))
	for key, wire := range raw {
		wd, ok := parseWeekday(key)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWeekday, key)
		}
		day, err := NewWorkDay(wire.Type, wire.Slots)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		days[wd] = day
	}

	s.Days = days
	return nil
}

func parseWeekday(key string) (time.Weekday, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for wd, name := range weekdayKeys {
		if name == key {
			return wd, true
		}
	}
	return 0, false
}
