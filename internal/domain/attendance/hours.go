package attendance

import (
	"slices"
	"time"
)

// inRange returns the events with from <= timestamp <= to, sorted ascending.
func inRange(events []ClockEvent, from, to time.Time) []ClockEvent {
	out := make([]ClockEvent, 0, len(events))
	for _, ev := range events {
		if ev.Timestamp.Before(from) || ev.Timestamp.After(to) {
			continue
		}
		out = append(out, ev)
	}
	slices.SortStableFunc(out, compareEvents)
	return out
}

// pairMinutes is the whole minutes from start to end. Each pair is floored on
// its own, so seconds never carry over between pairs.
func pairMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// WeeklyWorkedMinutes pairs events sequentially inside [weekStart, weekEnd].
// A clock_in opens an entry (overwriting a dangling one), a clock_out closes it,
// and each break_start/break_end pair is subtracted. Unmatched closers are
// ignored and an open shift contributes nothing.
func WeeklyWorkedMinutes(events []ClockEvent, weekStart, weekEnd time.Time) int {
	var (
		total     int
		entryTime *time.Time
		breakTime *time.Time
	)

	for _, ev := range inRange(events, weekStart, weekEnd) {
		ts := ev.Timestamp
		switch ev.Type {
		case EventClockIn:
			entryTime = &ts
		case EventClockOut:
			if entryTime != nil {
				total += pairMinutes(*entryTime, ts)
				entryTime = nil
			}
		case EventBreakStart:
			breakTime = &ts
		case EventBreakEnd:
			if breakTime != nil {
				total -= pairMinutes(*breakTime, ts)
				breakTime = nil
			}
		}
	}

	return max(total, 0)
}

// DayWorkedMinutes brackets the calendar day of day (in day's location) from
// its first clock_in to its last clock_out, then subtracts every
// break_start/break_end pair lying inside that bracket. Days without a
// complete bracket count as zero.
func DayWorkedMinutes(events []ClockEvent, day time.Time) int {
	start, end := DayBounds(day)

	var (
		firstIn   *time.Time
		lastOut   *time.Time
		breakTime *time.Time
		breaks    [][2]time.Time
	)

	for _, ev := range inRange(events, start, end) {
		ts := ev.Timestamp
		switch ev.Type {
		case EventClockIn:
			if firstIn == nil {
				firstIn = &ts
			}
		case EventClockOut:
			lastOut = &ts
		case EventBreakStart:
			breakTime = &ts
		case EventBreakEnd:
			if breakTime != nil {
				breaks = append(breaks, [2]time.Time{*breakTime, ts})
				breakTime = nil
			}
		}
	}

	if firstIn == nil || lastOut == nil || !lastOut.After(*firstIn) {
		return 0
	}

	total := pairMinutes(*firstIn, *lastOut)
	for _, b := range breaks {
		if b[0].Before(*firstIn) || b[1].After(*lastOut) {
			continue
		}
		total -= pairMinutes(b[0], b[1])
	}

	return max(total, 0)
}

// DayBounds returns 00:00 and 23:59:59.999999999 of t's calendar day in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// ISOWeek returns Monday 00:00 and Sunday 23:59:59.999999999 of t's week in t's location.
func ISOWeek(t time.Time) (start, end time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	dayStart, _ := DayBounds(t)
	start = dayStart.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}
