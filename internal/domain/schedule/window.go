package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// slotBounds returns the slot as offsets from local midnight. Malformed and
// overnight slots are reported as not ok.
func slotBounds(slot TimeSlot) (start, end time.Duration, ok bool) {
	s, okStart := parseClock(slot.Start)
	e, okEnd := parseClock(slot.End)
	if !okStart || !okEnd || e <= s {
		return 0, 0, false
	}
	return time.Duration(s) * time.Minute, time.Duration(e) * time.Minute, true
}

// sinceMidnight returns the wall-clock offset of t in its own location.
func sinceMidnight(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}

// IsWithinWindow reports whether instant falls inside [start-margin, end+margin]
// of any slot of day. The instant is read in its own location, so callers pass
// it already converted to the employee's timezone.
func IsWithinWindow(day WorkDay, instant time.Time, marginMinutes int) bool {
	if day == nil {
		return false
	}
	if marginMinutes < 0 {
		marginMinutes = 0
	}
	margin := time.Duration(marginMinutes) * time.Minute
	at := sinceMidnight(instant)

	for _, slot := range day.Slots() {
		start, end, ok := slotBounds(slot)
		if !ok {
			continue
		}
		if at >= start-margin && at <= end+margin {
			return true
		}
	}
	return false
}

// TotalWeeklyScheduledHours sums every valid slot of the week, in hours.
func TotalWeeklyScheduledHours(s WorkSchedule) float64 {
	var total time.Duration
	for _, day := range s.Days {
		if day == nil {
			continue
		}
		for _, slot := range day.Slots() {
			start, end, ok := slotBounds(slot)
			if !ok {
				continue
			}
			total += end - start
		}
	}
	return total.Minutes() / 60
}

// ContractDeviation returns scheduled hours minus contracted hours.
// A positive value means the schedule covers more than the contract.
func ContractDeviation(s WorkSchedule, weeklyHours decimal.Decimal) decimal.Decimal {
	scheduled := decimal.NewFromFloat(TotalWeeklyScheduledHours(s)).Round(2)
	return scheduled.Sub(weeklyHours)
}
