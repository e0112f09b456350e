package schedule

import "errors"

var (
	// Work Day Errors
	ErrInvalidDayKind   = errors.New("day type must be one of 'no-laboral', 'continua' or 'partida'")
	ErrInvalidSlotCount = errors.New("slot count does not match day type")
	ErrMalformedSlot    = errors.New("time slot must be a valid HH:MM range with start before end")

	// Work Schedule Errors
	ErrUnknownWeekday = errors.New("unknown weekday")
)
