package attendance

import "errors"

// Attendance domain errors
var (
	// Transition errors
	ErrInvalidTransition = errors.New("event is not allowed in the current attendance state")
	ErrOutOfSchedule     = errors.New("clock in is outside the scheduled working window")
	ErrAbsenceActive     = errors.New("clock in is not allowed during an approved absence")

	// Payload errors
	ErrInvalidEventType       = errors.New("event type must be one of clock_in, clock_out, break_start, break_end")
	ErrModalityRequired       = errors.New("work modality is required for hybrid employees")
	ErrInvalidModality        = errors.New("work modality must be Presencial or Teletrabajo and match the employee's modality")
	ErrModalityNotAllowed     = errors.New("work modality is only accepted on clock_in and break_end")
	ErrBreakDetailsNotAllowed = errors.New("break details are only accepted on break_start")

	// General errors
	ErrEventNotFound = errors.New("clock event not found")
	ErrUnauthorized  = errors.New("unauthorized to access this clock event")
)
