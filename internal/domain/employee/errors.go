package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrUnauthorized     = errors.New("unauthorized to access this employee")
	ErrInvalidSchedule  = errors.New("employee work schedule is invalid")
)
