package user

import "errors"

var (
	ErrManagerAccessRequired   = errors.New("manager access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrCompanyIDRequired       = errors.New("company ID is required")
	ErrEmployeeIDRequired      = errors.New("employee profile is required")
)
