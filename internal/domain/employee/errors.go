package employee

import "errors"

// Employee domain errors
var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrAdminAccessRequired = errors.New("admin access required")
	ErrEmployeeInactive    = errors.New("employee is not active")
)
