package attendance

import "errors"

// Attendance domain errors
var (
	ErrRecordNotFound       = errors.New("attendance record not found")
	ErrOutsideAllowedRadius = errors.New("you are outside the allowed office radius")
	ErrUnauthorized         = errors.New("unauthorized to access this attendance record")
)
