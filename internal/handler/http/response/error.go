package response

import (
	"errors"
	"net/http"

	"github.com/workdesk-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/auth"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/employee"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing token")
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Refresh token revoked")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")
	case errors.Is(err, employee.ErrAdminAccessRequired):
		Forbidden(w, "Admin access required")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrOutsideAllowedRadius):
		BadRequest(w, "You are outside the allowed office radius", nil)
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, "Unauthorized to access this attendance record")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
