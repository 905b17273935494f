package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// Submit runs one day's submission through the derivation pipeline and
	// persists the result, creating or overwriting the record for
	// (employee, date)
	Submit(ctx context.Context, req SubmitAttendanceRequest) (AttendanceResponse, error)

	// GetDay retrieves the authenticated employee's record for a date
	GetDay(ctx context.Context, date string) (AttendanceResponse, error)

	// GetMyAttendance retrieves attendance records for the authenticated employee
	GetMyAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// ListAttendance retrieves attendance records with filters (admin/manager)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// GetAttendance retrieves a single attendance record by ID
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)

	// MarkAbsent records an absence for an employee without a submission for
	// date. Used by the nightly job; runs through the same pipeline.
	MarkAbsent(ctx context.Context, employeeID string, companyID string, date time.Time) (AttendanceResponse, error)
}
