package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// All methods include companyID parameter to prevent cross-company data access.
type AttendanceRepository interface {
	// Create creates a new attendance record
	Create(ctx context.Context, record Record) (Record, error)

	// Update overwrites an existing attendance record in full
	Update(ctx context.Context, record Record) (Record, error)

	// GetByID retrieves a record by ID with company isolation
	GetByID(ctx context.Context, id string, companyID string) (Record, error)

	// GetByEmployeeAndDate retrieves the record for one employee on one date.
	// Returns nil (not an error) when no record exists, so the caller can
	// decide between create and update.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*Record, error)

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter, companyID string) ([]Record, int64, error)
}
