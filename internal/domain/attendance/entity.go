package attendance

import (
	"time"
)

// ClockEvent captures one clock-in or clock-out action.
type ClockEvent struct {
	Time   time.Time
	Method string
	Device string
}

// Record is the persisted attendance outcome for one employee on one calendar
// date. (EmployeeID, Date) is unique; resubmissions for the same day overwrite
// the record instead of creating a new one.
//
// TotalHours, ExpectedHours and OvertimeHours are always derived from the
// clock times, break duration and status policy. Caller-supplied values for
// them are never trusted.
type Record struct {
	ID           string
	EmployeeID   string
	CompanyID    string
	Date         time.Time
	Status       Status
	ClockIn      *ClockEvent
	ClockOut     *ClockEvent
	BreakMinutes int

	TotalHours    float64
	ExpectedHours float64
	OvertimeHours float64

	Latitude  *float64
	Longitude *float64
	Accuracy  *float64

	Remarks   string
	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	EmployeeName *string
}
