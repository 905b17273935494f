package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/workdesk-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/validator"
)

const minutesPerDay = 24 * 60

// Deriver turns raw status/clock-time/break input into a fully derived
// attendance record. All methods are pure: no I/O, no clock reads, no state
// between calls.
type Deriver struct {
}

func NewDeriver() *Deriver {
	return &Deriver{}
}

// FormState mirrors an in-progress submission before derivation.
type FormState struct {
	Status        attendance.Status
	ClockInTime   *string // HH:MM
	ClockOutTime  *string // HH:MM
	BreakMinutes  int
	ExpectedHours float64
}

// Submission is a shape-validated day entry ready for derivation.
type Submission struct {
	EmployeeID   string
	CompanyID    string
	Date         time.Time
	Status       attendance.Status
	ClockInTime  *string // HH:MM
	ClockOutTime *string // HH:MM
	BreakMinutes int
	ClockMethod  string
	ClockDevice  string
	Latitude     *float64
	Longitude    *float64
	Accuracy     *float64
	Remarks      string
}

type ReconcileAction string

const (
	ActionCreate ReconcileAction = "create"
	ActionUpdate ReconcileAction = "update"
)

// ReconcileResult carries the persistence decision for one submission.
type ReconcileResult struct {
	Action ReconcileAction
	Record attendance.Record
}

// ApplyStatusDefaults applies the status policy to the form state. Statuses
// without clock times get their times cleared and expected hours zeroed. A
// half day without an overridden end gets the default 13:00 clock-out, clock-in
// untouched. Everything else keeps its times and takes the policy's minimum
// as expected hours.
func (d *Deriver) ApplyStatusDefaults(status attendance.Status, state FormState) FormState {
	state.Status = status

	policy, ok := status.Policy()
	if !ok {
		return state
	}

	if !policy.RequiresClockTimes {
		state.ClockInTime = nil
		state.ClockOutTime = nil
		state.ExpectedHours = 0
		return state
	}

	if status == attendance.StatusHalfDay {
		clockOut := attendance.HalfDayDefaultClockOut
		state.ClockOutTime = &clockOut
	}

	state.ExpectedHours = policy.MinimumHours
	return state
}

// ComputeWorkingHours derives worked hours from two wall-clock times and a
// break duration. A clock-out earlier than the clock-in is an overnight shift
// and wraps past midnight rather than erroring. The result is floored at 0
// and is 0 whenever either time is absent or malformed.
func (d *Deriver) ComputeWorkingHours(clockInTime, clockOutTime *string, breakMinutes int) float64 {
	if clockInTime == nil || clockOutTime == nil {
		return 0
	}

	inMinutes, okIn := validator.ClockTimeToMinutes(*clockInTime)
	outMinutes, okOut := validator.ClockTimeToMinutes(*clockOutTime)
	if !okIn || !okOut {
		return 0
	}

	span := outMinutes - inMinutes
	if span < 0 {
		span += minutesPerDay
	}

	worked := span - breakMinutes
	if worked < 0 {
		worked = 0
	}

	return float64(worked) / 60.0
}

// Validate enforces the status policy against the derived values and returns
// every violation, not just the first. The half-day status is exempt from its
// own minimum-hours check. Location is only demanded of statuses that take
// clock times, so absences and leave recorded without coordinates pass.
func (d *Deriver) Validate(
	status attendance.Status,
	clockInTime, clockOutTime *string,
	computedHours float64,
	locationRequired bool,
	latitude *float64,
) validator.ValidationErrors {
	var errs validator.ValidationErrors

	policy, _ := status.Policy()

	if policy.RequiresClockTimes && clockInTime == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_in_time",
			Message: "Clock in time is required",
		})
	}

	if policy.RequiresClockTimes && clockOutTime == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_out_time",
			Message: "Clock out time is required",
		})
	}

	if computedHours < policy.MinimumHours && status != attendance.StatusHalfDay {
		errs = append(errs, validator.ValidationError{
			Field:   "working_hours",
			Message: fmt.Sprintf("Minimum %g hours required for %s status", policy.MinimumHours, status),
		})
	}

	if locationRequired && policy.RequiresClockTimes && latitude == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "Location is required for attendance marking",
		})
	}

	return errs
}

// Reconcile decides between create and update for the submission's
// (employee, date) and builds the derived record. When a record already
// exists, the submission replaces it wholesale; working hours are recomputed
// from the submission's inputs, never merged from the old record. Only the
// identity and creation timestamp carry over.
func (d *Deriver) Reconcile(existing *attendance.Record, sub Submission) ReconcileResult {
	record := d.buildRecord(sub)

	if existing == nil {
		return ReconcileResult{Action: ActionCreate, Record: record}
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	return ReconcileResult{Action: ActionUpdate, Record: record}
}

// buildRecord derives the persistable record from a submission. Clock events
// are anchored to the submission date; an overnight clock-out lands on the
// next day.
func (d *Deriver) buildRecord(sub Submission) attendance.Record {
	policy, _ := sub.Status.Policy()

	record := attendance.Record{
		EmployeeID:   sub.EmployeeID,
		CompanyID:    sub.CompanyID,
		Date:         sub.Date,
		Status:       sub.Status,
		BreakMinutes: sub.BreakMinutes,
		Latitude:     sub.Latitude,
		Longitude:    sub.Longitude,
		Accuracy:     sub.Accuracy,
		Remarks:      sub.Remarks,
	}

	if !policy.RequiresClockTimes {
		record.BreakMinutes = 0
		record.ExpectedHours = 0
		return record
	}

	record.ClockIn = d.clockEventAt(sub.Date, sub.ClockInTime, sub.ClockMethod, sub.ClockDevice)
	record.ClockOut = d.clockEventAt(sub.Date, sub.ClockOutTime, sub.ClockMethod, sub.ClockDevice)

	// Overnight shift: the clock-out event belongs to the next day
	if record.ClockIn != nil && record.ClockOut != nil && record.ClockOut.Time.Before(record.ClockIn.Time) {
		record.ClockOut.Time = record.ClockOut.Time.AddDate(0, 0, 1)
	}

	record.TotalHours = d.ComputeWorkingHours(sub.ClockInTime, sub.ClockOutTime, sub.BreakMinutes)
	record.ExpectedHours = policy.MinimumHours
	record.OvertimeHours = math.Max(0, record.TotalHours-attendance.StandardWorkDayHours)

	return record
}

func (d *Deriver) clockEventAt(date time.Time, clockTime *string, method, device string) *attendance.ClockEvent {
	if clockTime == nil {
		return nil
	}

	minutes, ok := validator.ClockTimeToMinutes(*clockTime)
	if !ok {
		return nil
	}

	at := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()).
		Add(time.Duration(minutes) * time.Minute)

	return &attendance.ClockEvent{
		Time:   at,
		Method: method,
		Device: device,
	}
}
