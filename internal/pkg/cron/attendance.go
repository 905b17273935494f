package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/workdesk-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/employee"
)

type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	attendanceSvc  attendance.AttendanceService
	employeeRepo   employee.EmployeeRepository
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	attendanceSvc attendance.AttendanceService,
	employeeRepo employee.EmployeeRepository,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		attendanceSvc:  attendanceSvc,
		employeeRepo:   employeeRepo,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", 1*time.Hour, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees records an absence for every active employee who
// submitted nothing for yesterday. The record goes through the same
// derivation pipeline as a manual submission, so the absent policy (no clock
// times, zero hours) is applied consistently.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	// Only run at midnight (00:00-00:59 UTC)
	if time.Now().UTC().Hour() != 0 {
		return nil
	}

	slog.Info("Cron: Starting mark absent employees job")

	employees, err := j.employeeRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	totalAbsent := 0

	for _, emp := range employees {
		existing, err := j.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, yesterday, emp.CompanyID)
		if err != nil {
			slog.Error("Cron: Failed to check existing attendance",
				"employee_id", emp.ID,
				"error", err)
			continue
		}
		if existing != nil {
			// Already has a record for yesterday (submitted or marked), skip
			continue
		}

		if _, err := j.attendanceSvc.MarkAbsent(ctx, emp.ID, emp.CompanyID, yesterday); err != nil {
			slog.Error("Cron: Failed to mark employee absent",
				"employee_id", emp.ID,
				"date", yesterday.Format("2006-01-02"),
				"error", err)
			continue
		}

		totalAbsent++
	}

	slog.Info("Cron: Marked absent employees", "count", totalAbsent)
	return nil
}
