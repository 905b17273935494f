package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/workdesk-hq/attendance-backend-go/internal/config"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/employee"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/database"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/utils"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	deriver *Deriver
	policy  config.AttendanceConfig
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	deriver *Deriver,
	policy config.AttendanceConfig,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		deriver:              deriver,
		policy:               policy,
	}
}

func claimsFromContext(ctx context.Context) (employeeID, companyID, role string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	companyID, ok = claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	role, _ = claims["role"].(string)

	return employeeID, companyID, role, nil
}

// Submit implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Submit(ctx context.Context, req attendance.SubmitAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	employeeID, companyID, role, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// Admins may submit on behalf of another employee; everyone else submits
	// for themselves
	if req.EmployeeID != "" && req.EmployeeID != employeeID {
		if role != string(employee.RoleAdmin) {
			return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
		}
		employeeID = req.EmployeeID
	}

	date := todayUTC()
	if req.Date != "" {
		// Format already checked by req.Validate
		if parsed, valid := validator.IsValidDate(req.Date); valid {
			date = parsed
		}
	}

	sub := Submission{
		EmployeeID:   employeeID,
		CompanyID:    companyID,
		Date:         date,
		Status:       attendance.Status(req.Status),
		ClockInTime:  req.ClockInTime,
		ClockOutTime: req.ClockOutTime,
		BreakMinutes: req.BreakMinutes,
		ClockMethod:  req.ClockMethod,
		ClockDevice:  req.ClockDevice,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Accuracy:     req.Accuracy,
		Remarks:      req.Remarks,
	}

	record, err := a.process(ctx, sub)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(record), nil
}

// process runs the derivation pipeline and the atomic read-modify-write
// against the record store.
func (a *AttendanceServiceImpl) process(ctx context.Context, sub Submission) (attendance.Record, error) {
	state := a.deriver.ApplyStatusDefaults(sub.Status, FormState{
		Status:       sub.Status,
		ClockInTime:  sub.ClockInTime,
		ClockOutTime: sub.ClockOutTime,
		BreakMinutes: sub.BreakMinutes,
	})
	sub.ClockInTime = state.ClockInTime
	sub.ClockOutTime = state.ClockOutTime

	computedHours := a.deriver.ComputeWorkingHours(sub.ClockInTime, sub.ClockOutTime, sub.BreakMinutes)

	if errs := a.deriver.Validate(
		sub.Status,
		sub.ClockInTime, sub.ClockOutTime,
		computedHours,
		a.policy.LocationRequired,
		sub.Latitude,
	); len(errs) > 0 {
		return attendance.Record{}, errs
	}

	if err := a.checkOfficeRadius(sub); err != nil {
		return attendance.Record{}, err
	}

	var record attendance.Record
	err := a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := a.AttendanceRepository.GetByEmployeeAndDate(txCtx, sub.EmployeeID, sub.Date, sub.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get existing attendance: %w", err)
		}

		result := a.deriver.Reconcile(existing, sub)

		switch result.Action {
		case ActionCreate:
			result.Record.ID = uuid.NewString()
			record, err = a.AttendanceRepository.Create(txCtx, result.Record)
			if err != nil {
				return fmt.Errorf("failed to create attendance record: %w", err)
			}
		case ActionUpdate:
			record, err = a.AttendanceRepository.Update(txCtx, result.Record)
			if err != nil {
				return fmt.Errorf("failed to update attendance record: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}

	return record, nil
}

// checkOfficeRadius rejects on-site submissions made outside the configured
// office geofence. WFH is exempt, as are statuses without clock times.
func (a *AttendanceServiceImpl) checkOfficeRadius(sub Submission) error {
	if !a.policy.LocationRequired || a.policy.OfficeRadiusMeter <= 0 {
		return nil
	}

	policy, _ := sub.Status.Policy()
	if !policy.RequiresClockTimes || sub.Status == attendance.StatusWFH {
		return nil
	}

	if sub.Latitude == nil || sub.Longitude == nil {
		// Missing location is already reported by Validate
		return nil
	}

	distance := utils.CalculateHaversineDistance(
		*sub.Latitude, *sub.Longitude,
		a.policy.OfficeLatitude, a.policy.OfficeLongitude,
	)
	if distance > a.policy.OfficeRadiusMeter {
		return attendance.ErrOutsideAllowedRadius
	}

	return nil
}

// MarkAbsent implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkAbsent(ctx context.Context, employeeID string, companyID string, date time.Time) (attendance.AttendanceResponse, error) {
	record, err := a.process(ctx, Submission{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		Status:     attendance.StatusAbsent,
		Remarks:    "Marked absent: no attendance submission for this date",
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(record), nil
}

// GetDay implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetDay(ctx context.Context, dateStr string) (attendance.AttendanceResponse, error) {
	employeeID, companyID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	date := todayUTC()
	if dateStr != "" {
		parsed, valid := validator.IsValidDate(dateStr)
		if !valid {
			return attendance.AttendanceResponse{}, validator.ValidationErrors{{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			}}
		}
		date = parsed
	}

	record, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance by date: %w", err)
	}
	if record == nil {
		return attendance.AttendanceResponse{}, attendance.ErrRecordNotFound
	}

	return toResponse(*record), nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	employeeID, companyID, role, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := a.AttendanceRepository.GetByID(ctx, id, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if record.EmployeeID != employeeID && role != string(employee.RoleAdmin) {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}

	return toResponse(record), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	employeeID, companyID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	// Scope to the caller regardless of what the filter asked for
	filter.EmployeeID = &employeeID

	return a.list(ctx, filter, companyID)
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	_, companyID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	return a.list(ctx, filter, companyID)
}

func (a *AttendanceServiceImpl) list(ctx context.Context, filter attendance.AttendanceFilter, companyID string) (attendance.ListAttendanceResponse, error) {
	records, total, err := a.AttendanceRepository.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toResponse(record))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Attendances: responses,
	}, nil
}

func toResponse(record attendance.Record) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:           record.ID,
		EmployeeID:   record.EmployeeID,
		EmployeeName: record.EmployeeName,
		Date:         record.Date.Format("2006-01-02"),
		Status:       string(record.Status),
		ClockInTime:  clockEventToString(record.ClockIn),
		ClockOutTime: clockEventToString(record.ClockOut),
		BreakMinutes: record.BreakMinutes,
		WorkingHours: attendance.WorkingHoursResponse{
			Total:    record.TotalHours,
			Expected: record.ExpectedHours,
			Overtime: record.OvertimeHours,
		},
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		Remarks:   record.Remarks,
		CreatedAt: record.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: record.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// clockEventToString safely converts a clock event to a "HH:MM" string.
func clockEventToString(event *attendance.ClockEvent) *string {
	if event == nil {
		return nil
	}
	formatted := event.Time.Format("15:04")
	return &formatted
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
