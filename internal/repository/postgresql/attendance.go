package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.employee_id, a.company_id, a.date, a.status,
	a.clock_in, a.clock_in_method, a.clock_in_device,
	a.clock_out, a.clock_out_method, a.clock_out_device,
	a.break_minutes, a.total_hours, a.expected_hours, a.overtime_hours,
	a.latitude, a.longitude, a.accuracy, a.remarks,
	a.created_at, a.updated_at
`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var clockInTime, clockOutTime *time.Time
	var clockInMethod, clockInDevice, clockOutMethod, clockOutDevice *string

	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.Date, &rec.Status,
		&clockInTime, &clockInMethod, &clockInDevice,
		&clockOutTime, &clockOutMethod, &clockOutDevice,
		&rec.BreakMinutes, &rec.TotalHours, &rec.ExpectedHours, &rec.OvertimeHours,
		&rec.Latitude, &rec.Longitude, &rec.Accuracy, &rec.Remarks,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}

	rec.ClockIn = buildClockEvent(clockInTime, clockInMethod, clockInDevice)
	rec.ClockOut = buildClockEvent(clockOutTime, clockOutMethod, clockOutDevice)

	return rec, nil
}

func clockEventFields(event *attendance.ClockEvent) (t *time.Time, method, device *string) {
	if event == nil {
		return nil, nil, nil
	}
	return &event.Time, &event.Method, &event.Device
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			id, employee_id, company_id, date, status,
			clock_in, clock_in_method, clock_in_device,
			clock_out, clock_out_method, clock_out_device,
			break_minutes, total_hours, expected_hours, overtime_hours,
			latitude, longitude, accuracy, remarks
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		) RETURNING created_at, updated_at
	`

	clockIn, clockInMethod, clockInDevice := clockEventFields(record.ClockIn)
	clockOut, clockOutMethod, clockOutDevice := clockEventFields(record.ClockOut)

	err := q.QueryRow(ctx, query,
		record.ID,
		record.EmployeeID,
		record.CompanyID,
		record.Date,
		record.Status,
		clockIn, clockInMethod, clockInDevice,
		clockOut, clockOutMethod, clockOutDevice,
		record.BreakMinutes,
		record.TotalHours,
		record.ExpectedHours,
		record.OvertimeHours,
		record.Latitude,
		record.Longitude,
		record.Accuracy,
		record.Remarks,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return record, nil
}

// Update implements attendance.AttendanceRepository. The record is replaced
// in full; only the identity columns stay fixed.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records SET
			status = $2,
			clock_in = $3, clock_in_method = $4, clock_in_device = $5,
			clock_out = $6, clock_out_method = $7, clock_out_device = $8,
			break_minutes = $9, total_hours = $10, expected_hours = $11, overtime_hours = $12,
			latitude = $13, longitude = $14, accuracy = $15, remarks = $16,
			updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	clockIn, clockInMethod, clockInDevice := clockEventFields(record.ClockIn)
	clockOut, clockOutMethod, clockOutDevice := clockEventFields(record.ClockOut)

	err := q.QueryRow(ctx, query,
		record.ID,
		record.Status,
		clockIn, clockInMethod, clockInDevice,
		clockOut, clockOutMethod, clockOutDevice,
		record.BreakMinutes,
		record.TotalHours,
		record.ExpectedHours,
		record.OvertimeHours,
		record.Latitude,
		record.Longitude,
		record.Accuracy,
		record.Remarks,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return record, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records a
		WHERE a.employee_id = $1
		  AND a.date = $2
		  AND a.company_id = $3
		LIMIT 1
	`, attendanceColumns)

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No record for this day yet
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s, e.full_name AS employee_name
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1 AND a.company_id = $2
	`, attendanceColumns)

	row := q.QueryRow(ctx, query, id, companyID)

	var rec attendance.Record
	var clockInTime, clockOutTime *time.Time
	var clockInMethod, clockInDevice, clockOutMethod, clockOutDevice *string

	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.Date, &rec.Status,
		&clockInTime, &clockInMethod, &clockInDevice,
		&clockOutTime, &clockOutMethod, &clockOutDevice,
		&rec.BreakMinutes, &rec.TotalHours, &rec.ExpectedHours, &rec.OvertimeHours,
		&rec.Latitude, &rec.Longitude, &rec.Accuracy, &rec.Remarks,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	rec.ClockIn = buildClockEvent(clockInTime, clockInMethod, clockInDevice)
	rec.ClockOut = buildClockEvent(clockOutTime, clockOutMethod, clockOutDevice)

	return rec, nil
}

func buildClockEvent(t *time.Time, method, device *string) *attendance.ClockEvent {
	if t == nil {
		return nil
	}
	event := &attendance.ClockEvent{Time: *t}
	if method != nil {
		event.Method = *method
	}
	if device != nil {
		event.Device = *device
	}
	return event
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "a.company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*) FROM attendance_records a WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	// Build ORDER BY from the whitelisted sort fields
	orderByField := "a.date"
	switch filter.SortBy {
	case "clock_in_time":
		orderByField = "a.clock_in"
	case "clock_out_time":
		orderByField = "a.clock_out"
	case "status":
		orderByField = "a.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s, e.full_name AS employee_name
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		var clockInTime, clockOutTime *time.Time
		var clockInMethod, clockInDevice, clockOutMethod, clockOutDevice *string

		err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.Date, &rec.Status,
			&clockInTime, &clockInMethod, &clockInDevice,
			&clockOutTime, &clockOutMethod, &clockOutDevice,
			&rec.BreakMinutes, &rec.TotalHours, &rec.ExpectedHours, &rec.OvertimeHours,
			&rec.Latitude, &rec.Longitude, &rec.Accuracy, &rec.Remarks,
			&rec.CreatedAt, &rec.UpdatedAt,
			&rec.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}

		rec.ClockIn = buildClockEvent(clockInTime, clockInMethod, clockInDevice)
		rec.ClockOut = buildClockEvent(clockOutTime, clockOutMethod, clockOutDevice)

		records = append(records, rec)
	}

	return records, total, nil
}
