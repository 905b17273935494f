package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk-hq/attendance-backend-go/internal/config"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/employee"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/validator"
)

// passthroughTransactor runs the callback without a real database transaction.
type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memoryAttendanceRepository keeps records in a slice and counts writes so
// tests can assert the create-versus-update decision.
type memoryAttendanceRepository struct {
	records     []attendance.Record
	createCalls int
	updateCalls int
}

func (m *memoryAttendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	m.records = append(m.records, record)
	m.createCalls++
	return record, nil
}

func (m *memoryAttendanceRepository) Update(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	for i := range m.records {
		if m.records[i].ID == record.ID {
			record.CreatedAt = m.records[i].CreatedAt
			record.UpdatedAt = time.Now().UTC()
			m.records[i] = record
			m.updateCalls++
			return record, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (m *memoryAttendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Record, error) {
	for _, record := range m.records {
		if record.ID == id && record.CompanyID == companyID {
			return record, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (m *memoryAttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.Record, error) {
	for i := range m.records {
		record := m.records[i]
		if record.EmployeeID == employeeID && record.CompanyID == companyID && record.Date.Equal(date) {
			return &record, nil
		}
	}
	return nil, nil
}

func (m *memoryAttendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Record, int64, error) {
	var matched []attendance.Record
	for _, record := range m.records {
		if record.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && record.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && *filter.Status != "" && string(record.Status) != *filter.Status {
			continue
		}
		matched = append(matched, record)
	}
	return matched, int64(len(matched)), nil
}

type memoryEmployeeRepository struct {
	employees []employee.Employee
}

func (m *memoryEmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	for _, e := range m.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m *memoryEmployeeRepository) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	for _, e := range m.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m *memoryEmployeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	var active []employee.Employee
	for _, e := range m.employees {
		if e.EmploymentStatus == employee.EmploymentActive {
			active = append(active, e)
		}
	}
	return active, nil
}

func newTestService(repo *memoryAttendanceRepository, policy config.AttendanceConfig) attendance.AttendanceService {
	return NewAttendanceService(
		passthroughTransactor{},
		repo,
		&memoryEmployeeRepository{},
		NewDeriver(),
		policy,
	)
}

func authedContext(t *testing.T, employeeID, companyID, role string) context.Context {
	t.Helper()

	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := auth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"company_id":  companyID,
		"role":        role,
	})
	require.NoError(t, err)

	return jwtauth.NewContext(context.Background(), token, nil)
}

func TestSubmit_CreatesFirstRecordOfTheDay(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	resp, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
		Date:         "2025-03-10",
		Status:       string(attendance.StatusPresent),
		ClockInTime:  strPtr("09:00"),
		ClockOutTime: strPtr("18:00"),
		BreakMinutes: 60,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, repo.createCalls)
	assert.Zero(t, repo.updateCalls)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "emp-1", resp.EmployeeID)
	assert.Equal(t, "2025-03-10", resp.Date)
	assert.InDelta(t, 8.0, resp.WorkingHours.Total, 1e-9)
	assert.InDelta(t, 8.0, resp.WorkingHours.Expected, 1e-9)
	assert.Zero(t, resp.WorkingHours.Overtime)
}

func TestSubmit_ResubmissionUpdatesInPlace(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	first, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
		Date:         "2025-03-10",
		Status:       string(attendance.StatusPresent),
		ClockInTime:  strPtr("09:00"),
		ClockOutTime: strPtr("17:00"),
	})
	require.NoError(t, err)

	second, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
		Date:        "2025-03-10",
		Status:      string(attendance.StatusHalfDay),
		ClockInTime: strPtr("09:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.createCalls)
	assert.Equal(t, 1, repo.updateCalls)
	assert.Len(t, repo.records, 1, "resubmission never grows the store")
	assert.Equal(t, first.ID, second.ID, "record identity survives the overwrite")
	assert.Equal(t, string(attendance.StatusHalfDay), second.Status)
	require.NotNil(t, second.ClockOutTime)
	assert.Equal(t, "13:00", *second.ClockOutTime, "half day defaults the clock-out")
	assert.InDelta(t, 4.0, second.WorkingHours.Total, 1e-9)
	assert.InDelta(t, 4.0, second.WorkingHours.Expected, 1e-9)
}

func TestSubmit_RejectsInsufficientHours(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
		Date:         "2025-03-10",
		Status:       string(attendance.StatusPresent),
		ClockInTime:  strPtr("09:00"),
		ClockOutTime: strPtr("12:00"),
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasField("working_hours"))
	assert.Empty(t, repo.records, "nothing persisted on validation failure")
}

func TestSubmit_RejectsMissingClockTimes(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
		Date:   "2025-03-10",
		Status: string(attendance.StatusPresent),
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasField("clock_in_time"))
	assert.True(t, verrs.HasField("clock_out_time"))
	assert.Empty(t, repo.records)
}

func TestSubmit_LocationPolicy(t *testing.T) {
	policy := config.AttendanceConfig{
		LocationRequired:  true,
		OfficeLatitude:    -6.2,
		OfficeLongitude:   106.8,
		OfficeRadiusMeter: 250,
	}
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	t.Run("missing coordinates", func(t *testing.T) {
		repo := &memoryAttendanceRepository{}
		svc := newTestService(repo, policy)

		_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
			Date:         "2025-03-10",
			Status:       string(attendance.StatusPresent),
			ClockInTime:  strPtr("09:00"),
			ClockOutTime: strPtr("18:00"),
			BreakMinutes: 60,
		})

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.HasField("location"))
	})

	t.Run("outside office radius", func(t *testing.T) {
		repo := &memoryAttendanceRepository{}
		svc := newTestService(repo, policy)

		lat, long := -6.9, 107.6 // Bandung, far outside a Jakarta geofence
		_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
			Date:         "2025-03-10",
			Status:       string(attendance.StatusPresent),
			ClockInTime:  strPtr("09:00"),
			ClockOutTime: strPtr("18:00"),
			BreakMinutes: 60,
			Latitude:     &lat,
			Longitude:    &long,
		})

		assert.True(t, errors.Is(err, attendance.ErrOutsideAllowedRadius))
		assert.Empty(t, repo.records)
	})

	t.Run("inside office radius", func(t *testing.T) {
		repo := &memoryAttendanceRepository{}
		svc := newTestService(repo, policy)

		lat, long := -6.2001, 106.8001
		_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
			Date:         "2025-03-10",
			Status:       string(attendance.StatusPresent),
			ClockInTime:  strPtr("09:00"),
			ClockOutTime: strPtr("18:00"),
			BreakMinutes: 60,
			Latitude:     &lat,
			Longitude:    &long,
		})

		require.NoError(t, err)
		assert.Len(t, repo.records, 1)
	})

	t.Run("statuses without clock times skip the location check", func(t *testing.T) {
		repo := &memoryAttendanceRepository{}
		svc := newTestService(repo, policy)

		_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
			Date:   "2025-03-10",
			Status: string(attendance.StatusOnLeave),
		})

		require.NoError(t, err)
		assert.Len(t, repo.records, 1)
	})

	t.Run("wfh is exempt from the geofence", func(t *testing.T) {
		repo := &memoryAttendanceRepository{}
		svc := newTestService(repo, policy)

		lat, long := -6.9, 107.6
		_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
			Date:         "2025-03-10",
			Status:       string(attendance.StatusWFH),
			ClockInTime:  strPtr("09:00"),
			ClockOutTime: strPtr("18:00"),
			BreakMinutes: 60,
			Latitude:     &lat,
			Longitude:    &long,
		})

		require.NoError(t, err)
		assert.Len(t, repo.records, 1)
	})
}

func TestSubmit_OnBehalfRequiresAdmin(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})

	req := attendance.SubmitAttendanceRequest{
		EmployeeID: "emp-2",
		Date:       "2025-03-10",
		Status:     string(attendance.StatusOnLeave),
	}

	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))
	_, err := svc.Submit(ctx, req)
	assert.True(t, errors.Is(err, attendance.ErrUnauthorized))
	assert.Empty(t, repo.records)

	ctx = authedContext(t, "admin-1", "co-1", string(employee.RoleAdmin))
	resp, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "emp-2", resp.EmployeeID)
}

func TestSubmit_RejectsUnknownStatus(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
		Date:   "2025-03-10",
		Status: "vacation",
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasField("status"))
}

func TestMarkAbsent_CreatesZeroHourRecord(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})

	resp, err := svc.MarkAbsent(context.Background(), "emp-1", "co-1", testDate())

	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusAbsent), resp.Status)
	assert.Nil(t, resp.ClockInTime)
	assert.Nil(t, resp.ClockOutTime)
	assert.Zero(t, resp.WorkingHours.Total)
	assert.Zero(t, resp.WorkingHours.Expected)
	assert.NotEmpty(t, resp.Remarks)
	assert.Len(t, repo.records, 1)
}

func TestMarkAbsent_SucceedsWithLocationRequired(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{
		LocationRequired:  true,
		OfficeLatitude:    -6.2,
		OfficeLongitude:   106.8,
		OfficeRadiusMeter: 250,
	})

	// The nightly job submits absences without coordinates; the location
	// policy must not block them
	resp, err := svc.MarkAbsent(context.Background(), "emp-1", "co-1", testDate())

	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusAbsent), resp.Status)
	assert.Len(t, repo.records, 1)
}

func TestGetDay_ReturnsRecordForDate(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	_, err := svc.Submit(ctx, attendance.SubmitAttendanceRequest{
		Date:         "2025-03-10",
		Status:       string(attendance.StatusPresent),
		ClockInTime:  strPtr("09:00"),
		ClockOutTime: strPtr("17:00"),
	})
	require.NoError(t, err)

	resp, err := svc.GetDay(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", resp.Date)
	assert.Equal(t, string(attendance.StatusPresent), resp.Status)

	_, err = svc.GetDay(ctx, "2025-03-11")
	assert.True(t, errors.Is(err, attendance.ErrRecordNotFound))
}

func TestGetDay_RejectsMalformedDate(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})
	ctx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))

	_, err := svc.GetDay(ctx, "March 10")

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasField("date"))
}

func TestGetMyAttendance_ScopesToCaller(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})

	ctxOne := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))
	ctxTwo := authedContext(t, "emp-2", "co-1", string(employee.RoleEmployee))

	for _, c := range []context.Context{ctxOne, ctxTwo} {
		_, err := svc.Submit(c, attendance.SubmitAttendanceRequest{
			Date:   "2025-03-10",
			Status: string(attendance.StatusOnLeave),
		})
		require.NoError(t, err)
	}

	other := "emp-2"
	resp, err := svc.GetMyAttendance(ctxOne, attendance.AttendanceFilter{EmployeeID: &other})
	require.NoError(t, err)
	require.Len(t, resp.Attendances, 1)
	assert.Equal(t, "emp-1", resp.Attendances[0].EmployeeID, "filter cannot widen scope past the caller")
	assert.Equal(t, int64(1), resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestGetAttendance_OwnershipCheck(t *testing.T) {
	repo := &memoryAttendanceRepository{}
	svc := newTestService(repo, config.AttendanceConfig{})

	ownerCtx := authedContext(t, "emp-1", "co-1", string(employee.RoleEmployee))
	created, err := svc.Submit(ownerCtx, attendance.SubmitAttendanceRequest{
		Date:   "2025-03-10",
		Status: string(attendance.StatusHoliday),
	})
	require.NoError(t, err)

	got, err := svc.GetAttendance(ownerCtx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	strangerCtx := authedContext(t, "emp-2", "co-1", string(employee.RoleEmployee))
	_, err = svc.GetAttendance(strangerCtx, created.ID)
	assert.True(t, errors.Is(err, attendance.ErrUnauthorized))

	adminCtx := authedContext(t, "admin-1", "co-1", string(employee.RoleAdmin))
	_, err = svc.GetAttendance(adminCtx, created.ID)
	assert.NoError(t, err)
}
