package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/validator"
)

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestSubmitAttendanceRequest_Validate(t *testing.T) {
	cases := []struct {
		name       string
		req        SubmitAttendanceRequest
		wantFields []string
	}{
		{
			name: "valid full submission",
			req: SubmitAttendanceRequest{
				Date:         "2025-03-10",
				Status:       "present",
				ClockInTime:  strPtr("09:00"),
				ClockOutTime: strPtr("17:00"),
				BreakMinutes: 60,
				Latitude:     floatPtr(-6.2),
				Longitude:    floatPtr(106.8),
			},
		},
		{
			name: "valid minimal submission",
			req:  SubmitAttendanceRequest{Status: "on_leave"},
		},
		{
			name:       "missing status",
			req:        SubmitAttendanceRequest{Date: "2025-03-10"},
			wantFields: []string{"status"},
		},
		{
			name:       "unknown status",
			req:        SubmitAttendanceRequest{Status: "vacation"},
			wantFields: []string{"status"},
		},
		{
			name:       "bad date format",
			req:        SubmitAttendanceRequest{Status: "present", Date: "10-03-2025"},
			wantFields: []string{"date"},
		},
		{
			name: "bad clock times",
			req: SubmitAttendanceRequest{
				Status:       "present",
				ClockInTime:  strPtr("9am"),
				ClockOutTime: strPtr("25:00"),
			},
			wantFields: []string{"clock_in_time", "clock_out_time"},
		},
		{
			name:       "negative break",
			req:        SubmitAttendanceRequest{Status: "present", BreakMinutes: -15},
			wantFields: []string{"break_duration_minutes"},
		},
		{
			name: "coordinates out of range",
			req: SubmitAttendanceRequest{
				Status:    "present",
				Latitude:  floatPtr(95),
				Longitude: floatPtr(-200),
			},
			wantFields: []string{"latitude", "longitude"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.req.Validate()
			if len(c.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			for _, field := range c.wantFields {
				assert.True(t, verrs.HasField(field), "expected violation on %s", field)
			}
			assert.Len(t, verrs, len(c.wantFields))
		})
	}
}

func TestAttendanceFilter_Validate_Defaults(t *testing.T) {
	filter := AttendanceFilter{}

	require.NoError(t, filter.Validate())
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 20, filter.Limit)
	assert.Equal(t, "date", filter.SortBy)
	assert.Equal(t, "desc", filter.SortOrder)
}

func TestAttendanceFilter_Validate_Rejections(t *testing.T) {
	cases := []struct {
		name      string
		filter    AttendanceFilter
		wantField string
	}{
		{"negative page", AttendanceFilter{Page: -1}, "page"},
		{"limit over cap", AttendanceFilter{Limit: 500}, "limit"},
		{"unknown status", AttendanceFilter{Status: strPtr("vacation")}, "status"},
		{"bad date", AttendanceFilter{Date: strPtr("March 10")}, "date"},
		{"bad start date", AttendanceFilter{StartDate: strPtr("2025/03/01")}, "start_date"},
		{"bad end date", AttendanceFilter{EndDate: strPtr("2025/03/31")}, "end_date"},
		{"unknown sort field", AttendanceFilter{SortBy: "employee_name"}, "sort_by"},
		{"unknown sort order", AttendanceFilter{SortOrder: "sideways"}, "sort_order"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.filter.Validate()
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.True(t, verrs.HasField(c.wantField))
		})
	}
}

func TestAttendanceFilter_Validate_AcceptsRange(t *testing.T) {
	filter := AttendanceFilter{
		EmployeeID: strPtr("emp-1"),
		StartDate:  strPtr("2025-03-01"),
		EndDate:    strPtr("2025-03-31"),
		Status:     strPtr("present"),
		Page:       2,
		Limit:      50,
		SortBy:     "clock_in_time",
		SortOrder:  "ASC",
	}

	require.NoError(t, filter.Validate())
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 50, filter.Limit)
}