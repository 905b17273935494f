package attendance

// Status is the daily attendance outcome selected by the employee. The set is
// closed; every status carries a fixed policy.
type Status string

const (
	StatusPresent   Status = "present"
	StatusHalfDay   Status = "half_day"
	StatusAbsent    Status = "absent"
	StatusLate      Status = "late"
	StatusEarlyExit Status = "early_exit"
	StatusWFH       Status = "wfh"
	StatusOnLeave   Status = "on_leave"
	StatusHoliday   Status = "holiday"
)

// StandardWorkDayHours is the baseline above which overtime accrues.
const StandardWorkDayHours = 8.0

// HalfDayDefaultClockOut is applied when half day is selected without an
// explicit clock-out. Half days end at 1 PM.
const HalfDayDefaultClockOut = "13:00"

// StatusPolicy is the fixed contract a status carries: the minimum working
// hours it demands and whether clock times must be recorded before the day
// can be considered complete.
type StatusPolicy struct {
	MinimumHours       float64
	RequiresClockTimes bool
}

var statusPolicies = map[Status]StatusPolicy{
	StatusPresent:   {MinimumHours: 8, RequiresClockTimes: true},
	StatusHalfDay:   {MinimumHours: 4, RequiresClockTimes: true},
	StatusAbsent:    {MinimumHours: 0, RequiresClockTimes: false},
	StatusLate:      {MinimumHours: 6, RequiresClockTimes: true},
	StatusEarlyExit: {MinimumHours: 6, RequiresClockTimes: true},
	StatusWFH:       {MinimumHours: 8, RequiresClockTimes: true},
	StatusOnLeave:   {MinimumHours: 0, RequiresClockTimes: false},
	StatusHoliday:   {MinimumHours: 0, RequiresClockTimes: false},
}

// Policy returns the policy tuple for s. The second return value is false for
// a status outside the closed set.
func (s Status) Policy() (StatusPolicy, bool) {
	policy, ok := statusPolicies[s]
	return policy, ok
}

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	_, ok := statusPolicies[s]
	return ok
}

// StatusValues lists all valid status strings, for validation messages.
func StatusValues() []string {
	return []string{
		string(StatusPresent),
		string(StatusHalfDay),
		string(StatusAbsent),
		string(StatusLate),
		string(StatusEarlyExit),
		string(StatusWFH),
		string(StatusOnLeave),
		string(StatusHoliday),
	}
}
