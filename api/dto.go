/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's internal types from the external contract: decimals travel
  as strings, instants as local wall-clock strings in the employee's zone.

NAMING CONVENTION:
  - *Request: request body types from clients
  - *DTO: response types returned to clients

VALIDATION:
  Validation happens in the engine, not in DTOs. DTOs are pure carriers.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"github.com/planilla/schedule-engine/incapacity"
	"github.com/planilla/schedule-engine/schedule"
	"github.com/planilla/schedule-engine/timeline"
)

// =============================================================================
// EMPLOYEES AND SCHEDULES
// =============================================================================

// WeeklyShiftDTO mirrors the raw weekly-schedule fields.
type WeeklyShiftDTO struct {
	StartClock      string `json:"start_clock"`
	EndClock        string `json:"end_clock"`
	WorkDays        string `json:"work_days"`
	RestDays        string `json:"rest_days"`
	BreakMinutes    int    `json:"break_minutes"`
	MaxDailyMinutes int    `json:"max_daily_minutes,omitempty"`
	RealBound       string `json:"real_bound,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
}

func (d WeeklyShiftDTO) toShift() schedule.WeeklyShift {
	return schedule.WeeklyShift{
		StartClock:      d.StartClock,
		EndClock:        d.EndClock,
		WorkDays:        d.WorkDays,
		RestDays:        d.RestDays,
		BreakMinutes:    d.BreakMinutes,
		MaxDailyMinutes: d.MaxDailyMinutes,
		RealBound:       d.RealBound,
		Timezone:        d.Timezone,
	}
}

// CreateEmployeeRequest registers an employee with their weekly schedule.
type CreateEmployeeRequest struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Schedule WeeklyShiftDTO `json:"schedule"`
}

// TemplatePreviewDTO shows the derived windows for a shift definition.
type TemplatePreviewDTO struct {
	Timezone  string                  `json:"timezone"`
	Overnight bool                    `json:"overnight"`
	RestDays  []int                   `json:"rest_days"`
	Virtual   map[int][]MinuteRangeDTO `json:"virtual_windows"`
}

// MinuteRangeDTO is a half-open minute window.
type MinuteRangeDTO struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// RegisterAttendanceRequest classifies a punch pair and persists the
// resulting aggregate for the punch date.
type RegisterAttendanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Entry      string `json:"entry"`
	Exit       string `json:"exit"`
}

// AttendanceDTO is the classification outcome after overtime clamping.
type AttendanceDTO struct {
	Date                 string   `json:"date"`
	WorkedMinutes        int      `json:"worked_minutes"`
	OrdinaryMinutes      int      `json:"ordinary_minutes"`
	ExtraMinutes         int      `json:"extra_minutes"`
	OrdinaryHours        string   `json:"ordinary_hours"`
	ExtraHours           string   `json:"extra_hours"`
	ApprovedExtraHours   string   `json:"approved_extra_hours"`
	UnapprovedExtraHours string   `json:"unapproved_extra_hours"`
	Warnings             []string `json:"warnings"`
}

// ApproveOvertimeRequest sets the pre-approved extra hours for a date.
type ApproveOvertimeRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Hours      string `json:"hours"`
}

// =============================================================================
// VACATIONS AND LEAVES
// =============================================================================

// VacationRequest validates (and optionally registers) a date-only range.
type VacationRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Cutoff     string `json:"cutoff,omitempty"`
}

// LeaveRequest validates (and optionally registers) a datetime range.
type LeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Cutoff     string `json:"cutoff,omitempty"`
}

// ViolationDTO is one skipped or rejected day.
type ViolationDTO struct {
	Date     string `json:"date"`
	Reason   string `json:"reason"`
	Blocking bool   `json:"blocking"`
}

// RangeValidationDTO is the value result of a validator.
type RangeValidationDTO struct {
	Allowed        bool           `json:"allowed"`
	Violations     []ViolationDTO `json:"violations"`
	EffectiveDates []string       `json:"effective_dates"`
	TotalHours     string         `json:"total_hours"`
	TotalDays      int            `json:"total_days"`
	BlockID        string         `json:"block_id,omitempty"`
}

func toValidationDTO(v schedule.RangeValidation) RangeValidationDTO {
	dto := RangeValidationDTO{
		Allowed:        v.Allowed,
		EffectiveDates: v.EffectiveDates,
		TotalHours:     v.TotalHours.String(),
		TotalDays:      v.TotalDays,
	}
	for _, violation := range v.Violations {
		dto.Violations = append(dto.Violations, ViolationDTO{
			Date:     violation.Date,
			Reason:   string(violation.Reason),
			Blocking: violation.Blocking,
		})
	}
	return dto
}

// =============================================================================
// INCAPACITIES
// =============================================================================

// RegisterIncapacityRequest registers a new incapacity range.
type RegisterIncapacityRequest struct {
	EmployeeID string `json:"employee_id"`
	TypeName   string `json:"type_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// ExtendIncapacityRequest rolls a group's end date forward.
type ExtendIncapacityRequest struct {
	EmployeeID string `json:"employee_id"`
	NewEndDate string `json:"new_end_date"`
}

// DayAssignmentDTO is a per-day percentage snapshot.
type DayAssignmentDTO struct {
	Date        string `json:"date"`
	DayNumber   int    `json:"day_number"`
	EmployerPct string `json:"employer_pct"`
	ProviderPct string `json:"provider_pct"`
}

func toAssignmentDTOs(assignments []incapacity.DayAssignment) []DayAssignmentDTO {
	dtos := make([]DayAssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = DayAssignmentDTO{
			Date:        a.Date,
			DayNumber:   a.DayNumber,
			EmployerPct: a.Share.Employer.String(),
			ProviderPct: a.Share.Provider.String(),
		}
	}
	return dtos
}

// IncapacityDTO is the result of a registration or extension.
type IncapacityDTO struct {
	GroupID     string             `json:"group_id"`
	TypeName    string             `json:"type_name"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Assignments []DayAssignmentDTO `json:"assignments"`
}

// EpisodeDTO is a derived episode view.
type EpisodeDTO struct {
	EpisodeID string `json:"episode_id"`
	TypeName  string `json:"type_name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Members   int    `json:"members"`
}

// =============================================================================
// TIMELINE
// =============================================================================

// TimelineDayDTO is one resolved day of the payroll timeline.
type TimelineDayDTO struct {
	Date         string `json:"date"`
	WeekdayIndex int    `json:"weekday_index"`
	IsHoliday    bool   `json:"is_holiday"`
	IsRestDay    bool   `json:"is_rest_day"`
	IsWorkday    bool   `json:"is_workday"`
	DominantType string `json:"dominant_type"`
	Payable      bool   `json:"payable"`

	EmployerPct   string `json:"employer_pct,omitempty"`
	ProviderPct   string `json:"provider_pct,omitempty"`
	DayNumber     int    `json:"incapacity_day_number,omitempty"`
	OrdinaryHours string `json:"ordinary_hours,omitempty"`
	ExtraHours    string `json:"extra_hours,omitempty"`
	LeaveMinutes  int    `json:"leave_minutes,omitempty"`
}

func toTimelineDTOs(days []timeline.TimelineDay) []TimelineDayDTO {
	dtos := make([]TimelineDayDTO, len(days))
	for i, day := range days {
		dto := TimelineDayDTO{
			Date:         day.Date,
			WeekdayIndex: day.WeekdayIndex,
			IsHoliday:    day.IsHoliday,
			IsRestDay:    day.IsRestDay,
			IsWorkday:    day.IsWorkday,
			DominantType: string(day.DominantType),
			Payable:      day.Payable,
			DayNumber:    day.Hints.IncapacityDayNumber,
			LeaveMinutes: day.Hints.LeaveMinutes,
		}
		switch day.DominantType {
		case timeline.EventIncapacity:
			dto.EmployerPct = day.Hints.EmployerPct.String()
			dto.ProviderPct = day.Hints.ProviderPct.String()
		case timeline.EventAttendance:
			dto.OrdinaryHours = day.Hints.OrdinaryHours.String()
			dto.ExtraHours = day.Hints.ExtraHours.String()
		}
		dtos[i] = dto
	}
	return dtos
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayRequest creates or replaces a holiday.
type HolidayRequest struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory"`
}

// ErrorDTO is the uniform error body.
type ErrorDTO struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
