/*
Package timeline composes the per-day payroll timeline.

PURPOSE:
  For every date in a requested range, gathers the four presence signals
  (incapacity episode, vacation block, leave minutes, attendance minutes)
  and resolves exactly one dominant event type per day under a fixed total
  order, attaching the payroll hints downstream money math consumes.

PRECEDENCE:
  Incapacity > Vacation > Leave > Attendance > None. First present wins.
  An incapacity must override an overlapping vacation or leave: a worker
  cannot be simultaneously incapacitated and on vacation. The resolver is
  a pure function of the four booleans; no further special-casing.

PAYABILITY:
  - incapacity day: payable iff not a mandatory holiday and the employer
    percentage for that episode day is positive
  - vacation/leave day: payable iff workday and not a holiday
  - attendance day: payable iff workday

SEE ALSO:
  - schedule package: day context, blocks, attendance types
  - incapacity package: episodes and percentage ramps
*/
package timeline

import (
	"github.com/shopspring/decimal"

	"github.com/planilla/schedule-engine/incapacity"
	"github.com/planilla/schedule-engine/schedule"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType is the single dominant category assigned to a day.
type EventType string

const (
	EventNone       EventType = "none"
	EventAttendance EventType = "attendance"
	EventLeave      EventType = "leave"
	EventVacation   EventType = "vacation"
	EventIncapacity EventType = "incapacity"
)

// ResolveDominant applies the fixed precedence order to the four presence
// booleans. Pure; both the builder and its tests call it directly.
func ResolveDominant(hasIncapacity, hasVacation, hasLeave, hasAttendance bool) EventType {
	switch {
	case hasIncapacity:
		return EventIncapacity
	case hasVacation:
		return EventVacation
	case hasLeave:
		return EventLeave
	case hasAttendance:
		return EventAttendance
	}
	return EventNone
}

// =============================================================================
// SNAPSHOT - The read-only per-call input bundle
// =============================================================================

// AttendanceAggregate is the per-date worked summary supplied by the
// persistence layer.
type AttendanceAggregate struct {
	WorkedMinutes int
	OrdinaryHours decimal.Decimal
	ExtraHours    decimal.Decimal
	NightHours    decimal.Decimal
}

// Snapshot is a point-in-time-consistent view of one employee's records.
// The builder never fetches anything; callers read this under their own
// transaction and locking discipline.
type Snapshot struct {
	EmployeeID string
	Template   *schedule.ScheduleTemplate
	Holidays   schedule.HolidayIndex

	Incapacities []incapacity.Record
	Vacations    []schedule.VacationBlock
	Leaves       []schedule.LeaveBlock
	Attendance   map[string]AttendanceAggregate

	// BlockingStatuses overrides schedule.BlockingStatuses when non-nil.
	BlockingStatuses map[string]bool
}

func (s Snapshot) blocking() map[string]bool {
	if s.BlockingStatuses != nil {
		return s.BlockingStatuses
	}
	return schedule.BlockingStatuses
}

// =============================================================================
// TIMELINE DAY
// =============================================================================

// PayrollHints carries the numbers downstream payroll math needs for the
// day's dominant event.
type PayrollHints struct {
	EmployerPct         decimal.Decimal
	ProviderPct         decimal.Decimal
	IncapacityDayNumber int
	IncapacityType      incapacity.Type
	OrdinaryHours       decimal.Decimal
	ExtraHours          decimal.Decimal
	NightHours          decimal.Decimal
	LeaveMinutes        int
}

// TimelineDay is one resolved day. Exactly one dominant type per day.
type TimelineDay struct {
	Date         string
	WeekdayIndex int
	IsHoliday    bool
	IsRestDay    bool
	IsWorkday    bool
	DominantType EventType
	Payable      bool
	Hints        PayrollHints
}

// =============================================================================
// BUILDER
// =============================================================================

// Build resolves every day in [from, to] against the snapshot. The walk is
// deterministic and bounded; callers bound the requested range length.
func Build(snap Snapshot, from, to string) ([]TimelineDay, error) {
	episodes := incapacity.BuildEpisodes(snap.Incapacities)

	leaveMinutes, err := leaveMinutesByDate(snap)
	if err != nil {
		return nil, err
	}

	var days []TimelineDay
	err = schedule.WalkDays(from, to, snap.Template, snap.Holidays, func(ctx schedule.DayContext) error {
		day, err := resolveDay(ctx, snap, episodes, leaveMinutes)
		if err != nil {
			return err
		}
		days = append(days, day)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return days, nil
}

func resolveDay(ctx schedule.DayContext, snap Snapshot, episodes []incapacity.Episode, leaveMinutes map[string]int) (TimelineDay, error) {
	day := TimelineDay{
		Date:         ctx.Date,
		WeekdayIndex: ctx.WeekdayIndex,
		IsHoliday:    ctx.IsHoliday,
		IsRestDay:    ctx.IsRestDay,
		IsWorkday:    ctx.IsWorkday,
	}

	episode, hasIncapacity := incapacity.EpisodeAt(episodes, ctx.Date)
	hasVacation := vacationCovers(snap, ctx.Date)
	hasLeave := leaveMinutes[ctx.Date] > 0
	attendance, hasAttendance := snap.Attendance[ctx.Date]
	hasAttendance = hasAttendance && attendance.WorkedMinutes > 0

	day.DominantType = ResolveDominant(hasIncapacity, hasVacation, hasLeave, hasAttendance)

	switch day.DominantType {
	case EventIncapacity:
		dayNumber, err := episode.DayNumber(ctx.Date)
		if err != nil {
			return TimelineDay{}, err
		}
		share := incapacity.ShareFor(episode.TypeName, dayNumber, ctx.IsRestDay)
		day.Hints.EmployerPct = share.Employer
		day.Hints.ProviderPct = share.Provider
		day.Hints.IncapacityDayNumber = dayNumber
		day.Hints.IncapacityType = episode.TypeName
		mandatory := ctx.Holiday != nil && ctx.Holiday.Mandatory
		day.Payable = !mandatory && share.Employer.IsPositive()

	case EventVacation:
		day.Payable = ctx.IsWorkday && !ctx.IsHoliday

	case EventLeave:
		day.Hints.LeaveMinutes = leaveMinutes[ctx.Date]
		day.Payable = ctx.IsWorkday && !ctx.IsHoliday

	case EventAttendance:
		day.Hints.OrdinaryHours = attendance.OrdinaryHours
		day.Hints.ExtraHours = attendance.ExtraHours
		day.Hints.NightHours = attendance.NightHours
		day.Payable = ctx.IsWorkday
	}
	return day, nil
}

func vacationCovers(snap Snapshot, date string) bool {
	blocking := snap.blocking()
	for _, block := range snap.Vacations {
		if blocking[block.StatusID] && block.StartDate <= date && date <= block.EndDate {
			return true
		}
	}
	return false
}

// leaveMinutesByDate splits every active leave block by midnight and sums
// the minutes charged to each date.
func leaveMinutesByDate(snap Snapshot) (map[string]int, error) {
	blocking := snap.blocking()
	minutes := make(map[string]int)
	for _, block := range snap.Leaves {
		if !blocking[block.StatusID] {
			continue
		}
		segments, err := schedule.SplitByMidnight(block.Start, block.End)
		if err != nil {
			return nil, err
		}
		for _, seg := range segments {
			minutes[seg.Date] += seg.Minutes()
		}
	}
	return minutes, nil
}
