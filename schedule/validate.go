/*
validate.go - Range validators and overlap guards

PURPOSE:
  Validates requested leave/vacation ranges against the weekly template and
  holiday index, and guards new registrations against existing records.

TWO DISTINCT SHAPES:
  Validators RETURN a RangeValidation value. Skipped days (rest day, holiday,
  past date) are recorded as non-blocking violations; the range can still be
  registered with fewer chargeable days.

  Guards THROW typed blocked errors (VacationOverlapBlockedError,
  LeaveOverlapBlockedError). An overlap always vetoes the write. Only
  records in an active-consideration status block; an optional exclude id
  supports edit-in-place checks.

DATE VS DATETIME:
  Date-only ranges walk day by day; a day is chargeable iff it is a workday
  and not a holiday. Datetime ranges additionally require the time-of-day
  portion to be covered minute-for-minute by the virtual windows: the
  same-day sub-interval entirely, the start day from start-minute to 1440,
  intermediate days fully, the end day from 0 to end-minute.

SEE ALSO:
  - errors.go: blocked error types
  - incapacity package: the incapacity-side overlap guard
*/
package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// SkipReason explains why a day in a requested range is not chargeable, or
// why a datetime portion is rejected.
type SkipReason string

const (
	ReasonRestDay             SkipReason = "REST_DAY"
	ReasonHoliday             SkipReason = "HOLIDAY"
	ReasonNonWorkday          SkipReason = "NON_WORKDAY"
	ReasonPastDate            SkipReason = "PAST_DATE"
	ReasonOutsideWindow       SkipReason = "OUTSIDE_VIRTUAL_WINDOW"
	ReasonOutsideWindowStart  SkipReason = "OUTSIDE_VIRTUAL_WINDOW_START"
	ReasonOutsideWindowEnd    SkipReason = "OUTSIDE_VIRTUAL_WINDOW_END"
)

// Violation records one skipped or rejected day. Blocking violations make
// the whole range invalid; skips only reduce the chargeable day count.
type Violation struct {
	Date     string     `json:"date"`
	Reason   SkipReason `json:"reason"`
	Blocking bool       `json:"blocking"`
}

// RangeValidation is the value result of a validator, never thrown.
type RangeValidation struct {
	Allowed        bool
	Violations     []Violation
	EffectiveDates []string
	TotalHours     decimal.Decimal
	TotalDays      int
}

// ValidateOptions tunes a validation run.
type ValidateOptions struct {
	// Cutoff marks days before it as PAST_DATE. Empty disables the check.
	Cutoff string
}

// =============================================================================
// DATE-ONLY RANGE VALIDATION (vacations)
// =============================================================================

// ValidateDateRange walks [from, to] and determines which days are
// chargeable. Fails only on malformed input.
func ValidateDateRange(from, to string, tpl *ScheduleTemplate, holidays HolidayIndex, opts ValidateOptions) (RangeValidation, error) {
	result := RangeValidation{TotalHours: decimal.Zero}

	err := WalkDays(from, to, tpl, holidays, func(ctx DayContext) error {
		if reason, skipped := skipReasonFor(ctx, opts); skipped {
			result.Violations = append(result.Violations, Violation{Date: ctx.Date, Reason: reason})
			return nil
		}
		result.EffectiveDates = append(result.EffectiveDates, ctx.Date)
		result.TotalHours = result.TotalHours.Add(nominalDayHours(tpl, ctx.WeekdayIndex))
		return nil
	})
	if err != nil {
		return RangeValidation{}, err
	}

	result.TotalDays = len(result.EffectiveDates)
	result.Allowed = result.TotalDays > 0
	return result, nil
}

// =============================================================================
// DATETIME RANGE VALIDATION (leaves)
// =============================================================================

// ValidateDateTimeRange validates a sub-day or multi-day datetime range.
// On top of the day-level checks, the time-of-day portion of each effective
// day must fall minute-for-minute inside the virtual windows.
func ValidateDateTimeRange(start, end Instant, tpl *ScheduleTemplate, holidays HolidayIndex, opts ValidateOptions) (RangeValidation, error) {
	if !start.Before(end) {
		return RangeValidation{}, fmt.Errorf("%w: leave range", ErrInvalidInterval)
	}

	startDate := start.DateString()
	endDate := end.DateString()
	startMinute := start.MinuteOfDay()
	endMinute := end.MinuteOfDay()
	if endMinute == 0 {
		// An end at exact midnight belongs to the previous day as minute 1440.
		var err error
		endDate, err = AddDaysDate(endDate, -1)
		if err != nil {
			return RangeValidation{}, err
		}
		endMinute = 1440
	}

	result := RangeValidation{TotalHours: decimal.Zero}
	blocked := false

	err := WalkDays(startDate, endDate, tpl, holidays, func(ctx DayContext) error {
		if reason, skipped := skipReasonFor(ctx, opts); skipped {
			result.Violations = append(result.Violations, Violation{Date: ctx.Date, Reason: reason})
			return nil
		}

		lo, hi := 0, 1440
		reason := ReasonOutsideWindow
		switch {
		case ctx.Date == startDate && ctx.Date == endDate:
			lo, hi = startMinute, endMinute
		case ctx.Date == startDate:
			lo, reason = startMinute, ReasonOutsideWindowStart
		case ctx.Date == endDate:
			hi, reason = endMinute, ReasonOutsideWindowEnd
		}

		windows := tpl.VirtualFor(ctx.WeekdayIndex)
		if !covers(windows, lo, hi) {
			blocked = true
			result.Violations = append(result.Violations, Violation{Date: ctx.Date, Reason: reason, Blocking: true})
			return nil
		}

		result.EffectiveDates = append(result.EffectiveDates, ctx.Date)
		result.TotalHours = result.TotalHours.Add(minutesToHours(hi - lo))
		return nil
	})
	if err != nil {
		return RangeValidation{}, err
	}

	result.TotalDays = len(result.EffectiveDates)
	result.Allowed = !blocked && result.TotalDays > 0
	return result, nil
}

// skipReasonFor applies the day-level checks shared by both validators.
func skipReasonFor(ctx DayContext, opts ValidateOptions) (SkipReason, bool) {
	switch {
	case opts.Cutoff != "" && ctx.Date < opts.Cutoff:
		return ReasonPastDate, true
	case ctx.IsRestDay:
		return ReasonRestDay, true
	case ctx.IsHoliday:
		return ReasonHoliday, true
	case !ctx.IsWorkday:
		return ReasonNonWorkday, true
	}
	return "", false
}

// nominalDayHours is the chargeable value of one workday: the virtual
// minutes less the daily break, floored at zero.
func nominalDayHours(tpl *ScheduleTemplate, weekday int) decimal.Decimal {
	minutes := rangeMinutes(tpl.VirtualFor(weekday)) - tpl.BreakMinutes
	if minutes < 0 {
		minutes = 0
	}
	return minutesToHours(minutes)
}

// =============================================================================
// OVERLAP GUARDS - Veto writes against existing records
// =============================================================================

// GuardVacationOverlap rejects a date range intersecting an existing block
// in a blocking status. excludeID skips the record being edited.
func GuardVacationOverlap(employeeID, from, to string, existing []VacationBlock, blocking map[string]bool, excludeID string) error {
	if blocking == nil {
		blocking = BlockingStatuses
	}
	for _, block := range existing {
		if block.ID == excludeID || !blocking[block.StatusID] {
			continue
		}
		if from <= block.EndDate && block.StartDate <= to {
			return &VacationOverlapBlockedError{
				EmployeeID: employeeID,
				BlockID:    block.ID,
				StatusID:   block.StatusID,
			}
		}
	}
	return nil
}

// GuardLeaveOverlap rejects a datetime range intersecting an existing leave
// block in a blocking status.
func GuardLeaveOverlap(employeeID string, start, end Instant, existing []LeaveBlock, blocking map[string]bool, excludeID string) error {
	if blocking == nil {
		blocking = BlockingStatuses
	}
	for _, block := range existing {
		if block.ID == excludeID || !blocking[block.StatusID] {
			continue
		}
		if start.Before(block.End) && block.Start.Before(end) {
			return &LeaveOverlapBlockedError{
				EmployeeID: employeeID,
				BlockID:    block.ID,
				StatusID:   block.StatusID,
			}
		}
	}
	return nil
}
