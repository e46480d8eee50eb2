/*
Package schedule is the core of the payroll scheduling engine.

PURPOSE:
  Pure, synchronous computation over read-only snapshots: timestamp
  normalization, weekly template construction, day classification,
  attendance interval classification, overtime clamping, and range
  validation with overlap guards.

KEY CONCEPTS IN THIS FILE (types.go):
  - MinuteRange: half-open clock window within a single local day
  - HolidayIndex: date -> holiday lookup supplied by the caller
  - DayContext: derived classification of a single date
  - Warning: data-quality anomaly codes (never errors)
  - LeaveBlock / VacationBlock: caller-supplied absence records

DESIGN PRINCIPLES:
  1. The engine owns no persisted state; every input is a snapshot.
  2. Results are freshly built values, never shared or mutated.
  3. Anomalies inside an otherwise-successful computation accumulate
     as warnings so attendance registration can always persist.
  4. Exact hour arithmetic uses decimal.Decimal, minutes use int.

SEE ALSO:
  - time.go: Instant and midnight splitting
  - template.go: weekly template builder
  - attendance.go: ordinary/extra classification
  - validate.go: range validators and overlap guards
*/
package schedule

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MINUTE RANGE - Half-open window [Start, End) in minutes of a local day
// =============================================================================

// MinuteRange is a half-open window within [0, 1440). Overnight shifts are
// represented as two ranges per day, never as one wrapping range.
type MinuteRange struct {
	Start int
	End   int
}

// Minutes returns the length of the range.
func (r MinuteRange) Minutes() int { return r.End - r.Start }

// Contains reports whether the minute falls inside the range.
func (r MinuteRange) Contains(minute int) bool { return minute >= r.Start && minute < r.End }

// OverlapMinutes returns the size of the intersection with [start, end).
func (r MinuteRange) OverlapMinutes(start, end int) int {
	lo := max(r.Start, start)
	hi := min(r.End, end)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// rangeMinutes sums the lengths of a set of ranges.
func rangeMinutes(ranges []MinuteRange) int {
	total := 0
	for _, r := range ranges {
		total += r.Minutes()
	}
	return total
}

// coveredMinutes sums the intersection of [start, end) with every range.
func coveredMinutes(ranges []MinuteRange, start, end int) int {
	total := 0
	for _, r := range ranges {
		total += r.OverlapMinutes(start, end)
	}
	return total
}

// covers reports whether [start, end) is covered minute-for-minute by the
// ranges. Mere overlap is not enough; every minute must fall inside a range.
func covers(ranges []MinuteRange, start, end int) bool {
	if end <= start {
		return true
	}
	return coveredMinutes(ranges, start, end) >= end-start
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayInfo describes a single holiday.
type HolidayInfo struct {
	Name      string
	Mandatory bool
}

// HolidayIndex maps YYYY-MM-DD dates to holiday info for a bounded range.
// Supplied per call by the persistence layer.
type HolidayIndex map[string]HolidayInfo

// Lookup returns the holiday for a date, if any.
func (hi HolidayIndex) Lookup(date string) (HolidayInfo, bool) {
	info, ok := hi[date]
	return info, ok
}

// =============================================================================
// DAY CONTEXT - Derived classification of a single date
// =============================================================================

// DayContext classifies one date against a template and a holiday index.
type DayContext struct {
	Date         string
	WeekdayIndex int // 0=Monday .. 6=Sunday
	IsHoliday    bool
	IsRestDay    bool
	IsWorkday    bool
	Holiday      *HolidayInfo
}

// =============================================================================
// WARNINGS - Data-quality anomalies, accumulated, never thrown
// =============================================================================

// Warning is a machine-readable anomaly code attached to a best-effort result.
type Warning string

const (
	WarnExitNotAfterEntry       Warning = "EXIT_NOT_AFTER_ENTRY"
	WarnBreakExceedsWorked      Warning = "BREAK_EXCEEDS_WORKED"
	WarnNonWorkdayChargedExtra  Warning = "NON_WORKDAY_CHARGED_AS_EXTRA"
	WarnLateDepartureExtra      Warning = "LATE_DEPARTURE_EXTRA"
	WarnExtraNotCounted         Warning = "EXTRA_NOT_COUNTED_UNAPPROVED"
	WarnExtraPartiallyApproved  Warning = "EXTRA_PARTIALLY_APPROVED"
)

// =============================================================================
// ATTENDANCE CLASSIFICATION RESULT
// =============================================================================

// AttendanceClassification is the outcome of splitting a punch pair into
// ordinary and extra time. Invariant: Ordinary + Extra == Worked after break
// deduction, all three >= 0.
type AttendanceClassification struct {
	WorkedMinutes   int
	OrdinaryMinutes int
	ExtraMinutes    int
	OrdinaryHours   decimal.Decimal
	ExtraHours      decimal.Decimal
	Warnings        []Warning
}

// =============================================================================
// ABSENCE BLOCKS - Caller-supplied records checked by overlap guards
// =============================================================================

// Block statuses under active consideration. Only these block overlap;
// rejected or canceled records do not.
const (
	StatusRequested = "requested"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCanceled  = "canceled"
)

// BlockingStatuses is the default active-consideration status set.
var BlockingStatuses = map[string]bool{
	StatusRequested: true,
	StatusApproved:  true,
}

// VacationBlock is a date-only absence record.
type VacationBlock struct {
	ID        string
	StartDate string // YYYY-MM-DD
	EndDate   string // inclusive
	StatusID  string
}

// LeaveBlock is a datetime absence record (may span a fraction of a day).
type LeaveBlock struct {
	ID       string
	Start    Instant
	End      Instant
	StatusID string
}

// minutesToHours converts minutes to hours rounded half-up to 2 decimals.
func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}
