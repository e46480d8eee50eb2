package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// WEEKLY SHIFT - Raw schedule fields as persisted
// =============================================================================

// WeeklyShift carries the raw weekly-schedule fields supplied by the
// persistence layer: clock strings, day letter sets, break minutes and
// optional bounds. BuildTemplate turns it into a ScheduleTemplate.
type WeeklyShift struct {
	StartClock      string // HH:mm or HH:mm:ss
	EndClock        string
	WorkDays        string // day letters, e.g. "L,M,X,J,V"
	RestDays        string // e.g. "S,D"
	BreakMinutes    int
	MaxDailyMinutes int    // 0 = unbounded
	RealBound       string // clock bound for accepted punches, "" = none
	Timezone        string // IANA name, "" = DefaultTimezone
}

// Day letters follow the Spanish weekday convention:
// L=lunes M=martes X=miércoles J=jueves V=viernes S=sábado D=domingo.
// "MI" is accepted as an alias for X.
var dayLetters = map[string]int{
	"L": 0, "M": 1, "X": 2, "MI": 2, "J": 3, "V": 4, "S": 5, "D": 6,
}

// ParseDaySet parses a comma-separated day letter set into weekday indices.
func ParseDaySet(set string) (map[int]bool, error) {
	days := make(map[int]bool)
	for _, tok := range strings.Split(set, ",") {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		idx, ok := dayLetters[tok]
		if !ok {
			return nil, fmt.Errorf("%w: unknown day letter %q", ErrInvalidTimeRange, tok)
		}
		days[idx] = true
	}
	return days, nil
}

// ParseClock parses HH:mm or HH:mm:ss into a minute of day. Seconds are
// accepted on input but truncated; the engine works at minute granularity.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: malformed clock %q", ErrInvalidTimeRange, clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed clock %q", ErrInvalidTimeRange, clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed clock %q", ErrInvalidTimeRange, clock)
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("%w: malformed clock %q", ErrInvalidTimeRange, clock)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: clock %q out of bounds", ErrInvalidTimeRange, clock)
	}
	return hour*60 + minute, nil
}

// =============================================================================
// SCHEDULE TEMPLATE - Per-weekday virtual and real windows
// =============================================================================

// ScheduleTemplate holds the derived per-weekday windows for one employee.
// Virtual windows are the nominal contractual work time used to classify
// ordinary vs extra minutes. Real windows bound which punches are accepted,
// independent of the nominal shift.
//
// Invariant: a weekday has non-empty virtual windows iff it is not a rest day.
type ScheduleTemplate struct {
	Timezone        *time.Location
	RestDays        map[int]bool
	BreakMinutes    int
	MaxDailyMinutes int
	Virtual         [7][]MinuteRange
	Real            [7][]MinuteRange

	overnight bool
	shiftEnd  int // end minute of the overnight early window, meaningful when overnight
}

// IsRestDay reports whether the weekday index is in the rest-day set.
func (t *ScheduleTemplate) IsRestDay(weekday int) bool { return t.RestDays[weekday] }

// VirtualFor returns the nominal windows for a weekday.
func (t *ScheduleTemplate) VirtualFor(weekday int) []MinuteRange { return t.Virtual[weekday] }

// RealFor returns the punch-acceptance windows for a weekday.
func (t *ScheduleTemplate) RealFor(weekday int) []MinuteRange { return t.Real[weekday] }

// IsOvernight reports whether the nominal shift crosses midnight.
func (t *ScheduleTemplate) IsOvernight() bool { return t.overnight }

// WindowOpenDate returns the date whose work window the instant belongs to.
// For an overnight shift, a time before the early-window close belongs to the
// window opened the previous day; everything else belongs to its own date.
func (t *ScheduleTemplate) WindowOpenDate(ts Instant) string {
	if t.overnight && ts.MinuteOfDay() < t.shiftEnd {
		return ts.AddDays(-1).DateString()
	}
	return ts.DateString()
}

// BuildTemplate converts a weekly shift definition into a ScheduleTemplate.
//
// If start < end, each labor weekday gets one range [start, end). If
// start >= end the shift is overnight and each labor weekday gets two ranges,
// [0, end) and [start, 1440). Rest-day membership always wins over work-day
// membership. Real windows default to the full day and are bounded uniformly
// by RealBound when present.
func BuildTemplate(shift WeeklyShift) (*ScheduleTemplate, error) {
	loc, err := LoadTimezone(shift.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeRange, err)
	}

	start, err := ParseClock(shift.StartClock)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(shift.EndClock)
	if err != nil {
		return nil, err
	}
	if shift.BreakMinutes < 0 {
		return nil, fmt.Errorf("%w: negative break minutes", ErrInvalidTimeRange)
	}
	if shift.MaxDailyMinutes < 0 || shift.MaxDailyMinutes > 1440 {
		return nil, fmt.Errorf("%w: max daily minutes out of bounds", ErrInvalidTimeRange)
	}

	workDays, err := ParseDaySet(shift.WorkDays)
	if err != nil {
		return nil, err
	}
	if len(workDays) == 0 {
		return nil, fmt.Errorf("%w: empty work-day set", ErrInvalidTimeRange)
	}
	restDays, err := ParseDaySet(shift.RestDays)
	if err != nil {
		return nil, err
	}

	realBound := 1440
	if shift.RealBound != "" {
		realBound, err = ParseClock(shift.RealBound)
		if err != nil {
			return nil, err
		}
		if realBound == 0 {
			return nil, fmt.Errorf("%w: zero-length real window", ErrInvalidTimeRange)
		}
	}

	tpl := &ScheduleTemplate{
		Timezone:        loc,
		RestDays:        restDays,
		BreakMinutes:    shift.BreakMinutes,
		MaxDailyMinutes: shift.MaxDailyMinutes,
		overnight:       start >= end,
		shiftEnd:        end,
	}

	for weekday := 0; weekday < 7; weekday++ {
		tpl.Real[weekday] = []MinuteRange{{Start: 0, End: realBound}}
		if restDays[weekday] || !workDays[weekday] {
			continue // rest wins; no virtual windows off the labor set
		}
		if start < end {
			tpl.Virtual[weekday] = []MinuteRange{{Start: start, End: end}}
			continue
		}
		// Overnight: early close plus late open, dropping a degenerate half.
		var ranges []MinuteRange
		if end > 0 {
			ranges = append(ranges, MinuteRange{Start: 0, End: end})
		}
		if start < 1440 {
			ranges = append(ranges, MinuteRange{Start: start, End: 1440})
		}
		tpl.Virtual[weekday] = ranges
	}
	return tpl, nil
}
