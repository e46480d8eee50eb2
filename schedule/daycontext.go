package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY CONTEXT RESOLVER
// =============================================================================

// ResolveDay classifies a date against a template and a holiday index.
// The weekday is computed at local noon so DST transitions cannot shift the
// date. A day is a workday iff it has virtual windows and is not a rest day.
// Resolving the same inputs twice yields an identical DayContext.
func ResolveDay(date string, tpl *ScheduleTemplate, holidays HolidayIndex) (DayContext, error) {
	loc := tpl.Timezone
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return DayContext{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
	weekday := weekdayIndex(noon)

	ctx := DayContext{
		Date:         date,
		WeekdayIndex: weekday,
		IsRestDay:    tpl.IsRestDay(weekday),
	}
	if info, ok := holidays.Lookup(date); ok {
		ctx.IsHoliday = true
		ctx.Holiday = &info
	}
	ctx.IsWorkday = len(tpl.VirtualFor(weekday)) > 0 && !ctx.IsRestDay
	return ctx, nil
}

// WalkDays resolves every date in [from, to] (inclusive, YYYY-MM-DD) in order.
// Both range validation and timeline building are bounded day-by-day walks
// over this.
func WalkDays(from, to string, tpl *ScheduleTemplate, holidays HolidayIndex, fn func(DayContext) error) error {
	start, err := NormalizeDate(from, tpl.Timezone)
	if err != nil {
		return err
	}
	end, err := NormalizeDate(to, tpl.Timezone)
	if err != nil {
		return err
	}
	if end.Time.Before(start.Time) {
		return fmt.Errorf("%w: %s after %s", ErrInvalidInterval, from, to)
	}
	for cur := start; !cur.Time.After(end.Time); cur = cur.AddDays(1) {
		ctx, err := ResolveDay(cur.DateString(), tpl, holidays)
		if err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DaysBetween returns the whole-day difference to - from for YYYY-MM-DD dates.
func DaysBetween(from, to string) (int, error) {
	a, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, from)
	}
	b, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, to)
	}
	return int(b.Sub(a).Hours() / 24), nil
}

// AddDaysDate shifts a YYYY-MM-DD date by n whole days.
func AddDaysDate(date string, n int) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t.AddDate(0, 0, n).Format(dateLayout), nil
}
