package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// INSTANT - Timezone-anchored point in time
// =============================================================================

// DefaultTimezone anchors weekday and minute computations when a schedule
// carries no explicit zone.
const DefaultTimezone = "America/Costa_Rica"

// Instant is a timestamp resolved in a concrete IANA timezone. All weekday
// and minute-of-day math happens in that zone.
type Instant struct {
	Time time.Time
	Loc  *time.Location
}

func (i Instant) local() time.Time {
	if i.Loc == nil {
		return i.Time
	}
	return i.Time.In(i.Loc)
}

// WeekdayIndex returns 0=Monday .. 6=Sunday in the anchored zone.
func (i Instant) WeekdayIndex() int { return weekdayIndex(i.local()) }

// MinuteOfDay returns the local minute within [0, 1440).
func (i Instant) MinuteOfDay() int {
	t := i.local()
	return t.Hour()*60 + t.Minute()
}

// DateString returns the local calendar date as YYYY-MM-DD.
func (i Instant) DateString() string { return i.local().Format(dateLayout) }

// Before reports whether i precedes other as absolute instants.
func (i Instant) Before(other Instant) bool { return i.Time.Before(other.Time) }

// AddDays shifts the instant by whole calendar days in its zone.
func (i Instant) AddDays(n int) Instant {
	return Instant{Time: i.local().AddDate(0, 0, n), Loc: i.Loc}
}

const dateLayout = "2006-01-02"

func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7 // time.Weekday has 0=Sunday
}

// LoadTimezone resolves an IANA zone name, falling back to the default when
// the name is empty.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidTimestamp, name)
	}
	return loc, nil
}

// =============================================================================
// NORMALIZE - Heterogeneous timestamp input -> Instant
// =============================================================================

// Layouts carrying an explicit UTC offset are parsed as absolute instants.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// Offset-less layouts are interpreted as local wall-clock in the target zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// Normalize resolves a heterogeneous timestamp input to an Instant anchored
// in loc. Accepted inputs: time.Time values, offset-bearing strings (absolute)
// and offset-less strings (wall-clock in loc). Anything else fails with
// ErrInvalidTimestamp.
func Normalize(input any, loc *time.Location) (Instant, error) {
	if loc == nil {
		var err error
		loc, err = LoadTimezone("")
		if err != nil {
			return Instant{}, err
		}
	}

	switch v := input.(type) {
	case time.Time:
		return Instant{Time: v, Loc: loc}, nil
	case string:
		for _, layout := range offsetLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return Instant{Time: t, Loc: loc}, nil
			}
		}
		for _, layout := range localLayouts {
			if t, err := time.ParseInLocation(layout, v, loc); err == nil {
				return Instant{Time: t, Loc: loc}, nil
			}
		}
		return Instant{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, v)
	default:
		return Instant{}, fmt.Errorf("%w: unsupported input type %T", ErrInvalidTimestamp, input)
	}
}

// NormalizeDate parses a YYYY-MM-DD date in loc. Fails with ErrInvalidDate.
func NormalizeDate(date string, loc *time.Location) (Instant, error) {
	if loc == nil {
		var err error
		loc, err = LoadTimezone("")
		if err != nil {
			return Instant{}, err
		}
	}
	t, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return Instant{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return Instant{Time: t, Loc: loc}, nil
}

// =============================================================================
// MIDNIGHT SPLITTING - Interval -> per-day minute segments
// =============================================================================

// Segment is the portion of an interval that falls on a single local day.
// A segment that runs to the following day reports EndMinute=1440, never the
// wrapped clock value.
type Segment struct {
	Date         string
	WeekdayIndex int
	StartMinute  int
	EndMinute    int
}

// Minutes returns the segment length.
func (s Segment) Minutes() int { return s.EndMinute - s.StartMinute }

// SplitByMidnight splits [start, end) by local midnight into per-day minute
// segments. Requires start < end, else ErrInvalidInterval.
func SplitByMidnight(start, end Instant) ([]Segment, error) {
	startT := start.local()
	endT := end.local()
	if !startT.Before(endT) {
		return nil, fmt.Errorf("%w: start %s not before end %s",
			ErrInvalidInterval, startT.Format(time.RFC3339), endT.Format(time.RFC3339))
	}

	var segments []Segment
	cur := startT
	for cur.Before(endT) {
		dayStart := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, cur.Location())
		nextMidnight := dayStart.AddDate(0, 0, 1)

		startMinute := cur.Hour()*60 + cur.Minute()
		endMinute := 1440
		segEnd := nextMidnight
		if endT.Before(nextMidnight) {
			segEnd = endT
			endMinute = endT.Hour()*60 + endT.Minute()
		}

		if endMinute > startMinute {
			segments = append(segments, Segment{
				Date:         dayStart.Format(dateLayout),
				WeekdayIndex: weekdayIndex(dayStart),
				StartMinute:  startMinute,
				EndMinute:    endMinute,
			})
		}
		cur = segEnd
	}
	return segments, nil
}
