package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planilla/schedule-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// officeShift is the common Monday-Friday 08:00-17:00 schedule with a one
// hour break and weekend rest.
func officeShift() schedule.WeeklyShift {
	return schedule.WeeklyShift{
		StartClock:   "08:00",
		EndClock:     "17:00",
		WorkDays:     "L,M,X,J,V",
		RestDays:     "S,D",
		BreakMinutes: 60,
	}
}

// nightShift crosses midnight: 22:00-06:00, Monday through Friday.
func nightShift() schedule.WeeklyShift {
	return schedule.WeeklyShift{
		StartClock: "22:00",
		EndClock:   "06:00",
		WorkDays:   "L,M,X,J,V",
		RestDays:   "S,D",
	}
}

func mustTemplate(t *testing.T, shift schedule.WeeklyShift) *schedule.ScheduleTemplate {
	t.Helper()
	tpl, err := schedule.BuildTemplate(shift)
	require.NoError(t, err)
	return tpl
}

// =============================================================================
// DAY SET AND CLOCK PARSING
// =============================================================================

func TestParseDaySet_SpanishLetters(t *testing.T) {
	days, err := schedule.ParseDaySet("L, M, X, J, V")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}, days)

	// MI is an accepted alias for miércoles.
	days, err = schedule.ParseDaySet("mi,s,d")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{2: true, 5: true, 6: true}, days)

	_, err = schedule.ParseDaySet("L,Q")
	assert.ErrorIs(t, err, schedule.ErrInvalidTimeRange)
}

func TestParseClock(t *testing.T) {
	minute, err := schedule.ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510, minute)

	minute, err = schedule.ParseClock("23:59:45")
	require.NoError(t, err)
	assert.Equal(t, 1439, minute, "seconds are truncated")

	for _, bad := range []string{"24:00", "08:60", "8h30", ""} {
		_, err := schedule.ParseClock(bad)
		assert.ErrorIs(t, err, schedule.ErrInvalidTimeRange, "clock %q", bad)
	}
}

// =============================================================================
// TEMPLATE CONSTRUCTION
// =============================================================================

func TestBuildTemplate_DayShift_OneRangePerWorkday(t *testing.T) {
	// GIVEN: A start clock strictly before the end clock
	// WHEN: Building the template
	// THEN: Each labor weekday carries exactly one range [start, end)

	tpl := mustTemplate(t, officeShift())

	for weekday := 0; weekday <= 4; weekday++ {
		require.Len(t, tpl.VirtualFor(weekday), 1)
		assert.Equal(t, schedule.MinuteRange{Start: 480, End: 1020}, tpl.VirtualFor(weekday)[0])
	}
	assert.Empty(t, tpl.VirtualFor(5))
	assert.Empty(t, tpl.VirtualFor(6))
	assert.False(t, tpl.IsOvernight())
}

func TestBuildTemplate_Overnight_TwoRangesPerWorkday(t *testing.T) {
	// GIVEN: A start clock at or after the end clock
	// WHEN: Building the template
	// THEN: Each labor weekday carries [0, end) and [start, 1440)

	tpl := mustTemplate(t, nightShift())

	require.Len(t, tpl.VirtualFor(0), 2)
	assert.Equal(t, schedule.MinuteRange{Start: 0, End: 360}, tpl.VirtualFor(0)[0])
	assert.Equal(t, schedule.MinuteRange{Start: 1320, End: 1440}, tpl.VirtualFor(0)[1])
	assert.True(t, tpl.IsOvernight())
}

func TestBuildTemplate_MidnightToMidnight_FullDayRange(t *testing.T) {
	// start == end == 00:00 is a full-day shift; the degenerate early half
	// must not appear as a zero-length range.
	shift := officeShift()
	shift.StartClock = "00:00"
	shift.EndClock = "00:00"

	tpl := mustTemplate(t, shift)
	require.Len(t, tpl.VirtualFor(0), 1)
	assert.Equal(t, schedule.MinuteRange{Start: 0, End: 1440}, tpl.VirtualFor(0)[0])
}

func TestBuildTemplate_RestDayWinsOverWorkDay(t *testing.T) {
	// GIVEN: A day letter present in both the work set and the rest set
	// WHEN: Building the template
	// THEN: The day is a rest day and carries no virtual windows

	shift := officeShift()
	shift.WorkDays = "L,M,X,J,V,S"
	shift.RestDays = "S,D"

	tpl := mustTemplate(t, shift)
	assert.True(t, tpl.IsRestDay(5))
	assert.Empty(t, tpl.VirtualFor(5))
}

func TestBuildTemplate_RealBound_TrimsAcceptanceWindow(t *testing.T) {
	shift := officeShift()
	shift.RealBound = "18:00"

	tpl := mustTemplate(t, shift)
	require.Len(t, tpl.RealFor(0), 1)
	assert.Equal(t, schedule.MinuteRange{Start: 0, End: 1080}, tpl.RealFor(0)[0])
}

func TestBuildTemplate_InvalidInputs(t *testing.T) {
	cases := map[string]func(*schedule.WeeklyShift){
		"bad start clock":  func(s *schedule.WeeklyShift) { s.StartClock = "25:00" },
		"bad day letter":   func(s *schedule.WeeklyShift) { s.WorkDays = "L,Z" },
		"empty work days":  func(s *schedule.WeeklyShift) { s.WorkDays = "" },
		"negative break":   func(s *schedule.WeeklyShift) { s.BreakMinutes = -30 },
		"bad max daily":    func(s *schedule.WeeklyShift) { s.MaxDailyMinutes = 2000 },
		"unknown timezone": func(s *schedule.WeeklyShift) { s.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			shift := officeShift()
			mutate(&shift)
			_, err := schedule.BuildTemplate(shift)
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// WINDOW ATTRIBUTION
// =============================================================================

func TestWindowOpenDate_OvernightEarlyMinutes_BelongToPreviousDay(t *testing.T) {
	// GIVEN: A 22:00-06:00 shift
	// WHEN: Asking which window a Tuesday 02:00 instant belongs to
	// THEN: It belongs to the window opened on Monday

	tpl := mustTemplate(t, nightShift())

	assert.Equal(t, "2026-01-05", tpl.WindowOpenDate(instant(t, "2026-01-06T02:00")))
	assert.Equal(t, "2026-01-06", tpl.WindowOpenDate(instant(t, "2026-01-06T22:30")))
}

func TestWindowOpenDate_DayShift_IsOwnDate(t *testing.T) {
	tpl := mustTemplate(t, officeShift())
	assert.Equal(t, "2026-01-06", tpl.WindowOpenDate(instant(t, "2026-01-06T02:00")))
}
