package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planilla/schedule-engine/incapacity"
	"github.com/planilla/schedule-engine/schedule"
	"github.com/planilla/schedule-engine/store/sqlite"
	"github.com/planilla/schedule-engine/timeline"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testShift() schedule.WeeklyShift {
	return schedule.WeeklyShift{
		StartClock:   "08:00",
		EndClock:     "17:00",
		WorkDays:     "L,M,X,J,V",
		RestDays:     "S,D",
		BreakMinutes: 60,
	}
}

func seedEmployee(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{ID: id, Name: "Test"}))
	require.NoError(t, store.SaveSchedule(ctx, id, testShift()))
}

// =============================================================================
// SCHEDULES AND HOLIDAYS
// =============================================================================

func TestScheduleRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	shift, err := store.ScheduleFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, testShift(), shift)

	_, err = store.ScheduleFor(ctx, "missing")
	assert.Error(t, err)
}

func TestHolidayIndexFor_BoundsTheRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, "2026-01-01", "Año Nuevo", true))
	require.NoError(t, store.SaveHoliday(ctx, "2026-04-11", "Juan Santamaría", false))

	index, err := store.HolidayIndexFor(ctx, "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.True(t, index["2026-01-01"].Mandatory)
}

// =============================================================================
// INCAPACITY PERSISTENCE
// =============================================================================

func TestSaveRegistrationAndExtension(t *testing.T) {
	// GIVEN: A registered three-day sickness
	// WHEN: Extending the group by two days and reloading
	// THEN: The original row's end date rolls forward and the per-day rows
	//       carry their percentage snapshots

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	tpl, err := schedule.BuildTemplate(testShift())
	require.NoError(t, err)
	cal := incapacity.TemplateCalendar{Template: tpl}

	reg, err := incapacity.Register("emp-1", incapacity.TypeSickness, "",
		"2026-01-05", "2026-01-07", nil, cal)
	require.NoError(t, err)
	groupID, err := store.SaveRegistration(ctx, reg)
	require.NoError(t, err)
	require.NotEmpty(t, groupID)

	records, err := store.IncapacityRecordsFor(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, groupID, records[0].GroupID)

	ext, err := incapacity.Extend(records, groupID, "2026-01-09", cal)
	require.NoError(t, err)
	require.NoError(t, store.AppendExtension(ctx, "emp-1", ext))

	records, err = store.IncapacityRecordsFor(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, "2026-01-09", rec.EndDate, "every group row rolls forward")
	}
	assert.Equal(t, 4, records[1].DayNumber)
	assert.Equal(t, int64(60), records[1].ProviderPct.IntPart())
}

// =============================================================================
// VACATION AND LEAVE BLOCKS
// =============================================================================

func TestVacationRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveVacation(ctx, "emp-1", schedule.VacationBlock{
		StartDate: "2026-01-07", EndDate: "2026-01-09", StatusID: schedule.StatusRequested,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	blocks, err := store.VacationsFor(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, id, blocks[0].ID)
	assert.Equal(t, "2026-01-09", blocks[0].EndDate)
}

func TestLeaveRoundtrip_PreservesWallClock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tpl, err := schedule.BuildTemplate(testShift())
	require.NoError(t, err)
	start, err := schedule.Normalize("2026-01-05T09:00", tpl.Timezone)
	require.NoError(t, err)
	end, err := schedule.Normalize("2026-01-05T11:30", tpl.Timezone)
	require.NoError(t, err)

	_, err = store.SaveLeave(ctx, "emp-1", schedule.LeaveBlock{
		Start: start, End: end, StatusID: schedule.StatusApproved,
	})
	require.NoError(t, err)

	blocks, err := store.LeavesFor(ctx, "emp-1", tpl)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 9*60, blocks[0].Start.MinuteOfDay())
	assert.Equal(t, 11*60+30, blocks[0].End.MinuteOfDay())
	assert.Equal(t, "2026-01-05", blocks[0].Start.DateString())
}

// =============================================================================
// ATTENDANCE AND OVERTIME
// =============================================================================

func TestAttendanceAndOvertimeRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	agg := timeline.AttendanceAggregate{
		WorkedMinutes: 540,
		OrdinaryHours: decimal.NewFromInt(8),
		ExtraHours:    decimal.NewFromInt(1),
		NightHours:    decimal.Zero,
	}
	require.NoError(t, store.SaveAttendanceDay(ctx, "emp-1", "2026-01-05", agg))

	loaded, err := store.AttendanceFor(ctx, "emp-1", "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 540, loaded["2026-01-05"].WorkedMinutes)
	assert.True(t, loaded["2026-01-05"].ExtraHours.Equal(decimal.NewFromInt(1)))

	// Overtime defaults to zero without an approval row.
	hours, err := store.ApprovedOvertimeFor(ctx, "emp-1", "2026-01-05")
	require.NoError(t, err)
	assert.True(t, hours.IsZero())

	require.NoError(t, store.SaveApprovedOvertime(ctx, "emp-1", "2026-01-05", decimal.NewFromFloat(1.5)))
	hours, err = store.ApprovedOvertimeFor(ctx, "emp-1", "2026-01-05")
	require.NoError(t, err)
	assert.True(t, hours.Equal(decimal.NewFromFloat(1.5)))
}

// =============================================================================
// SNAPSHOT ASSEMBLY
// =============================================================================

func TestSnapshotFor_AssemblesEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	require.NoError(t, store.SaveHoliday(ctx, "2026-01-06", "Feriado", true))
	_, err := store.SaveVacation(ctx, "emp-1", schedule.VacationBlock{
		StartDate: "2026-01-09", EndDate: "2026-01-09", StatusID: schedule.StatusApproved,
	})
	require.NoError(t, err)

	snap, err := store.SnapshotFor(ctx, "emp-1", "2026-01-05", "2026-01-11")
	require.NoError(t, err)

	assert.Equal(t, "emp-1", snap.EmployeeID)
	require.NotNil(t, snap.Template)
	assert.Len(t, snap.Holidays, 1)
	assert.Len(t, snap.Vacations, 1)

	days, err := timeline.Build(*snap, "2026-01-05", "2026-01-11")
	require.NoError(t, err)
	assert.Len(t, days, 7)
}
