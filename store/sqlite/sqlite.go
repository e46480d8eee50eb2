/*
Package sqlite is the persistence collaborator of the scheduling engine.

PURPOSE:
  Persists the records the engine consumes (weekly schedules, holidays,
  incapacity records with per-day percentage snapshots, vacation/leave
  blocks, attendance aggregates, approved overtime) and serves read-only
  point-in-time snapshots per engine call. The engine itself never touches
  storage; this package is the boundary.

KEY TABLES:
  employees:           entity records
  schedules:           raw weekly-shift fields per employee
  holidays:            date -> name, mandatory flag
  incapacity_records:  registration rows (group lineage, rolled end dates)
  incapacity_days:     per-day percentage snapshots
  vacation_blocks:     date-only absence blocks with status
  leave_blocks:        datetime absence blocks with status
  attendance_days:     per-date worked aggregates
  overtime_approvals:  pre-approved extra hours per date

CONCURRENCY:
  sync.RWMutex plus SQLite WAL mode. Writers racing on the same
  employee-date (two extensions of one group, a vacation approval racing
  an incapacity registration) must serialize here; the engine provides no
  locking of its own. SaveRegistration and AppendExtension each run inside
  a single transaction.

SEE ALSO:
  - timeline package: the Snapshot type SnapshotFor assembles
  - api package: handlers driving this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/planilla/schedule-engine/incapacity"
	"github.com/planilla/schedule-engine/schedule"
	"github.com/planilla/schedule-engine/timeline"
)

// Store implements the snapshot persistence boundary using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedules (
		employee_id TEXT PRIMARY KEY,
		start_clock TEXT NOT NULL,
		end_clock TEXT NOT NULL,
		work_days TEXT NOT NULL,
		rest_days TEXT NOT NULL,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		max_daily_minutes INTEGER NOT NULL DEFAULT 0,
		real_bound TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mandatory INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS incapacity_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type_name TEXT NOT NULL,
		group_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		day_number INTEGER NOT NULL DEFAULT 0,
		employer_pct TEXT NOT NULL DEFAULT '0',
		provider_pct TEXT NOT NULL DEFAULT '0'
	);
	CREATE INDEX IF NOT EXISTS idx_incapacity_employee
		ON incapacity_records(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_incapacity_group
		ON incapacity_records(group_id);

	CREATE TABLE IF NOT EXISTS incapacity_days (
		employee_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		date TEXT NOT NULL,
		day_number INTEGER NOT NULL,
		employer_pct TEXT NOT NULL,
		provider_pct TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS vacation_blocks (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vacations_employee
		ON vacation_blocks(employee_id, start_date);

	CREATE TABLE IF NOT EXISTS leave_blocks (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leaves_employee
		ON leave_blocks(employee_id, start_at);

	CREATE TABLE IF NOT EXISTS attendance_days (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		worked_minutes INTEGER NOT NULL,
		ordinary_hours TEXT NOT NULL,
		extra_hours TEXT NOT NULL,
		night_hours TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS overtime_approvals (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES AND SCHEDULES
// =============================================================================

// Employee is a minimal entity record.
type Employee struct {
	ID   string
	Name string
}

// SaveEmployee inserts or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO employees (id, name) VALUES (?, ?)`, emp.ID, emp.Name)
	return err
}

// SaveSchedule stores the raw weekly-shift fields for an employee.
func (s *Store) SaveSchedule(ctx context.Context, employeeID string, shift schedule.WeeklyShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO schedules
		(employee_id, start_clock, end_clock, work_days, rest_days,
		 break_minutes, max_daily_minutes, real_bound, timezone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		employeeID, shift.StartClock, shift.EndClock, shift.WorkDays, shift.RestDays,
		shift.BreakMinutes, shift.MaxDailyMinutes, shift.RealBound, shift.Timezone)
	return err
}

// ScheduleFor loads the raw weekly shift of an employee.
func (s *Store) ScheduleFor(ctx context.Context, employeeID string) (schedule.WeeklyShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var shift schedule.WeeklyShift
	err := s.db.QueryRowContext(ctx, `
		SELECT start_clock, end_clock, work_days, rest_days,
		       break_minutes, max_daily_minutes, real_bound, timezone
		FROM schedules WHERE employee_id = ?`, employeeID).Scan(
		&shift.StartClock, &shift.EndClock, &shift.WorkDays, &shift.RestDays,
		&shift.BreakMinutes, &shift.MaxDailyMinutes, &shift.RealBound, &shift.Timezone)
	if err == sql.ErrNoRows {
		return shift, fmt.Errorf("no schedule for employee %s", employeeID)
	}
	return shift, err
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday inserts or replaces a holiday.
func (s *Store) SaveHoliday(ctx context.Context, date, name string, mandatory bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO holidays (date, name, mandatory) VALUES (?, ?, ?)`,
		date, name, mandatory)
	return err
}

// HolidayIndexFor loads the holiday index for a bounded date range.
func (s *Store) HolidayIndexFor(ctx context.Context, from, to string) (schedule.HolidayIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, name, mandatory FROM holidays WHERE date >= ? AND date <= ?`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	index := make(schedule.HolidayIndex)
	for rows.Next() {
		var date, name string
		var mandatory bool
		if err := rows.Scan(&date, &name, &mandatory); err != nil {
			return nil, err
		}
		index[date] = schedule.HolidayInfo{Name: name, Mandatory: mandatory}
	}
	return index, rows.Err()
}

// =============================================================================
// INCAPACITY RECORDS
// =============================================================================

// IncapacityRecordsFor loads every incapacity record of an employee. The
// full history is loaded on purpose: episode identity depends on records
// that may predate the requested range.
func (s *Store) IncapacityRecordsFor(ctx context.Context, employeeID string) ([]incapacity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryIncapacities(ctx,
		`SELECT id, employee_id, type_name, group_id, start_date, end_date,
		        day_number, employer_pct, provider_pct
		 FROM incapacity_records WHERE employee_id = ? ORDER BY start_date`, employeeID)
}

func (s *Store) queryIncapacities(ctx context.Context, query string, args ...any) ([]incapacity.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []incapacity.Record
	for rows.Next() {
		var rec incapacity.Record
		var employerPct, providerPct string
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, (*string)(&rec.TypeName), &rec.GroupID,
			&rec.StartDate, &rec.EndDate, &rec.DayNumber, &employerPct, &providerPct); err != nil {
			return nil, err
		}
		if rec.EmployerPct, err = decimal.NewFromString(employerPct); err != nil {
			return nil, err
		}
		if rec.ProviderPct, err = decimal.NewFromString(providerPct); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveRegistration persists a registration result in one transaction: the
// new record plus its per-day percentage snapshots. Returns the group id.
func (s *Store) SaveRegistration(ctx context.Context, reg *incapacity.RegistrationResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := reg.Record
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.GroupID == "" {
		rec.GroupID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := insertIncapacityRecord(ctx, tx, rec); err != nil {
		return "", err
	}
	if err := insertAssignments(ctx, tx, rec.EmployeeID, rec.GroupID, reg.Assignments); err != nil {
		return "", err
	}
	return rec.GroupID, tx.Commit()
}

// AppendExtension persists an extension result in one transaction: per-day
// records, rolled-forward member end dates, and percentage snapshots.
func (s *Store) AppendExtension(ctx context.Context, employeeID string, ext *incapacity.ExtensionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range ext.NewRecords {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if err := insertIncapacityRecord(ctx, tx, rec); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE incapacity_records SET end_date = ? WHERE group_id = ?`,
		ext.NewEndDate, ext.GroupID); err != nil {
		return err
	}
	if err := insertAssignments(ctx, tx, employeeID, ext.GroupID, ext.Assignments); err != nil {
		return err
	}
	return tx.Commit()
}

func insertIncapacityRecord(ctx context.Context, tx *sql.Tx, rec incapacity.Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO incapacity_records
		(id, employee_id, type_name, group_id, start_date, end_date,
		 day_number, employer_pct, provider_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EmployeeID, string(rec.TypeName), rec.GroupID,
		rec.StartDate, rec.EndDate, rec.DayNumber,
		rec.EmployerPct.String(), rec.ProviderPct.String())
	return err
}

func insertAssignments(ctx context.Context, tx *sql.Tx, employeeID, groupID string, assignments []incapacity.DayAssignment) error {
	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO incapacity_days
			(employee_id, group_id, date, day_number, employer_pct, provider_pct)
			VALUES (?, ?, ?, ?, ?, ?)`,
			employeeID, groupID, a.Date, a.DayNumber,
			a.Share.Employer.String(), a.Share.Provider.String()); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// VACATION AND LEAVE BLOCKS
// =============================================================================

// SaveVacation stores a vacation block; a generated id is returned.
func (s *Store) SaveVacation(ctx context.Context, employeeID string, block schedule.VacationBlock) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO vacation_blocks (id, employee_id, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?)`,
		block.ID, employeeID, block.StartDate, block.EndDate, block.StatusID)
	return block.ID, err
}

// VacationsFor loads every vacation block of an employee.
func (s *Store) VacationsFor(ctx context.Context, employeeID string) ([]schedule.VacationBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_date, end_date, status FROM vacation_blocks
		 WHERE employee_id = ? ORDER BY start_date`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []schedule.VacationBlock
	for rows.Next() {
		var b schedule.VacationBlock
		if err := rows.Scan(&b.ID, &b.StartDate, &b.EndDate, &b.StatusID); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// SaveLeave stores a leave block; datetimes are persisted as local
// wall-clock strings and re-anchored to the employee's zone on load.
func (s *Store) SaveLeave(ctx context.Context, employeeID string, block schedule.LeaveBlock) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO leave_blocks (id, employee_id, start_at, end_at, status)
		VALUES (?, ?, ?, ?, ?)`,
		block.ID, employeeID,
		block.Start.Time.Format("2006-01-02T15:04:05"),
		block.End.Time.Format("2006-01-02T15:04:05"),
		block.StatusID)
	return block.ID, err
}

// LeavesFor loads every leave block of an employee, anchored in the
// template's zone.
func (s *Store) LeavesFor(ctx context.Context, employeeID string, tpl *schedule.ScheduleTemplate) ([]schedule.LeaveBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_at, end_at, status FROM leave_blocks
		 WHERE employee_id = ? ORDER BY start_at`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []schedule.LeaveBlock
	for rows.Next() {
		var b schedule.LeaveBlock
		var startAt, endAt string
		if err := rows.Scan(&b.ID, &startAt, &endAt, &b.StatusID); err != nil {
			return nil, err
		}
		if b.Start, err = schedule.Normalize(startAt, tpl.Timezone); err != nil {
			return nil, err
		}
		if b.End, err = schedule.Normalize(endAt, tpl.Timezone); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// =============================================================================
// ATTENDANCE AND OVERTIME
// =============================================================================

// SaveAttendanceDay upserts a per-date worked aggregate.
func (s *Store) SaveAttendanceDay(ctx context.Context, employeeID, date string, agg timeline.AttendanceAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO attendance_days
		(employee_id, date, worked_minutes, ordinary_hours, extra_hours, night_hours)
		VALUES (?, ?, ?, ?, ?, ?)`,
		employeeID, date, agg.WorkedMinutes,
		agg.OrdinaryHours.String(), agg.ExtraHours.String(), agg.NightHours.String())
	return err
}

// AttendanceFor loads worked aggregates per date in [from, to].
func (s *Store) AttendanceFor(ctx context.Context, employeeID, from, to string) (map[string]timeline.AttendanceAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, worked_minutes, ordinary_hours, extra_hours, night_hours
		FROM attendance_days WHERE employee_id = ? AND date >= ? AND date <= ?`,
		employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := make(map[string]timeline.AttendanceAggregate)
	for rows.Next() {
		var date, ordinary, extra, night string
		var agg timeline.AttendanceAggregate
		if err := rows.Scan(&date, &agg.WorkedMinutes, &ordinary, &extra, &night); err != nil {
			return nil, err
		}
		if agg.OrdinaryHours, err = decimal.NewFromString(ordinary); err != nil {
			return nil, err
		}
		if agg.ExtraHours, err = decimal.NewFromString(extra); err != nil {
			return nil, err
		}
		if agg.NightHours, err = decimal.NewFromString(night); err != nil {
			return nil, err
		}
		aggregates[date] = agg
	}
	return aggregates, rows.Err()
}

// SaveApprovedOvertime sets the pre-approved extra hours for a date.
func (s *Store) SaveApprovedOvertime(ctx context.Context, employeeID, date string, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO overtime_approvals (employee_id, date, hours)
		VALUES (?, ?, ?)`, employeeID, date, hours.String())
	return err
}

// ApprovedOvertimeFor returns the approved hours for a date, zero when none.
func (s *Store) ApprovedOvertimeFor(ctx context.Context, employeeID, date string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hours string
	err := s.db.QueryRowContext(ctx,
		`SELECT hours FROM overtime_approvals WHERE employee_id = ? AND date = ?`,
		employeeID, date).Scan(&hours)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(hours)
}

// =============================================================================
// SNAPSHOT ASSEMBLY
// =============================================================================

// SnapshotFor assembles the immutable per-call input bundle the timeline
// builder consumes: template, holidays for the range, and the employee's
// record collections. Incapacity history is loaded in full so episode
// day-counting survives ranges that start mid-episode.
func (s *Store) SnapshotFor(ctx context.Context, employeeID, from, to string) (*timeline.Snapshot, error) {
	shift, err := s.ScheduleFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	tpl, err := schedule.BuildTemplate(shift)
	if err != nil {
		return nil, err
	}
	holidays, err := s.HolidayIndexFor(ctx, from, to)
	if err != nil {
		return nil, err
	}
	incapacities, err := s.IncapacityRecordsFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	vacations, err := s.VacationsFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	leaves, err := s.LeavesFor(ctx, employeeID, tpl)
	if err != nil {
		return nil, err
	}
	attendance, err := s.AttendanceFor(ctx, employeeID, from, to)
	if err != nil {
		return nil, err
	}

	return &timeline.Snapshot{
		EmployeeID:   employeeID,
		Template:     tpl,
		Holidays:     holidays,
		Incapacities: incapacities,
		Vacations:    vacations,
		Leaves:       leaves,
		Attendance:   attendance,
	}, nil
}
