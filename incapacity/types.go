/*
Package incapacity implements the incapacity episode engine.

PURPOSE:
  Merges contiguous or overlapping same-type incapacity records into
  episodes, assigns per-day employer/provider cost-sharing percentages
  from the episode-relative day count, and extends episodes by replaying
  their members rather than trusting any stored counter.

KEY CONCEPTS:
  - Record: an immutable registration row. Created on registration,
    appended to a group on extension; only the trailing end date rolls
    forward, nothing else mutates.
  - Episode: a derived, maximal run of same-type records that overlap or
    sit exactly one day apart. Episode identity survives extension, so
    percentage ramps keep counting across repeated extensions.
  - Share: the employer/provider percentage split for one day.

DESIGN PRINCIPLES:
  1. The day counter is always recomputed from members. Episodes can be
     rebuilt from storage at any point.
  2. Every record carries its employee id explicitly; no joins back
     through attendance rows.
  3. Both registration and timeline building consume this package; the
     percentage ramp lives in exactly one place.

SEE ALSO:
  - episodes.go: merge rule
  - percent.go: percentage ramps per incapacity type
  - extend.go: replay-based extension
*/
package incapacity

import (
	"github.com/shopspring/decimal"

	"github.com/planilla/schedule-engine/schedule"
)

// Type names the incapacity category. The ramp depends on it.
type Type string

const (
	// TypeSickness is common illness covered by the social security fund.
	TypeSickness Type = "sickness"
	// TypeMaternity is maternity leave, split evenly for the whole episode.
	TypeMaternity Type = "maternity"
	// TypeWorkInjury is a workplace injury covered by the INS insurer.
	TypeWorkInjury Type = "ins"
)

// Record is one incapacity registration row.
type Record struct {
	ID         string
	EmployeeID string
	TypeName   Type
	GroupID    string
	StartDate  string // YYYY-MM-DD
	EndDate    string // inclusive; rolled forward on extension

	// Percentage snapshot for single-day rows appended by extensions.
	// Replay never trusts DayNumber; it is kept for audit only.
	DayNumber   int
	EmployerPct decimal.Decimal
	ProviderPct decimal.Decimal
}

// Episode is a derived run of merged records.
type Episode struct {
	EpisodeID  string
	EmployeeID string
	TypeName   Type
	StartDate  string
	EndDate    string
	Members    []Record
}

// Covers reports whether the date falls inside the episode range.
func (e Episode) Covers(date string) bool {
	return e.StartDate <= date && date <= e.EndDate
}

// DayNumber returns the episode-relative day count for a covered date,
// starting at 1 on the episode's first day.
func (e Episode) DayNumber(date string) (int, error) {
	diff, err := schedule.DaysBetween(e.StartDate, date)
	if err != nil {
		return 0, err
	}
	return diff + 1, nil
}

// Share is the employer/provider percentage split for one day.
type Share struct {
	Employer decimal.Decimal
	Provider decimal.Decimal
}

func pct(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// DayAssignment is the per-day percentage snapshot produced at registration
// and extension time.
type DayAssignment struct {
	Date      string
	DayNumber int
	Share     Share
}

// Calendar resolves a date's rest-day/holiday context. The schedule package
// provides the canonical implementation; tests may stub it.
type Calendar interface {
	Resolve(date string) (schedule.DayContext, error)
}

// TemplateCalendar adapts a schedule template and holiday index.
type TemplateCalendar struct {
	Template *schedule.ScheduleTemplate
	Holidays schedule.HolidayIndex
}

func (c TemplateCalendar) Resolve(date string) (schedule.DayContext, error) {
	return schedule.ResolveDay(date, c.Template, c.Holidays)
}
