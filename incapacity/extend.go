/*
extend.go - Registration and replay-based extension

PURPOSE:
  Registers new incapacity records and extends existing groups. Extension
  never relies on a stored running counter: the day number of every new
  date is recomputed by replaying the episode's members, so a group can be
  extended any number of times, from storage, in any order of operations.

TRANSACTION NOTE:
  This package computes; it does not persist. Callers must read the
  employee's records under a consistent snapshot (locking the group being
  extended) and write the results in one transaction.
*/
package incapacity

import (
	"errors"
	"fmt"

	"github.com/planilla/schedule-engine/schedule"
)

var (
	// ErrInvalidExtension is returned when the new end date is not strictly
	// after the group's current end.
	ErrInvalidExtension = errors.New("invalid extension: new end not after current end")

	// ErrUnknownGroup is returned when the group id has no members.
	ErrUnknownGroup = errors.New("unknown incapacity group")
)

// IsNotFound reports whether the error names a missing group.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownGroup)
}

// =============================================================================
// REGISTRATION
// =============================================================================

// RegistrationResult bundles the new record with its per-day percentage
// snapshots. Day numbers are episode-relative: a registration contiguous
// with existing same-type records continues their ramp instead of
// restarting at day 1.
type RegistrationResult struct {
	Record      Record
	Assignments []DayAssignment
}

// Register builds the record and percentage snapshots for a new incapacity.
// existing is the employee's current record snapshot; the caller must have
// run GuardOverlap first. The record id and group id are left for the
// persistence layer to assign when empty.
func Register(employeeID string, typ Type, groupID, start, end string, existing []Record, cal Calendar) (*RegistrationResult, error) {
	if diff, err := schedule.DaysBetween(start, end); err != nil {
		return nil, err
	} else if diff < 0 {
		return nil, fmt.Errorf("%w: incapacity range %s..%s", schedule.ErrInvalidInterval, start, end)
	}

	record := Record{
		EmployeeID: employeeID,
		TypeName:   typ,
		GroupID:    groupID,
		StartDate:  start,
		EndDate:    end,
	}

	merged := append(append([]Record{}, existing...), record)
	episodes := BuildEpisodes(merged)
	episode, ok := EpisodeAt(episodes, start)
	if !ok {
		return nil, fmt.Errorf("%w: no episode covers %s", schedule.ErrInvalidDate, start)
	}

	assignments, err := SharesFor(episode, start, end, cal)
	if err != nil {
		return nil, err
	}
	return &RegistrationResult{Record: record, Assignments: assignments}, nil
}

// =============================================================================
// EXTENSION
// =============================================================================

// ExtensionResult bundles everything an extension changes: one new record
// per new date carrying its percentage snapshot, the members whose end date
// rolls forward, and the final end date of the group.
type ExtensionResult struct {
	GroupID        string
	NewEndDate     string
	NewRecords     []Record
	UpdatedRecords []Record
	Assignments    []DayAssignment
}

// Extend extends the group to newEnd. The day counter is replayed from the
// full episode containing the group, so a group merged with earlier records
// keeps its ramp position. Fails with ErrUnknownGroup when no record carries
// the group id, and ErrInvalidExtension when newEnd does not move the end
// forward.
func Extend(existing []Record, groupID, newEnd string, cal Calendar) (*ExtensionResult, error) {
	var members []Record
	for _, rec := range existing {
		if rec.GroupID == groupID {
			members = append(members, rec)
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, groupID)
	}

	currentEnd := members[0].EndDate
	for _, m := range members[1:] {
		if m.EndDate > currentEnd {
			currentEnd = m.EndDate
		}
	}
	if newEnd <= currentEnd {
		return nil, fmt.Errorf("%w: %s <= %s", ErrInvalidExtension, newEnd, currentEnd)
	}

	episodes := BuildEpisodes(existing)
	episode, ok := EpisodeOfGroup(episodes, groupID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, groupID)
	}

	firstNew, err := schedule.AddDaysDate(currentEnd, 1)
	if err != nil {
		return nil, err
	}

	// Extend the derived episode range before replaying, so new dates get
	// day numbers relative to the original episode start.
	episode.EndDate = newEnd
	assignments, err := SharesFor(episode, firstNew, newEnd, cal)
	if err != nil {
		return nil, err
	}

	result := &ExtensionResult{GroupID: groupID, NewEndDate: newEnd, Assignments: assignments}
	employeeID := members[0].EmployeeID
	typ := members[0].TypeName
	for _, a := range assignments {
		result.NewRecords = append(result.NewRecords, Record{
			EmployeeID:  employeeID,
			TypeName:    typ,
			GroupID:     groupID,
			StartDate:   a.Date,
			EndDate:     newEnd,
			DayNumber:   a.DayNumber,
			EmployerPct: a.Share.Employer,
			ProviderPct: a.Share.Provider,
		})
	}
	for _, m := range members {
		m.EndDate = newEnd
		result.UpdatedRecords = append(result.UpdatedRecords, m)
	}
	return result, nil
}
