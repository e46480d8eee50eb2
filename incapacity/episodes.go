package incapacity

import (
	"sort"

	"github.com/planilla/schedule-engine/schedule"
)

// =============================================================================
// EPISODE MERGING
// =============================================================================

// BuildEpisodes merges one employee's records into episodes. A record joins
// the running episode iff it has the same type and its range overlaps the
// episode's range or starts exactly one day after the episode's end.
// Otherwise a new episode starts.
//
// Records are sorted by start date first, so merge order does not depend on
// insertion order. The episode id is the group id of the earliest member,
// which is stable across extensions.
func BuildEpisodes(records []Record) []Episode {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartDate != sorted[j].StartDate {
			return sorted[i].StartDate < sorted[j].StartDate
		}
		return sorted[i].EndDate < sorted[j].EndDate
	})

	var episodes []Episode
	for _, rec := range sorted {
		if len(episodes) > 0 {
			last := &episodes[len(episodes)-1]
			if last.TypeName == rec.TypeName && joins(last.EndDate, rec.StartDate) {
				last.Members = append(last.Members, rec)
				if rec.EndDate > last.EndDate {
					last.EndDate = rec.EndDate
				}
				continue
			}
		}
		episodes = append(episodes, Episode{
			EpisodeID:  episodeID(rec),
			EmployeeID: rec.EmployeeID,
			TypeName:   rec.TypeName,
			StartDate:  rec.StartDate,
			EndDate:    rec.EndDate,
			Members:    []Record{rec},
		})
	}
	return episodes
}

// joins applies the merge rule against the running episode's end: overlap
// (start on or before the end) or a gap of exactly one day. A two-day gap
// starts a fresh episode and the ramp counter restarts.
func joins(episodeEnd, recordStart string) bool {
	if recordStart <= episodeEnd {
		return true
	}
	gap, err := schedule.DaysBetween(episodeEnd, recordStart)
	if err != nil {
		return false
	}
	return gap == 1
}

func episodeID(rec Record) string {
	if rec.GroupID != "" {
		return rec.GroupID
	}
	return rec.ID
}

// EpisodeAt returns the episode covering the date, if any.
func EpisodeAt(episodes []Episode, date string) (Episode, bool) {
	for _, ep := range episodes {
		if ep.Covers(date) {
			return ep, true
		}
	}
	return Episode{}, false
}

// EpisodeOfGroup returns the episode containing any member of the group.
func EpisodeOfGroup(episodes []Episode, groupID string) (Episode, bool) {
	for _, ep := range episodes {
		for _, m := range ep.Members {
			if m.GroupID == groupID {
				return ep, true
			}
		}
	}
	return Episode{}, false
}

// =============================================================================
// OVERLAP GUARD
// =============================================================================

// GuardOverlap rejects a new registration whose date range intersects any
// existing record. Unlike the range validators this throws: a worker cannot
// hold two incapacities over the same day.
func GuardOverlap(employeeID, from, to string, existing []Record) error {
	for _, rec := range existing {
		if from <= rec.EndDate && rec.StartDate <= to {
			return &schedule.IncapacityBlockedError{
				EmployeeID: employeeID,
				RecordID:   rec.ID,
				GroupID:    rec.GroupID,
				StartDate:  rec.StartDate,
				EndDate:    rec.EndDate,
			}
		}
	}
	return nil
}
