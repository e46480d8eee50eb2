/*
attendance.go - Attendance interval classification

PURPOSE:
  Splits a clock-in/out pair across midnight and apportions the worked
  minutes into ordinary time (inside the weekday's virtual windows) and
  extra time (everything else), then deducts break time.

RULES:
  - exit <= entry is a recoverable anomaly: zeroed result + warning.
    Attendance registration must always persist something.
  - A segment on a rest day, or on a weekday without virtual windows, is
    charged entirely as extra.
  - Break minutes are deducted first from ordinary, remainder from extra.
  - Hour outputs round half-up to 2 decimals.

INVARIANT:
  OrdinaryMinutes + ExtraMinutes == WorkedMinutes after break deduction,
  all three >= 0.

SEE ALSO:
  - overtime.go: clamps the resulting extra hours to approved hours
*/
package schedule

// Classify splits [entry, exit) by local midnight and computes ordinary vs
// extra minutes against the template's virtual windows. Never returns an
// error for punch anomalies; they surface as warnings on a zeroed or
// best-effort result.
func Classify(entry, exit Instant, tpl *ScheduleTemplate) (AttendanceClassification, error) {
	zero := AttendanceClassification{
		OrdinaryHours: minutesToHours(0),
		ExtraHours:    minutesToHours(0),
	}

	if !entry.Before(exit) {
		zero.Warnings = append(zero.Warnings, WarnExitNotAfterEntry)
		return zero, nil
	}

	segments, err := SplitByMidnight(entry, exit)
	if err != nil {
		return zero, err
	}

	ordinary, extra := 0, 0
	for _, seg := range segments {
		segOrdinary, segExtra := classifySegment(seg, tpl)
		ordinary += segOrdinary
		extra += segExtra
	}

	result := AttendanceClassification{}
	ordinary, extra, result.Warnings = deductBreak(ordinary, extra, tpl.BreakMinutes)

	result.OrdinaryMinutes = ordinary
	result.ExtraMinutes = extra
	result.WorkedMinutes = ordinary + extra
	result.OrdinaryHours = minutesToHours(ordinary)
	result.ExtraHours = minutesToHours(extra)

	if result.WorkedMinutes > 0 && ordinary == 0 {
		result.Warnings = append(result.Warnings, WarnNonWorkdayChargedExtra)
	}
	if ordinary > 0 && extra > 0 {
		result.Warnings = append(result.Warnings, WarnLateDepartureExtra)
	}
	return result, nil
}

// classifySegment apportions one per-day segment. Punches are only accepted
// inside the weekday's real windows; minutes outside them are discarded.
func classifySegment(seg Segment, tpl *ScheduleTemplate) (ordinary, extra int) {
	accepted := coveredMinutes(tpl.RealFor(seg.WeekdayIndex), seg.StartMinute, seg.EndMinute)
	if accepted == 0 {
		return 0, 0
	}

	virtual := tpl.VirtualFor(seg.WeekdayIndex)
	if tpl.IsRestDay(seg.WeekdayIndex) || len(virtual) == 0 {
		return 0, capSegment(accepted, tpl.MaxDailyMinutes)
	}

	ordinary = coveredMinutes(virtual, seg.StartMinute, seg.EndMinute)
	if ordinary > accepted {
		ordinary = accepted
	}
	extra = accepted - ordinary

	if tpl.MaxDailyMinutes > 0 && ordinary+extra > tpl.MaxDailyMinutes {
		// Trim the excess from extra first, then ordinary.
		excess := ordinary + extra - tpl.MaxDailyMinutes
		trimmed := min(excess, extra)
		extra -= trimmed
		ordinary -= excess - trimmed
	}
	return ordinary, extra
}

func capSegment(minutes, maxDaily int) int {
	if maxDaily > 0 && minutes > maxDaily {
		return maxDaily
	}
	return minutes
}

// deductBreak removes break minutes, first from ordinary then from extra.
// A break covering the whole worked time zeroes the result with a warning.
func deductBreak(ordinary, extra, breakMinutes int) (int, int, []Warning) {
	if breakMinutes <= 0 {
		return ordinary, extra, nil
	}
	if breakMinutes >= ordinary+extra {
		if ordinary+extra > 0 {
			return 0, 0, []Warning{WarnBreakExceedsWorked}
		}
		return 0, 0, nil
	}
	fromOrdinary := min(breakMinutes, ordinary)
	ordinary -= fromOrdinary
	extra -= breakMinutes - fromOrdinary
	return ordinary, extra, nil
}
