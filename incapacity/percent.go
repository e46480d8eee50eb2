package incapacity

import "github.com/planilla/schedule-engine/schedule"

// =============================================================================
// PERCENTAGE RAMPS
// =============================================================================

// ShareFor returns the employer/provider split for one day of an episode.
// dayNumber is episode-relative and starts at 1; restDay is the day's
// rest-day status under the employee's template.
//
// Ramps:
//   maternity           every day            -> employer 50, provider 50
//   sickness, workday   day 1..3             -> employer 50, provider 50
//   sickness, workday   day 4+               -> employer 0,  provider 60
//   sickness, rest day  day 1..2             -> uncovered (0, 0)
//   sickness, rest day  day 3+               -> employer 0,  provider 60
//   work injury (INS)   day 1..3             -> employer 100, provider 0
//   work injury (INS)   day 4+               -> employer 0,  provider 60
//
// Unknown types are uncovered.
func ShareFor(typ Type, dayNumber int, restDay bool) Share {
	switch typ {
	case TypeMaternity:
		return Share{Employer: pct(50), Provider: pct(50)}

	case TypeWorkInjury:
		if dayNumber <= 3 {
			return Share{Employer: pct(100), Provider: pct(0)}
		}
		return Share{Employer: pct(0), Provider: pct(60)}

	case TypeSickness:
		if restDay {
			if dayNumber < 3 {
				return Share{Employer: pct(0), Provider: pct(0)}
			}
			return Share{Employer: pct(0), Provider: pct(60)}
		}
		if dayNumber <= 3 {
			return Share{Employer: pct(50), Provider: pct(50)}
		}
		return Share{Employer: pct(0), Provider: pct(60)}
	}
	return Share{Employer: pct(0), Provider: pct(0)}
}

// SharesFor assigns a percentage snapshot to every date in [from, to] of an
// episode, replaying the day counter from the episode start.
func SharesFor(ep Episode, from, to string, cal Calendar) ([]DayAssignment, error) {
	if from < ep.StartDate {
		from = ep.StartDate
	}
	if to > ep.EndDate {
		to = ep.EndDate
	}

	var assignments []DayAssignment
	for date := from; date <= to; {
		dayNumber, err := ep.DayNumber(date)
		if err != nil {
			return nil, err
		}
		ctx, err := cal.Resolve(date)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, DayAssignment{
			Date:      date,
			DayNumber: dayNumber,
			Share:     ShareFor(ep.TypeName, dayNumber, ctx.IsRestDay),
		})
		date, err = schedule.AddDaysDate(date, 1)
		if err != nil {
			return nil, err
		}
	}
	return assignments, nil
}
