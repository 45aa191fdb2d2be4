package analytics

import "math"

// ParticipationPoint is the share of the eligible population that responded in one ISO week.
type ParticipationPoint struct {
	WeekKey     string `json:"weekKey"`
	Respondents int    `json:"respondents"`
	Eligible    int    `json:"eligible"`
	Percentage  int    `json:"percentage"`
}

// WeeklyParticipation computes per-ISO-week participation. The numerator counts
// distinct users responding within the week and the date range; the denominator
// counts distinct users assigned within the survey, area and risk restrictions,
// regardless of date or answer, floored at 1.
func WeeklyParticipation(records []AssignmentRecord, fs FilterSet) []ParticipationPoint {
	return participationOf(Apply(records, fs))
}

func participationOf(f Filtered) []ParticipationPoint {
	eligible := make(map[string]struct{}, len(f.Scoped))
	for _, a := range f.Scoped {
		eligible[a.UserID] = struct{}{}
	}
	denom := max(1, len(eligible))

	byWeek := newUserSets()
	for _, a := range f.Matched {
		if a.ResponseDate == nil {
			continue
		}
		byWeek.add(WeekKey(*a.ResponseDate), a.UserID)
	}

	keys := byWeek.sortedKeys()
	out := make([]ParticipationPoint, 0, len(keys))
	for _, k := range keys {
		n := len(byWeek.sets[k])
		out = append(out, ParticipationPoint{
			WeekKey:     k,
			Respondents: n,
			Eligible:    len(eligible),
			Percentage:  int(math.Round(100 * float64(n) / float64(denom))),
		})
	}
	return out
}
