package analytics

import (
	"math"
	"slices"
	"sort"
)

type areaAccum struct {
	sum       float64
	count     int
	responded int
}

// Merge combines per-survey summaries into one composite summary.
//
// Counts and distributions are summed and the overall average is weighted by
// respondents. Per-area averages are the plain mean over the surveys reporting
// the area, not weighted by respondents. A single summary is returned as is.
func Merge(summaries ...SurveySummary) SurveySummary {
	out := SurveySummary{ByArea: AreaAverages{}}
	if len(summaries) == 0 {
		return out
	}
	if len(summaries) == 1 {
		single := summaries[0]
		single.ByArea = slices.Clone(single.ByArea)
		return single
	}

	var weighted float64
	var order []string
	areas := make(map[string]*areaAccum)

	for _, s := range summaries {
		out.Assigned += s.Assigned
		out.Responded += s.Responded
		out.Distribution = out.Distribution.Add(s.Distribution)
		if s.Responded > 0 && isFinite(s.OverallAverage) {
			weighted += s.OverallAverage * float64(s.Responded)
		}

		for _, a := range s.ByArea {
			if a.Area == "" || !isFinite(a.Average) {
				continue
			}
			acc, ok := areas[a.Area]
			if !ok {
				acc = &areaAccum{}
				areas[a.Area] = acc
				order = append(order, a.Area)
			}
			acc.sum += a.Average
			acc.count++
			acc.responded += a.Responded
		}
	}

	if out.Responded > 0 {
		out.OverallAverage = weighted / float64(out.Responded)
	}

	sort.Strings(order)
	for _, area := range order {
		acc := areas[area]
		out.ByArea = append(out.ByArea, AreaAverage{
			Area:      area,
			Average:   acc.sum / float64(acc.count),
			Responded: acc.responded,
		})
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
