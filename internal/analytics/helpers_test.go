package analytics

import (
	"testing"
	"time"
)

func date(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func answered(t testing.TB, id, user, area string, risk RiskLevel, score float64, when string) AssignmentRecord {
	t.Helper()
	d := date(t, when)
	return AssignmentRecord{
		ID:           id,
		SurveyID:     "s1",
		UserID:       user,
		Area:         area,
		RiskLevel:    risk,
		Score:        &score,
		ResponseDate: &d,
	}
}

func pending(id, user, area string) AssignmentRecord {
	return AssignmentRecord{ID: id, SurveyID: "s1", UserID: user, Area: area}
}

func averages(s Series) []*float64 {
	out := make([]*float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Average
	}
	return out
}

func ptr(f float64) *float64 { return &f }
