package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []AssignmentRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestApply(t *testing.T) {
	other := answered(t, "a6", "u6", "A", RiskLow, 3, "2024-03-05")
	other.SurveyID = "s2"

	records := []AssignmentRecord{
		answered(t, "a1", "u1", "A", RiskLow, 4, "2024-03-04"),
		answered(t, "a2", "u2", "B", RiskHigh, 1, "2024-03-20T22:15:00Z"),
		answered(t, "a3", "u3", "", RiskMedium, 3, "2024-04-02"),
		pending("a4", "u4", "A"),
		pending("a5", "u5", ""),
		other,
	}

	cases := []struct {
		name    string
		filters FilterSet
		matched []string
		scoped  []string
	}{
		{
			name:    "no restriction keeps everything",
			filters: FilterSet{},
			matched: []string{"a1", "a2", "a3", "a4", "a5", "a6"},
			scoped:  []string{"a1", "a2", "a3", "a4", "a5", "a6"},
		},
		{
			name:    "area filter",
			filters: FilterSet{Areas: []string{"A"}},
			matched: []string{"a1", "a4", "a6"},
			scoped:  []string{"a1", "a4", "a6"},
		},
		{
			name:    "missing area matches unspecified",
			filters: FilterSet{Areas: []string{UnspecifiedArea}},
			matched: []string{"a3", "a5"},
			scoped:  []string{"a3", "a5"},
		},
		{
			name:    "risk filter drops unanswered assignments",
			filters: FilterSet{RiskLevels: []RiskLevel{RiskLow, RiskHigh}},
			matched: []string{"a1", "a2", "a6"},
			scoped:  []string{"a1", "a2", "a6"},
		},
		{
			name:    "survey filter",
			filters: FilterSet{SurveyIDs: []string{"s2"}},
			matched: []string{"a6"},
			scoped:  []string{"a6"},
		},
		{
			name: "date range keeps unanswered assignments in scope only",
			filters: FilterSet{Range: DateRange{
				From: date(t, "2024-03-01"),
				To:   date(t, "2024-03-20"),
			}},
			matched: []string{"a1", "a2", "a6"},
			scoped:  []string{"a1", "a2", "a3", "a4", "a5", "a6"},
		},
		{
			name:    "open ended range",
			filters: FilterSet{Range: DateRange{From: date(t, "2024-03-10")}},
			matched: []string{"a2", "a3"},
			scoped:  []string{"a1", "a2", "a3", "a4", "a5", "a6"},
		},
		{
			name: "inverted range matches nothing",
			filters: FilterSet{Range: DateRange{
				From: date(t, "2024-03-31"),
				To:   date(t, "2024-03-01"),
			}},
			matched: []string{},
			scoped:  []string{"a1", "a2", "a3", "a4", "a5", "a6"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(records, tc.filters)

			assert.Equal(t, tc.matched, ids(got.Matched))
			assert.Equal(t, tc.scoped, ids(got.Scoped))
			assert.Zero(t, got.Skipped)
		})
	}
}

func TestApplySkipsMalformedRecords(t *testing.T) {
	noScore := answered(t, "bad1", "u1", "A", RiskLow, 4, "2024-03-04")
	noScore.Score = nil

	outOfRange := answered(t, "bad2", "u2", "A", RiskLow, 7, "2024-03-04")

	unknownRisk := answered(t, "bad3", "u3", "A", RiskLevel("critical"), 2, "2024-03-04")

	records := []AssignmentRecord{
		noScore,
		outOfRange,
		unknownRisk,
		answered(t, "ok", "u4", "A", RiskLow, 4, "2024-03-04"),
	}

	got := Apply(records, FilterSet{})

	assert.Equal(t, 3, got.Skipped)
	assert.Equal(t, []string{"ok"}, ids(got.Matched))
	assert.Equal(t, []string{"ok"}, ids(got.Scoped))
}

func TestAvailableAreas(t *testing.T) {
	other := pending("o1", "u7", "Logistics")
	other.SurveyID = "s2"
	records := []AssignmentRecord{
		answered(t, "a1", "u1", "Sales", RiskHigh, 1, "2024-03-04"),
		pending("a2", "u2", "Finance"),
		pending("a3", "u3", "  "),
		answered(t, "a4", "u4", "Sales", RiskLow, 5, "2024-03-05"),
		other,
	}
	summary := SurveySummary{ByArea: AreaAverages{
		{Area: "Operations", Average: 3},
		{Area: "Sales", Average: 2},
	}}

	t.Run("scoped to the selected surveys", func(t *testing.T) {
		got := AvailableAreas(records, summary, []string{"s1"})
		assert.Equal(t, []string{"Finance", "Operations", "Sales", UnspecifiedArea}, got)
	})

	t.Run("every survey when none is selected", func(t *testing.T) {
		got := AvailableAreas(records, summary, nil)
		assert.Equal(t, []string{"Finance", "Logistics", "Operations", "Sales", UnspecifiedArea}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		got := AvailableAreas(nil, SurveySummary{}, nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestFilterResponses(t *testing.T) {
	when := date(t, "2024-03-05")
	late := date(t, "2024-05-01")

	assignments := []AssignmentRecord{
		answered(t, "a1", "u1", "A", RiskLow, 4, "2024-03-04"),
		answered(t, "a2", "u2", "B", RiskHigh, 1, "2024-03-04"),
	}
	responses := []ResponseRecord{
		{ID: "r1", SurveyID: "s1", UserID: "u1", Value: "4", ResponseDate: &when},
		{ID: "r2", SurveyID: "s1", UserID: "u2", Value: "2", ResponseDate: &when},
		{ID: "r3", SurveyID: "s1", UserID: "u1", Value: "often", ResponseDate: &when},
		{ID: "r4", SurveyID: "s1", UserID: "u1", Value: "3"},
		{ID: "r5", SurveyID: "s1", UserID: "u1", Value: "5", ResponseDate: &late},
	}

	t.Run("area restriction goes through the user's assignments", func(t *testing.T) {
		got := FilterResponses(responses, assignments, FilterSet{
			Areas: []string{"A"},
			Range: DateRange{From: date(t, "2024-03-01"), To: date(t, "2024-03-31")},
		})

		require.Len(t, got, 1)
		assert.Equal(t, "r1", got[0].ID)
	})

	t.Run("no restriction keeps dated numeric responses", func(t *testing.T) {
		got := FilterResponses(responses, assignments, FilterSet{})

		assert.Len(t, got, 3)
	})
}

func TestNumericValue(t *testing.T) {
	v, ok := NumericValue(" 3.5 ")
	assert.True(t, ok)
	assert.Equal(t, 3.5, v)

	_, ok = NumericValue("NaN")
	assert.False(t, ok)

	_, ok = NumericValue("")
	assert.False(t, ok)
}
