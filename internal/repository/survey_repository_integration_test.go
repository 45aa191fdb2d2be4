package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/repository"
	"github.com/godilite/wellness-insights/pkg/database"
)

func setupTestRepo(t *testing.T) (*repository.SurveyRepository, *sql.DB) {
	t.Helper()

	db, err := database.New(context.Background(),
		database.WithDataSource(":memory:"),
		database.WithMaxOpenConns(1),
		database.WithInitStatements(database.SQLitePragmas...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSurveyRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo, db
}

func answered(id, survey, user, area string, risk analytics.RiskLevel, score float64, when time.Time) analytics.AssignmentRecord {
	return analytics.AssignmentRecord{
		ID: id, SurveyID: survey, UserID: user, UserName: "User " + user, Area: area,
		RiskLevel: risk, Score: &score, ResponseDate: &when,
	}
}

func seedTestData(t *testing.T, repo *repository.SurveyRepository, base time.Time) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.SaveSurvey(ctx, analytics.Survey{ID: "s1", Title: "March pulse", Active: true}))
	require.NoError(t, repo.SaveSurvey(ctx, analytics.Survey{ID: "s2", Title: "Archived", Active: false}))

	require.NoError(t, repo.SaveAssignments(ctx,
		answered("a1", "s1", "u1", "Nursing", analytics.RiskLow, 4, base),
		answered("a2", "s1", "u2", "Nursing", analytics.RiskHigh, 2, base.Add(24*time.Hour)),
		answered("a3", "s1", "u3", "", analytics.RiskMedium, 3, base.Add(48*time.Hour)),
		analytics.AssignmentRecord{ID: "a4", SurveyID: "s1", UserID: "u4", Area: "Admin"},
		answered("a5", "s2", "u1", "Nursing", analytics.RiskLow, 5, base),
	))

	require.NoError(t, repo.SaveResponses(ctx,
		analytics.ResponseRecord{ID: "r1", SurveyID: "s1", UserID: "u1", QuestionID: "q1", Value: "4", ResponseDate: &base},
		analytics.ResponseRecord{ID: "r2", SurveyID: "s1", UserID: "u2", QuestionID: "q1", Value: "n/a"},
	))
}

func TestSurveyRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupTestRepo(t)

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	seedTestData(t, repo, base)

	t.Run("ListActiveSurveys", func(t *testing.T) {
		surveys, err := repo.ListActiveSurveys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []analytics.Survey{{ID: "s1", Title: "March pulse", Active: true}}, surveys)
	})

	t.Run("ListAssignments", func(t *testing.T) {
		records, err := repo.ListAssignments(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, 4)

		assert.Equal(t, "a1", records[0].ID)
		require.NotNil(t, records[0].ResponseDate)
		assert.True(t, base.Equal(*records[0].ResponseDate))
		assert.Equal(t, 4.0, *records[0].Score)
		assert.Equal(t, analytics.RiskLow, records[0].RiskLevel)

		assert.False(t, records[3].Answered())
		assert.Nil(t, records[3].Score)
		assert.NoError(t, records[3].Validate())
	})

	t.Run("ListResponses", func(t *testing.T) {
		records, err := repo.ListResponses(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "4", records[0].Value)
		assert.Nil(t, records[1].ResponseDate)
	})

	t.Run("GetSummary", func(t *testing.T) {
		summary, err := repo.GetSummary(ctx, "s1")
		require.NoError(t, err)

		assert.Equal(t, "s1", summary.SurveyID)
		assert.Equal(t, 4, summary.Assigned)
		assert.Equal(t, 3, summary.Responded)
		assert.InDelta(t, 3.0, summary.OverallAverage, 1e-9)
		assert.Equal(t, analytics.Distribution{Low: 1, Medium: 1, High: 1}, summary.Distribution)
		assert.Equal(t, 75, summary.Participation())
		assert.NoError(t, summary.Validate())
		assert.Equal(t, analytics.AreaAverages{
			{Area: "Nursing", Average: 3, Responded: 2},
			{Area: analytics.UnspecifiedArea, Average: 3, Responded: 1},
		}, summary.ByArea)
	})

	t.Run("GetSummary of unknown survey is empty", func(t *testing.T) {
		summary, err := repo.GetSummary(ctx, "missing")
		require.NoError(t, err)

		assert.Zero(t, summary.Assigned)
		assert.Zero(t, summary.OverallAverage)
		assert.Equal(t, analytics.AreaAverages{}, summary.ByArea)
	})

	t.Run("SaveAssignments rejects malformed records", func(t *testing.T) {
		bad := analytics.AssignmentRecord{ID: "x", SurveyID: "s1", UserID: "u9", RiskLevel: analytics.RiskHigh}

		err := repo.SaveAssignments(ctx, bad)

		assert.ErrorIs(t, err, analytics.ErrMalformedRecord)
	})

	t.Run("foreign keys are enforced", func(t *testing.T) {
		err := repo.SaveAssignments(ctx, analytics.AssignmentRecord{ID: "x", SurveyID: "nope", UserID: "u9"})

		assert.ErrorContains(t, err, "exec SaveAssignments")
		records, listErr := repo.ListAssignments(ctx, "nope")
		require.NoError(t, listErr)
		assert.Empty(t, records)
	})
}

func TestSurveyRepository_MalformedTimestamp(t *testing.T) {
	ctx := context.Background()
	repo, db := setupTestRepo(t)

	require.NoError(t, repo.SaveSurvey(ctx, analytics.Survey{ID: "s1", Title: "Pulse", Active: true}))
	require.NoError(t, repo.SaveAssignments(ctx,
		answered("a1", "s1", "u1", "Nursing", analytics.RiskLow, 4, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)),
	))
	_, err := db.ExecContext(ctx, `
		INSERT INTO assignments (id, survey_id, user_id, area, risk_level, score, responded_at)
		VALUES ('a2', 's1', 'u2', 'Nursing', 'high', 1.5, '04/03/2024'),
		       ('a3', 's1', 'u3', 'Nursing', 'medium', 3, '2024-03-05T09:00:00')`)
	require.NoError(t, err)

	records, err := repo.ListAssignments(ctx, "s1")

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Nil(t, records[1].ResponseDate)
	require.NotNil(t, records[2].ResponseDate)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), *records[2].ResponseDate)

	filtered := analytics.Apply(records, analytics.FilterSet{})
	assert.Len(t, filtered.Matched, 2)
	assert.Equal(t, 1, filtered.Skipped)
}
