package service

import (
	"context"

	"github.com/godilite/wellness-insights/internal/analytics"
)

// SurveySource defines the record lookups the service fans out over.
type SurveySource interface {
	ListActiveSurveys(ctx context.Context) ([]analytics.Survey, error)
	ListAssignments(ctx context.Context, surveyID string) ([]analytics.AssignmentRecord, error)
	ListResponses(ctx context.Context, surveyID string) ([]analytics.ResponseRecord, error)
	GetSummary(ctx context.Context, surveyID string) (analytics.SurveySummary, error)
}
