package mocks

import (
	"context"
	"errors"

	"github.com/godilite/wellness-insights/internal/analytics"
)

// MockSurveySource is a mock implementation of the SurveySource interface
// for testing the service layer.
type MockSurveySource struct {
	ListActiveSurveysFunc func(ctx context.Context) ([]analytics.Survey, error)
	ListAssignmentsFunc   func(ctx context.Context, surveyID string) ([]analytics.AssignmentRecord, error)
	ListResponsesFunc     func(ctx context.Context, surveyID string) ([]analytics.ResponseRecord, error)
	GetSummaryFunc        func(ctx context.Context, surveyID string) (analytics.SurveySummary, error)
}

// ListActiveSurveys implements the SurveySource interface
func (m *MockSurveySource) ListActiveSurveys(ctx context.Context) ([]analytics.Survey, error) {
	if m.ListActiveSurveysFunc != nil {
		return m.ListActiveSurveysFunc(ctx)
	}
	return nil, errors.New("ListActiveSurveysFunc not implemented")
}

// ListAssignments implements the SurveySource interface
func (m *MockSurveySource) ListAssignments(ctx context.Context, surveyID string) ([]analytics.AssignmentRecord, error) {
	if m.ListAssignmentsFunc != nil {
		return m.ListAssignmentsFunc(ctx, surveyID)
	}
	return nil, errors.New("ListAssignmentsFunc not implemented")
}

// ListResponses implements the SurveySource interface
func (m *MockSurveySource) ListResponses(ctx context.Context, surveyID string) ([]analytics.ResponseRecord, error) {
	if m.ListResponsesFunc != nil {
		return m.ListResponsesFunc(ctx, surveyID)
	}
	return nil, errors.New("ListResponsesFunc not implemented")
}

// GetSummary implements the SurveySource interface
func (m *MockSurveySource) GetSummary(ctx context.Context, surveyID string) (analytics.SurveySummary, error) {
	if m.GetSummaryFunc != nil {
		return m.GetSummaryFunc(ctx, surveyID)
	}
	return analytics.SurveySummary{}, errors.New("GetSummaryFunc not implemented")
}
