package mocks

import (
	"context"
	"errors"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/report"
)

// MockInsightsService is a mock implementation of the InsightsService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockInsightsService struct {
	GetInsightsFunc  func(ctx context.Context, fs analytics.FilterSet) (analytics.Insights, error)
	ExportReportFunc func(ctx context.Context, fs analytics.FilterSet, meta report.Meta) (report.Report, error)
}

// GetInsights implements the InsightsService interface
func (m *MockInsightsService) GetInsights(ctx context.Context, fs analytics.FilterSet) (analytics.Insights, error) {
	if m.GetInsightsFunc != nil {
		return m.GetInsightsFunc(ctx, fs)
	}
	return analytics.Insights{}, errors.New("GetInsightsFunc not implemented")
}

// ExportReport implements the InsightsService interface
func (m *MockInsightsService) ExportReport(ctx context.Context, fs analytics.FilterSet, meta report.Meta) (report.Report, error) {
	if m.ExportReportFunc != nil {
		return m.ExportReportFunc(ctx, fs, meta)
	}
	return report.Report{}, errors.New("ExportReportFunc not implemented")
}
