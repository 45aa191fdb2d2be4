package grpc

import (
	"context"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/report"
	"github.com/godilite/wellness-insights/pkg/cache"
)

// Cacher defines the interface for cache operations.
type Cacher = cache.Store

type InsightsService interface {
	GetInsights(ctx context.Context, fs analytics.FilterSet) (analytics.Insights, error)
	ExportReport(ctx context.Context, fs analytics.FilterSet, meta report.Meta) (report.Report, error)
}
