package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/report"
	"github.com/godilite/wellness-insights/internal/service"
	"github.com/godilite/wellness-insights/pkg/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
)

const cacheKeyInsights = "grpc:insights"

// ExportResponse is the document returned by ExportReport.
type ExportResponse struct {
	Report   report.Report `json:"report"`
	FileName string        `json:"fileName"`
	CSV      string        `json:"csv"`
}

type GRPCHandlers struct {
	insights InsightsService
	cache    Cacher
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
}

var _ SurveyInsightsServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers. A nil cache disables caching.
func NewGRPCHandlers(insights InsightsService, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if insights == nil {
		panic("nil InsightsService provided to NewGRPCHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandlers{
		insights: insights,
		cache:    cache,
		logger:   logger.Named("grpc-handler"),
		cacheTTL: ttl,
	}
}

func (s *GRPCHandlers) parseRequest(req *structpb.Struct) (service.InsightsQuery, analytics.FilterSet, error) {
	var q service.InsightsQuery
	if err := fromStruct(req, &q); err != nil {
		return q, analytics.FilterSet{}, status.Error(codes.InvalidArgument, err.Error())
	}
	fs, err := q.Filter()
	if err != nil {
		return q, analytics.FilterSet{}, status.Error(codes.InvalidArgument, err.Error())
	}
	return q, fs, nil
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		s.logger.Info("invalid filter", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrSourceFailure):
		s.logger.Error("source failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, "survey source unavailable")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) GetInsights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, fs, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	key := service.CacheKey(cacheKeyInsights, fs)
	opts := cache.ReadOptions{RefreshAhead: true}

	ins, err := cache.FindAndCache(ctx, s.cache, &s.sfGroup, key, s.cacheTTL, s.logger, opts, func(fetchCtx context.Context) (analytics.Insights, error) {
		return s.insights.GetInsights(fetchCtx, fs)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetInsights", err)
	}

	out, err := toStruct(ins)
	if err != nil {
		return nil, s.handleError(ctx, "GetInsights", err)
	}
	return out, nil
}

func (s *GRPCHandlers) ExportReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	q, fs, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	rep, err := s.insights.ExportReport(ctx, fs, q.Meta())
	if err != nil {
		return nil, s.handleError(ctx, "ExportReport", err)
	}

	body, err := report.CSV(rep)
	if err != nil {
		return nil, s.handleError(ctx, "ExportReport", err)
	}

	out, err := toStruct(ExportResponse{
		Report:   rep,
		FileName: report.FileName(fs.Range),
		CSV:      string(body),
	})
	if err != nil {
		return nil, s.handleError(ctx, "ExportReport", err)
	}
	return out, nil
}
