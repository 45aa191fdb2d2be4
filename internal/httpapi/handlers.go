package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/report"
	"github.com/godilite/wellness-insights/internal/service"
	"github.com/godilite/wellness-insights/pkg/cache"
)

const (
	defaultCacheDuration  = 10 * time.Minute
	defaultRequestTimeout = 10 * time.Second
)

const cacheKeyInsights = "http:insights"

type InsightsService interface {
	GetInsights(ctx context.Context, fs analytics.FilterSet) (analytics.Insights, error)
	ExportReport(ctx context.Context, fs analytics.FilterSet, meta report.Meta) (report.Report, error)
}

// Handlers serves the insights API over HTTP.
type Handlers struct {
	insights InsightsService
	cache    cache.Store
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
}

// NewHandlers wires the HTTP handlers. A nil store disables caching.
func NewHandlers(insights InsightsService, store cache.Store, logger *zap.Logger, ttl time.Duration) *Handlers {
	if insights == nil {
		panic("nil InsightsService provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		insights: insights,
		cache:    store,
		logger:   logger.Named("http-handler"),
		cacheTTL: ttl,
	}
}

// NewApp builds the fiber application with every route registered.
func NewApp(h *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:                  "wellness-insights",
		DisableStartupMessage:    true,
		EnableSplittingOnParsers: true,
		ErrorHandler:             h.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	h.Register(app)
	return app
}

func (h *Handlers) Register(r fiber.Router) {
	r.Get("/healthz", h.health)

	v1 := r.Group("/api/v1")
	v1.Get("/insights", h.getInsights)
	v1.Get("/reports/export.csv", h.exportReport)
}

func (h *Handlers) health(c *fiber.Ctx) error {
	return jsonOK(c, "ok", fiber.Map{"status": "serving"})
}

// validationError carries per-field validation failures to the error handler.
type validationError struct {
	fields map[string][]string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.fields))
}

func (h *Handlers) errorHandler(c *fiber.Ctx, err error) error {
	var ve *validationError
	if errors.As(err, &ve) {
		return jsonValidationError(c, ve.fields)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return jsonError(c, fe.Code, fe.Message)
	}
	h.logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	return jsonError(c, fiber.StatusInternalServerError, "")
}

func parseQuery(c *fiber.Ctx) (service.InsightsQuery, analytics.FilterSet, error) {
	var q service.InsightsQuery
	if err := c.QueryParser(&q); err != nil {
		return q, analytics.FilterSet{}, fiber.NewError(fiber.StatusBadRequest, "invalid query: "+err.Error())
	}

	fs, err := q.Filter()
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string][]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = append(fields[fe.Field()], fmt.Sprintf("failed on %q", fe.Tag()))
			}
			return q, analytics.FilterSet{}, &validationError{fields: fields}
		}
		return q, analytics.FilterSet{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, fs, nil
}

func (h *Handlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		return fiber.NewError(fiber.StatusRequestTimeout, "request canceled")
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		return fiber.NewError(fiber.StatusGatewayTimeout, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSourceFailure):
		h.logger.Error("source failure", zap.String("op", op), zap.Error(err))
		return fiber.NewError(fiber.StatusServiceUnavailable, "survey source unavailable")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, op+" failed")
	}
}

func (h *Handlers) getInsights(c *fiber.Ctx) error {
	_, fs, err := parseQuery(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultRequestTimeout)
	defer cancel()

	key := service.CacheKey(cacheKeyInsights, fs)
	opts := cache.ReadOptions{RefreshAhead: true}

	ins, err := cache.FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, opts, func(fetchCtx context.Context) (analytics.Insights, error) {
		return h.insights.GetInsights(fetchCtx, fs)
	})
	if err != nil {
		return h.handleError(ctx, "GetInsights", err)
	}
	return jsonOK(c, "insights computed", ins)
}

func (h *Handlers) exportReport(c *fiber.Ctx) error {
	q, fs, err := parseQuery(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultRequestTimeout)
	defer cancel()

	rep, err := h.insights.ExportReport(ctx, fs, q.Meta())
	if err != nil {
		return h.handleError(ctx, "ExportReport", err)
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rep); err != nil {
		return h.handleError(ctx, "ExportReport", err)
	}

	c.Attachment(report.FileName(fs.Range))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
