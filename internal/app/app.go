package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/godilite/wellness-insights/internal/backend"
	"github.com/godilite/wellness-insights/internal/config"
	handler "github.com/godilite/wellness-insights/internal/grpc"
	"github.com/godilite/wellness-insights/internal/httpapi"
	"github.com/godilite/wellness-insights/internal/repository"
	"github.com/godilite/wellness-insights/internal/service"
	"github.com/godilite/wellness-insights/pkg/cache"
	dbbuilder "github.com/godilite/wellness-insights/pkg/database"
	grpcsrv "github.com/godilite/wellness-insights/pkg/grpc/server"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      cache.Store
	grpcServer *grpcsrv.Server
	httpApp    *fiber.App
	httpAddr   string
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{logger: logger, httpAddr: cfg.HTTPAddr}

	source, err := a.newSource(ctx, cfg)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.cache = store

	insights := service.NewInsightsService(source, logger,
		service.WithConcurrency(cfg.FetchConcurrency),
		service.WithFetchTimeout(cfg.FetchTimeout),
	)

	grpcHandlers := handler.NewGRPCHandlers(insights, store, logger, cfg.CacheTTL)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}
	grpcServer.RegisterServiceWithHealth(handler.ServiceName, func(s *grpc.Server) {
		handler.RegisterSurveyInsightsServer(s, grpcHandlers)
	})
	a.grpcServer = grpcServer

	a.httpApp = httpapi.NewApp(httpapi.NewHandlers(insights, store, logger, cfg.CacheTTL))

	return a, nil
}

func (a *App) newSource(ctx context.Context, cfg *config.Config) (service.SurveySource, error) {
	switch cfg.Source {
	case config.SourceHTTP:
		client, err := backend.New(cfg.BackendURL,
			backend.WithToken(cfg.BackendToken),
			backend.WithAdminID(cfg.BackendAdminID),
			backend.WithLogger(a.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("backend client init failed: %w", err)
		}
		a.logger.Info("Backend client initialized", zap.String("url", cfg.BackendURL))
		return client, nil

	default:
		if err := ensureDir(cfg.DBPath); err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		dbPool, err := dbbuilder.New(ctx,
			dbbuilder.WithDriver(cfg.DBDriver),
			dbbuilder.WithDataSource(sqliteDSN(cfg.DBPath)),
			dbbuilder.WithLogger(a.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		a.dbPool = dbPool
		a.logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

		repo := repository.NewSurveyRepository(dbPool, repository.WithLogger(a.logger))
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("schema init failed: %w", err)
		}
		return repo, nil
	}
}

// ensureDir creates the parent directory of a file-backed database path.
func ensureDir(path string) error {
	if strings.HasPrefix(path, "file:") || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// sqliteDSN enables foreign keys and a busy timeout on every pooled
// connection unless the path already carries parameters.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// newStore connects to redis when configured and falls back to an
// in-process store otherwise.
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemory(), nil
	}

	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.RedisAddr),
		cache.WithKeyPrefix("wellness:"),
	)
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	return cacheClient, nil
}

// Run starts both servers and blocks until ctx is done or a shutdown signal
// is received.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.grpcServer.Start()

	httpErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", zap.String("addr", a.httpAddr))
		httpErr <- a.httpApp.Listen(a.httpAddr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-httpErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.grpcServer.SetServiceHealth(handler.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	if err := a.httpApp.ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", zap.Error(err))
	}
	if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("grpc shutdown error", zap.Error(err))
	}

	a.closeResources()

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return runErr
}

func (a *App) closeResources() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if a.dbPool != nil {
		if err := a.dbPool.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
		}
	}
}
