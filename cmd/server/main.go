// Command server serves wellness survey insights over gRPC and HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/godilite/wellness-insights/internal/app"
	"github.com/godilite/wellness-insights/internal/config"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// A missing env file is fine; the process environment still applies.
	_ = godotenv.Load(envFile)

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger = logger.Named("wellness-insights")
	logger.Info("starting",
		zap.String("env", cfg.AppEnv),
		zap.String("source", cfg.Source),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("redis", cfg.RedisAddr != ""),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	ctx := context.Background()
	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build insights server", zap.String("source", cfg.Source), zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal("insights server stopped with error", zap.Error(err))
	}
	logger.Info("stopped")
}
