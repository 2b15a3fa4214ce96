package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/duynhne/company-service/config"
	"github.com/duynhne/company-service/internal/core/schema"
	"github.com/duynhne/company-service/middleware"
)

func main() {
	cfg := config.Load()

	logger, err := middleware.NewLogger(cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
		logger.Fatal("Database initialization failed: DB_HOST, DB_NAME and DB_USER are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := schema.Bootstrap(ctx, cfg.Database, logger); err != nil {
		// Fatal exits with status 1.
		logger.Fatal("Database initialization failed", zap.Error(err))
	}

	logger.Info("Database initialization completed successfully")
}
