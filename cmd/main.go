package main

import (
	"context"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/duynhne/company-service/config"
	database "github.com/duynhne/company-service/internal/core"
	"github.com/duynhne/company-service/internal/core/repository/psql"
	"github.com/duynhne/company-service/internal/core/schema"
	"github.com/duynhne/company-service/internal/core/upload"
	logicv1 "github.com/duynhne/company-service/internal/logic/v1"
	v1 "github.com/duynhne/company-service/internal/web/v1"
	"github.com/duynhne/company-service/middleware"
)

func main() {
	// Load configuration from environment variables (with .env file support for local dev)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	// Initialize structured logger
	logger, err := middleware.NewLogger(cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Service starting",
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("env", cfg.Service.Env),
		zap.String("port", cfg.Service.Port),
	)

	// Initialize OpenTelemetry tracing with centralized config
	if cfg.Tracing.Enabled {
		if err := middleware.InitTracing(cfg); err != nil {
			logger.Warn("Failed to initialize tracing", zap.Error(err))
		} else {
			logger.Info("Tracing initialized",
				zap.String("endpoint", cfg.Tracing.Endpoint),
				zap.Float64("sample_rate", cfg.Tracing.SampleRate),
			)
		}
	} else {
		logger.Info("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			logger.Warn("Failed to initialize profiling", zap.Error(err))
		} else {
			logger.Info("Profiling initialized",
				zap.String("endpoint", cfg.Profiling.Endpoint),
			)
			defer middleware.StopProfiling()
		}
	} else {
		logger.Info("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Initialize database connection pool (pgx)
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Connect(connectCtx, cfg.Database)
	cancelConnect()
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connection pool established",
		zap.Int("max_connections", cfg.Database.MaxConnections),
		zap.Duration("acquire_timeout", cfg.Database.AcquireTimeout),
	)

	if cfg.Database.AutoMigrate {
		if err := schema.EnsureSchema(context.Background(), db); err != nil {
			logger.Fatal("Failed to apply database schema", zap.Error(err))
		}
		logger.Info("Database schema applied")
	}

	if cfg.Metrics.Enabled {
		middleware.RegisterDBPoolMetrics(prometheus.DefaultRegisterer, db)
	}

	// Upload storage
	uploadsDir, err := filepath.Abs(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal("Failed to resolve uploads directory", zap.Error(err))
	}
	images, err := upload.NewStore(uploadsDir, cfg.Uploads.URLPrefix, cfg.Uploads.MaxBytes)
	if err != nil {
		logger.Fatal("Failed to prepare uploads directory", zap.Error(err))
	}
	logger.Info("Uploads directory ready", zap.String("dir", uploadsDir), zap.String("url_prefix", images.URLPrefix()))

	// Owner identity: local JWT verification when a secret is configured, else auth service introspection
	var resolver middleware.IdentityResolver
	if cfg.Auth.JWTSecret != "" {
		resolver = middleware.NewJWTVerifier(cfg.Auth.JWTSecret)
		logger.Info("Auth: verifying JWTs locally")
	} else {
		resolver = middleware.NewAuthClient(cfg.Auth.ServiceURL)
		logger.Info("Auth client initialized", zap.String("auth_service_url", cfg.Auth.ServiceURL))
	}
	if cfg.Auth.AllowUnauthenticatedFallback {
		logger.Warn("Unauthenticated fallback enabled: requests without a valid token act as owner 1")
	}

	repo := psql.NewCompanyRepository(db)
	service := logicv1.NewCompanyService(repo, images, logger)
	companyHandler := v1.NewCompanyHandler(service, v1.HandlerOptions{
		ExposeErrors:   cfg.IsDevelopment(),
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	})
	healthHandler := v1.NewHealthHandler(db, uploadsDir)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxBytes

	var isShuttingDown atomic.Bool

	// Panics become the 500 envelope
	r.Use(v1.Recovery(cfg.IsDevelopment()))

	// Tracing middleware (must be first for context propagation)
	r.Use(middleware.TracingMiddleware())

	// Logging middleware (must be before Prometheus middleware)
	r.Use(middleware.LoggingMiddleware(logger))

	// Prometheus middleware
	if cfg.Metrics.Enabled {
		r.Use(middleware.PrometheusMiddleware())
	}

	r.Use(middleware.CORSMiddleware(cfg.CORS))
	// promhttp gzips /metrics itself
	r.Use(middleware.Compression(images.URLPrefix(), cfg.Metrics.Path))
	r.Use(middleware.SecurityHeaders())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started or the database stops answering.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Uploaded images
	r.Static(images.URLPrefix(), uploadsDir)

	v1.RegisterRoutes(r, companyHandler, healthHandler,
		middleware.OwnerAuth(resolver, logger, cfg.Auth.AllowUnauthenticatedFallback))
	r.NoRoute(v1.NotFound)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting company service", zap.String("port", cfg.Service.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown - modern signal handling with context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Fail readiness first and wait for propagation
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		logger.Info("Readiness drain delay started", zap.Duration("delay", drainDelay))
		time.Sleep(drainDelay)
		logger.Info("Readiness drain delay completed", zap.Duration("delay", drainDelay))
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...", zap.Duration("timeout", shutdownTimeout))

	// Explicit cleanup sequence: HTTP Server → Database → Tracer

	// 1. Shutdown HTTP server (stop accepting new connections, wait for in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		logger.Info("HTTP server shutdown complete")
	}

	// 2. Close database connections (explicit cleanup + defer for safety)
	db.Close()
	logger.Info("Database pool closed")

	// 3. Shutdown tracer (flush pending spans)
	if err := middleware.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown error", zap.Error(err))
	} else if cfg.Tracing.Enabled {
		logger.Info("Tracer shutdown complete")
	}

	logger.Info("Graceful shutdown complete")
}
