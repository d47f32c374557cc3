package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/leadbridge/marketplace/backend/internal/cache"
	"github.com/leadbridge/marketplace/backend/internal/config"
	"github.com/leadbridge/marketplace/backend/internal/database"
	"github.com/leadbridge/marketplace/backend/internal/handlers"
	"github.com/leadbridge/marketplace/backend/internal/logger"
	"github.com/leadbridge/marketplace/backend/internal/metrics"
	"github.com/leadbridge/marketplace/backend/internal/middleware"
	"github.com/leadbridge/marketplace/backend/internal/repository"
	"github.com/leadbridge/marketplace/backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "leadbridge-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not up yet
		_, _ = os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()

	logger.Log.Info("Leadbridge server starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}

	if err := database.Initialize(cfg); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer func() { _ = database.Close() }()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	m := metrics.Initialize()
	h := handlers.NewHandlers(repository.NewLeadRepository(database.DB), m)
	h.AddHealthCheck(handlers.HealthCheck{
		Name:     "database",
		Required: true,
		Check:    func(ctx context.Context) error { return database.Health() },
	})

	if cfg.RedisEnabled() {
		redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, views will not be deduplicated", err)
		} else {
			defer func() { _ = redisClient.Close() }()
			if cfg.ViewDedupeWindow > 0 {
				h.SetViewDeduper(cache.NewRedisViewDeduper(redisClient, cfg.ViewDedupeWindow))
			}
			h.AddHealthCheck(handlers.HealthCheck{Name: "redis", Check: redisClient.Ping})
		}
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.SessionIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(m))
	r.Use(middleware.TracingMiddleware(serviceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, middleware.RequestIDHeader, middleware.SessionIDHeader)
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limits := middleware.RateLimitConfig{Limit: cfg.RateLimitRequests, Window: cfg.RateLimitWindow}
	localLimiter := middleware.NewRateLimiter(limits)

	api := r.Group("/api/v1")
	h.RegisterLeadRoutes(api, middleware.RedisRateLimitMiddleware(limits, localLimiter, m))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepRateLimiter(ctx, localLimiter, cfg.RateLimitWindow)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.WarnWithFields("Failed to flush traces", err)
		}
	}

	logger.Log.Info("Server exited")
}

// sweepRateLimiter drops idle client buckets once per window
func sweepRateLimiter(ctx context.Context, rl *middleware.RateLimiter, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				logger.DebugWithFields("Swept idle rate limit buckets", zap.Int("removed", n))
			}
		}
	}
}
