package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mortgage-calculator/config"
	httpLayer "mortgage-calculator/http"
	"mortgage-calculator/logger"
	"mortgage-calculator/repository"
	"mortgage-calculator/service"
	"mortgage-calculator/telemetry"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Server stopped with error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromConfig()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Otel.ServiceName, cfg.Otel.CollectorURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("Telemetry shutdown failed", err)
		}
	}()

	var cache repository.CacheRepository
	switch cfg.Cache.Driver {
	case "redis":
		redisCache, err := repository.ConnectToRedis(ctx, cfg.Redis, nil)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		cache = redisCache
	default:
		memoryCache := repository.NewMemoryCache()
		defer memoryCache.Stop()
		cache = memoryCache
	}

	mortgageService := service.NewMortgageService(cache, cfg.Cache.TTL)
	termComparisonService := service.NewTermComparisonService(mortgageService)

	limits := httpLayer.Limits{
		MaxPrincipal: decimal.NewFromFloat(cfg.Limits.MaxPrincipal),
		MaxTermYears: cfg.Limits.MaxTermYears,
	}

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Refill)
	defer rateLimiter.Stop()

	gin.SetMode(cfg.Server.GinMode)
	router := httpLayer.SetupRouter(
		httpLayer.RouterConfig{
			ServiceName:   cfg.Otel.ServiceName,
			AllowedOrigin: cfg.Server.AllowedOrigin,
		},
		httpLayer.NewMortgageHandler(mortgageService, limits),
		httpLayer.NewTermComparisonHandler(termComparisonService, limits),
		rateLimiter,
	)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Mortgage calculator listening",
			zap.String("addr", server.Addr),
			zap.String("cache", cfg.Cache.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", err)
	}

	logger.Info("Server exited")
	return nil
}
