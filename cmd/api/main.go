package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/childcare-site/cmd/mainconfig"
	"github.com/wolfman30/childcare-site/internal/api/router"
	"github.com/wolfman30/childcare-site/internal/app/bootstrap"
	appconfig "github.com/wolfman30/childcare-site/internal/config"
	"github.com/wolfman30/childcare-site/internal/documents"
	"github.com/wolfman30/childcare-site/internal/features"
	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/internal/notify"
	"github.com/wolfman30/childcare-site/internal/observability/metrics"
	"github.com/wolfman30/childcare-site/internal/pages"
	"github.com/wolfman30/childcare-site/internal/referrals"
	"github.com/wolfman30/childcare-site/internal/submissions"
	"github.com/wolfman30/childcare-site/internal/weather"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting childcare-site API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	handler, cleanup, err := buildHandler(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildHandler wires every dependency named by cfg. Missing infrastructure
// degrades to in-memory implementations so the site still runs locally.
func buildHandler(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
	}

	healthChecks := map[string]router.HealthCheck{}

	pool := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		closers = append(closers, pool.Close)
		healthChecks["postgres"] = pool.Ping
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	metricsHandler, formMetrics := setupMetrics()
	location := bootstrap.LoadLocation(cfg.BusinessTimezone, logger)
	stores := bootstrap.BuildStores(pool, cfg, logger)
	formLimiter, apiLimiter := bootstrap.BuildLimiters(redisClient, cfg, logger)

	sender, provider, reason := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if reason != "" {
		logger.Warn("email provider fallback", "preferred", cfg.EmailProvider, "using", provider, "reason", reason)
	}
	notifier := notify.NewNotifier(sender, notify.Config{
		StaffEmail: cfg.StaffNotificationEmail,
		SiteName:   cfg.EmailFromName,
		Timeout:    cfg.NotifyTimeout,
		Location:   location,
		Metrics:    formMetrics,
	}, logger)

	service, err := submissions.NewService(submissions.Config{
		Validator: submissions.NewValidator(submissions.WithLocation(location)),
		Limiter:   formLimiter,
		Store:     stores.Submissions,
		Notifier:  notifier,
		Retry: submissions.RetryPolicy{
			MaxAttempts: cfg.PersistMaxAttempts,
			Delay:       cfg.PersistRetryDelay,
			Retryable:   submissions.IsTransient,
		},
		StoreTimeout:  cfg.StoreTimeout,
		DefaultLocale: cfg.DefaultLocale,
		Logger:        logger,
		Metrics:       formMetrics,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("form service: %w", err)
	}

	resolver := locale.NewResolver(cfg.DefaultLocale)
	weatherCache := weather.NewCache[*weather.Report](cfg.WeatherCacheTTL, nil)
	closers = append(closers, weatherCache.Close)
	flags := features.FromConfig(cfg)

	logger.Info("components ready",
		"store", stores.Backend,
		"redis", redisClient != nil,
		"email", provider,
		"features", flags.Active(),
	)

	handler := router.New(&router.Config{
		Logger:             logger,
		Metrics:            formMetrics,
		Submissions:        submissions.NewHandler(service, stores.Reader, resolver, logger),
		Weather:            weather.NewHandler(weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, logger), weatherCache, logger),
		Documents:          documents.NewHandler(bootstrap.BuildDocumentStorage(cfg, awsCfg), cfg.DocumentsMaxBytes, logger),
		Referrals:          referrals.NewHandler(stores.Referrals, logger),
		Pages:              pages.NewHandler(cfg.EmailFromName, logger),
		Features:           flags,
		Resolver:           resolver,
		SecureCookie:       cfg.IsProduction(),
		APILimiter:         apiLimiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       healthChecks,
	})
	return handler, cleanup, nil
}

func setupMetrics() (http.Handler, *metrics.FormMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	formMetrics := metrics.NewFormMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), formMetrics
}
