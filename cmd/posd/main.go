package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kasir-pos/internal/cart"
	"github.com/noah-isme/kasir-pos/internal/catalog"
	"github.com/noah-isme/kasir-pos/internal/checkout"
	"github.com/noah-isme/kasir-pos/internal/config"
	"github.com/noah-isme/kasir-pos/internal/coupon"
	"github.com/noah-isme/kasir-pos/internal/credit"
	"github.com/noah-isme/kasir-pos/internal/events"
	"github.com/noah-isme/kasir-pos/internal/health"
	"github.com/noah-isme/kasir-pos/internal/obs"
	"github.com/noah-isme/kasir-pos/internal/ratelimit"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics("pos", nil)
	httpMetrics := obs.NewHTTPMetrics("pos", obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	catalogClient := &catalog.Client{
		BaseURL:  cfg.CatalogBaseURL,
		HTTP:     upstreamClient(cfg, logger, "catalog"),
		Cache:    catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Validate: validate,
		Logger:   logger,
	}
	fetcher := catalog.NewFetcher(catalogClient)

	couponClient := &coupon.Client{
		BaseURL:  cfg.CouponBaseURL,
		HTTP:     upstreamClient(cfg, logger, "coupon"),
		Validate: validate,
	}
	creditClient := &credit.Client{
		BaseURL: cfg.CreditBaseURL,
		HTTP:    upstreamClient(cfg, logger, "credit"),
	}

	bus := &events.Bus{Notifiers: []events.Notifier{obs.EventMetricsNotifier{}}}

	registry := cart.NewRegistry(nil)
	cartHandler := &cart.Handler{
		Registry: registry,
		Catalog:  fetcher,
		Coupons:  couponClient,
		Credit:   creditClient,
		Validate: validate,
		Bus:      bus,
		Currency: cfg.Currency,
	}

	checkoutHandler := &checkout.Handler{
		Svc: &checkout.Service{
			Submitter: &checkout.HTTPSubmitter{
				BaseURL: cfg.OrdersBaseURL,
				HTTP:    upstreamClient(cfg, logger, "orders"),
			},
			Events:   bus,
			Currency: cfg.Currency,
		},
		Registry: registry,
	}

	limiter, err := ratelimit.New(redisClient, cfg.RateLimit, "pos:ratelimit:")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rateLimiter := ratelimit.Handler{
		Limiter: limiter,
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limit store") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker: readinessChecker{redis: redisClient, catalogURL: cfg.CatalogBaseURL},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rateLimiter.Middleware)
		cartHandler.Routes(v)
		checkoutHandler.Routes(v)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	health.SetReady(false)
	fetcher.Cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
}

func upstreamClient(cfg *config.Config, logger zerolog.Logger, target string) resilience.HTTPClient {
	breaker := resilience.NewBreaker(10, 0.5, 30*time.Second).
		WithTarget(target).
		WithLogger(logger)
	return resilience.HTTPClient{
		Client:      &http.Client{},
		Breaker:     breaker,
		BaseBackoff: 100 * time.Millisecond,
		MaxAttempts: 3,
		Jitter:      0.2,
		Timeout:     cfg.UpstreamTimeout,
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis      *redis.Client
	catalogURL string
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func (c readinessChecker) PingCatalog(ctx context.Context, timeout time.Duration) error {
	if c.catalogURL == "" {
		return errors.New("catalog not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.catalogURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
