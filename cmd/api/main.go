package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront/internal/auth"
	"github.com/noah-isme/storefront/internal/cart"
	"github.com/noah-isme/storefront/internal/catalog"
	"github.com/noah-isme/storefront/internal/common"
	"github.com/noah-isme/storefront/internal/config"
	"github.com/noah-isme/storefront/internal/health"
	"github.com/noah-isme/storefront/internal/lock"
	"github.com/noah-isme/storefront/internal/obs"
	"github.com/noah-isme/storefront/internal/profile"
	"github.com/noah-isme/storefront/internal/promo"
	"github.com/noah-isme/storefront/internal/ratelimit"
	"github.com/noah-isme/storefront/internal/resilience"
	"github.com/noah-isme/storefront/internal/security"
	"github.com/noah-isme/storefront/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	resilience.MustRegisterMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrateOnStart {
		m, err := store.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open migrator")
		}
		if err := store.MigrateUp(m); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("close migrator")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "storefront-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := store.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL).WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "catalog_cache",
		MinRequests:  10,
		FailureRatio: 0.5,
		OpenFor:      envDurationMillis("CATALOG_CACHE_BREAKER_OPEN_MS", 15000),
		Logger:       logger.With().Str("component", "catalog_cache").Logger(),
	}))
	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries:        queries,
		Cache:          catalogCache,
		HomeCategories: cfg.CatalogHomeCategories,
		FeaturedLimit:  cfg.CatalogFeaturedLimit,
		Logger:         logger.With().Str("component", "catalog").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Service: catalogService,
		MaxAge:  envDurationMillis("CATALOG_HTTP_MAX_AGE_MS", 15000),
	})

	cartService, err := cart.NewService(cart.ServiceConfig{
		Queries: queries,
		Locker:  lock.Locker{R: redisClient, RetryBackoff: cfg.CartLockRetry, MaxWait: cfg.CartLockTTL},
		LockTTL: cfg.CartLockTTL,
		Logger:  logger.With().Str("component", "cart").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise cart service")
	}
	cartHandler := cart.NewHandler(cart.HandlerConfig{Service: cartService})

	promoService, err := promo.NewService(promo.ServiceConfig{
		Queries: queries,
		Cache:   catalogCache,
		Logger:  logger.With().Str("component", "promo").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise promo service")
	}
	promoHandler := promo.NewHandler(promo.HandlerConfig{Service: promoService})

	profileService, err := profile.NewService(queries)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise profile service")
	}
	profileHandler := profile.NewHandler(profileService)

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		ClockSkew: cfg.JWTClockSkew,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise token verifier")
	}
	authMiddleware := auth.Middleware{Verifier: verifier}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	cartLimiter, err := ratelimit.New(redisClient, "ratelimit:cart", cfg.CartRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise cart rate limiter")
	}
	cartRateLimit := ratelimit.Handler{
		Limiter: cartLimiter,
		Key:     ratelimit.UserOrIP,
		OnError: func(err error) { logger.Warn().Err(err).Msg("cart rate limiter unavailable") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		EnableHSTS:      cfg.IsProduction(),
		PrivatePrefixes: []string{"/api/v1/cart", "/api/v1/profile", "/api/v1/admin"},
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("HTTP_MAX_BODY_BYTES", security.DefaultMaxBody))}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", !cfg.IsProduction())
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Probe{DB: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/categories/{category}", catalogHandler.Category)
		v.Get("/home", catalogHandler.Home)
		v.Get("/products/{id}", catalogHandler.ProductDetail)
		v.Get("/events", promoHandler.Events)
		v.Get("/banners", promoHandler.Banners)

		v.Route("/cart", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Get("/", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(cartRateLimit.Middleware)
				g.With(idem.Middleware).Post("/items", cartHandler.AddItem)
				g.Patch("/items/{itemId}", cartHandler.AdjustItem)
				g.Delete("/items/{itemId}", cartHandler.RemoveItem)
			})
		})

		v.Route("/profile", func(p chi.Router) {
			p.Use(authMiddleware.RequireAuth)
			p.Get("/", profileHandler.Get)
			p.Put("/", profileHandler.Update)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Group(func(shop chi.Router) {
				shop.Use(authMiddleware.RequireRole(common.RoleSeller, common.RoleAdmin))
				shop.Get("/event-products", promoHandler.ListEventProducts)
				shop.With(idem.Middleware).Post("/event-products", promoHandler.CreateEventProduct)
				shop.Patch("/event-products/{id}", promoHandler.UpdateEventProduct)
				shop.Delete("/event-products/{id}", promoHandler.DeleteEventProduct)
			})
			admin.Group(func(banners chi.Router) {
				banners.Use(authMiddleware.RequireRole(common.RoleAdmin))
				banners.Get("/banners", promoHandler.AllBanners)
				banners.Post("/banners", promoHandler.CreateBanner)
				banners.Patch("/banners/{id}", promoHandler.UpdateBanner)
				banners.Put("/banners/{id}/status", promoHandler.SetBannerStatus)
				banners.Delete("/banners/{id}", promoHandler.DeleteBanner)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		return common.AtoiDefault(strings.TrimSpace(val), fallback)
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
