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
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pos/internal/campaign"
	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/currency"
	"github.com/noah-isme/backend-pos/internal/health"
	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/ratelimit"
	"github.com/noah-isme/backend-pos/internal/receipt"
	"github.com/noah-isme/backend-pos/internal/resilience"
	"github.com/noah-isme/backend-pos/internal/security"
	"github.com/noah-isme/backend-pos/internal/shift"
	"github.com/noah-isme/backend-pos/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pos")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pos-api",
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
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if envBool("MIGRATE_ON_START", true) {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "pos-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

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

	products := store.NewProducts(pool)
	shifts := store.NewShifts(pool)
	receipts := store.NewReceipts(pool)
	receiptItems := store.NewReceiptItems(pool)
	productDiscounts := store.NewProductDiscounts(pool)
	receiptDiscounts := store.NewReceiptDiscounts(pool)
	combos := store.NewCombos(pool)
	comboItems := store.NewComboItems(pool)
	buyNGetNs := store.NewBuyNGetNs(pool)
	paidReceipts := store.NewPaidReceipts(pool)

	validate := validator.New()

	catalogSvc := &catalog.Service{
		Products: products,
		Cache:    catalog.NewCache(redisClient, cfg.ProductsCacheTTL),
		Log:      logger,
	}
	catalogHandler := &catalog.Handler{Service: catalogSvc, Validate: validate}

	shiftSvc := &shift.Service{Shifts: shifts}

	campaignSvc := &campaign.Service{
		Products:         products,
		ProductDiscounts: productDiscounts,
		ReceiptDiscounts: receiptDiscounts,
		Combos:           combos,
		ComboItems:       comboItems,
		BuyNGetNs:        buyNGetNs,
	}
	campaignHandler := &campaign.Handler{Service: campaignSvc, Validate: validate}

	currencyHTTP := resilience.HTTPClient{
		Client:      &http.Client{Timeout: cfg.CurrencyTimeout},
		Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second),
		MaxAttempts: 3,
		BaseBackoff: 100 * time.Millisecond,
		Jitter:      0.2,
	}
	var rateSource currency.RateSource
	switch provider := envOrDefault("CURRENCY_PROVIDER", "awesome"); provider {
	case "exchangerate":
		rateSource = currency.ExchangeRateClient{HTTP: currencyHTTP, BaseURL: cfg.CurrencyAPIURL}
	case "awesome":
		rateSource = currency.AwesomeClient{HTTP: currencyHTTP, BaseURL: cfg.CurrencyAPIURL}
	default:
		logger.Fatal().Str("provider", provider).Msg("unknown currency provider")
	}
	converter := currency.Service{
		Source:   rateSource,
		Cache:    redisClient,
		CacheTTL: cfg.CurrencyCacheTTL,
		Log:      logger,
	}

	receiptSvc := &receipt.Service{
		Receipts:     receipts,
		Items:        receiptItems,
		Shifts:       shifts,
		Products:     products,
		PaidReceipts: paidReceipts,
		Chain: pricing.Builder{
			ReceiptDiscounts: receiptDiscounts,
			ProductDiscounts: productDiscounts,
			Combos:           combos,
			ComboItems:       comboItems,
			BuyNGetNs:        buyNGetNs,
		},
		Locks:        lock.Locker{R: redisClient},
		LockTTL:      cfg.ReceiptLockTTL,
		Convert:      converter,
		BaseCurrency: cfg.BaseCurrency,
		Quote:        cfg.QuoteCurrencies,
	}
	receiptHandler := &receipt.Handler{Service: receiptSvc, Validate: validate}
	shiftHandler := &shift.Handler{Service: shiftSvc, ReceiptService: receiptSvc}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:pos"},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitRequests,
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(limiter.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/products", func(p chi.Router) {
			p.Post("/", catalogHandler.Create)
			p.Get("/", catalogHandler.List)
			p.Get("/{id}", catalogHandler.Get)
			p.Patch("/{id}", catalogHandler.Update)
		})

		v.Route("/shifts", func(sh chi.Router) {
			sh.Post("/", shiftHandler.Open)
			sh.Get("/", shiftHandler.List)
			sh.Get("/{id}", shiftHandler.Get)
			sh.Patch("/{id}", shiftHandler.Update)
			sh.Get("/{id}/receipts", shiftHandler.Receipts)
		})

		v.Route("/receipts", func(rc chi.Router) {
			rc.Post("/", receiptHandler.Create)
			rc.Get("/", receiptHandler.List)
			rc.Get("/{id}", receiptHandler.Get)
			rc.Post("/{id}/products", receiptHandler.AddItem)
			rc.Delete("/{id}/products/{productID}", receiptHandler.RemoveItem)
			rc.Get("/{id}/quotes", receiptHandler.Quotes)
			rc.Get("/{id}/discount", receiptHandler.Discount)
			idem := common.Idem{R: redisClient, TTL: 24 * time.Hour}
			rc.With(idem.Middleware).Post("/{id}/payments", receiptHandler.Pay)
		})

		v.Route("/campaigns", func(c chi.Router) {
			c.Route("/product-discounts", func(g chi.Router) {
				g.Post("/", campaignHandler.CreateProductDiscount)
				g.Get("/", campaignHandler.ListProductDiscounts)
				g.Get("/{id}", campaignHandler.GetProductDiscount)
				g.Delete("/{id}", campaignHandler.DeleteProductDiscount)
			})
			c.Route("/receipt-discounts", func(g chi.Router) {
				g.Post("/", campaignHandler.CreateReceiptDiscount)
				g.Get("/", campaignHandler.ListReceiptDiscounts)
				g.Get("/{id}", campaignHandler.GetReceiptDiscount)
				g.Delete("/{id}", campaignHandler.DeleteReceiptDiscount)
			})
			c.Route("/combos", func(g chi.Router) {
				g.Post("/", campaignHandler.CreateCombo)
				g.Get("/", campaignHandler.ListCombos)
				g.Get("/{id}", campaignHandler.GetCombo)
				g.Delete("/{id}", campaignHandler.DeleteCombo)
			})
			c.Route("/buy-n-get-ns", func(g chi.Router) {
				g.Post("/", campaignHandler.CreateBuyNGetN)
				g.Get("/", campaignHandler.ListBuyNGetNs)
				g.Get("/{id}", campaignHandler.GetBuyNGetN)
				g.Delete("/{id}", campaignHandler.DeleteBuyNGetN)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	health.SetReady(true)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		health.SetReady(false)
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
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
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
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
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
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
