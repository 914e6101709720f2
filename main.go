package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"propinsight/internal/config"
	"propinsight/internal/db"
	"propinsight/internal/http/handlers"
	appmw "propinsight/internal/http/middleware"
	"propinsight/internal/insight"
	"propinsight/internal/logging"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Caller: cfg.LogCaller})
	logging.Debug().
		Dur("query_timeout", cfg.QueryTimeout).
		Dur("ai_timeout", cfg.AITimeout).
		Strs("cors_origins", cfg.CORSAllowedOrigins).
		Dur("overview_refresh", cfg.OverviewRefreshInterval).
		Msg("configuration loaded")

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.EnsureAreaOverviewView(ctx, sqlDB); err != nil {
		logging.Warn().Err(err).Msg("area overview view unavailable, /api/get-area-overview will fail")
	} else {
		db.StartOverviewRefreshWorker(ctx, sqlDB, cfg.OverviewRefreshInterval)
	}

	store := db.NewStore(sqlDB)
	ai := insight.New(insight.Config{
		URL:             cfg.AIInsightURL,
		Timeout:         cfg.AITimeout,
		MaxRetries:      cfg.AIMaxRetries,
		RetryWait:       cfg.AIRetryWait,
		BreakerFailures: cfg.AIBreakerFailures,
		BreakerCooldown: cfg.AIBreakerCooldown,
	})

	handlers.InitPrometheusMetrics()

	r := router.New()
	r.SaveMatchedRoutePath = true

	r.GET("/healthz", handlers.Healthz())
	r.GET("/readyz", handlers.Readyz(func(ctx context.Context) error { return db.Ping(ctx, sqlDB) }))
	r.GET("/metrics", handlers.PrometheusMetrics(prometheus.DefaultGatherer))

	api := r.Group("/api")
	api.GET("/areas", handlers.Areas(store, cfg))
	api.GET("/areas-rental-yield", handlers.AreasRentalYield(store, cfg))
	api.GET("/areas-price-growth-vacancy-risk", handlers.AreasPriceGrowthVacancy(store, cfg))
	api.GET("/areas-transactions-total-value", handlers.AreasTransactionTotals(store, cfg))
	api.GET("/get-top-projects", handlers.TopProjects(store, cfg))
	api.GET("/get-top-rent-projects", handlers.TopRentProjects(store, cfg))
	api.GET("/get-area-overview", handlers.AreaOverview(store, cfg))
	api.GET("/get-rent-to-price-ratio", handlers.RentToPriceRatio(store, ai, cfg))
	api.GET("/get-villa-apartment-price-change-per-sqft", handlers.PriceChangePerSqft(store, cfg))
	api.GET("/get-villa-apartment-price-each-bed-room-number", handlers.PricePerBedroom(store, cfg))
	api.GET("/get-rental-yield", handlers.RentalYield(store, cfg))
	api.GET("/investment-score", handlers.InvestmentScore(store, ai, cfg))

	// Request id first so the logger and every handler see it.
	handler := appmw.RequestID(handlers.RequestLogger(appmw.CORS(cfg.CORSAllowedOrigins)(r.Handler)))

	srv := &fasthttp.Server{
		Handler:      handler,
		Name:         "propinsight",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.QueryTimeout + cfg.AITimeout + 5*time.Second,
	}

	go func() {
		<-ctx.Done()
		logging.Info().Msg("shutting down")
		if err := srv.Shutdown(); err != nil {
			logging.Error().Err(err).Msg("shutdown")
		}
	}()

	logging.Info().Str("addr", cfg.ListenAddr).Msg("propinsight listening")
	if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
		logging.Fatal().Err(err).Msg("server error")
	}
	closeDB(sqlDB)
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logging.Warn().Err(err).Msg("close database")
	}
}
