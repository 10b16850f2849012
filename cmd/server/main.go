package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hodl-digest/internal/bot"
	"hodl-digest/internal/cache"
	"hodl-digest/internal/config"
	"hodl-digest/internal/db"
	"hodl-digest/internal/handler"
	"hodl-digest/internal/job"
	"hodl-digest/internal/provider"
	"hodl-digest/internal/repository"
	"hodl-digest/internal/service"
	"hodl-digest/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "hodl-digest/docs"
)

var (
	loadEnvFunc           = godotenv.Load
	loadConfigFunc        = config.Load
	initPostgresFunc      = db.InitPostgres
	initRedisFunc         = cache.InitRedis
	initTracerFunc        = tracing.InitTracer
	newSnapshotReaderFunc = func(tracer trace.Tracer, timezone string) service.SnapshotReader {
		if db.Pool == nil {
			return nil
		}
		return repository.NewSnapshotRepository(db.Pool, tracer, timezone)
	}
	newChartRendererFunc = func(tracer trace.Tracer, baseURL string) service.ChartRenderer {
		return provider.NewQuickChartRenderer(tracer, baseURL)
	}
	newPublisherFunc = func(tracer trace.Tracer, cfg *config.Config) service.Publisher {
		return provider.NewPlanetPublisher(tracer, cfg.PlanetBaseURL, cfg.PlanetAuthBasic, cfg.PlanetID)
	}
	newReportServiceFunc   = service.NewReportService
	newDailyReportJobFunc  = job.NewDailyReportJob
	startJobFunc           = func(j *job.DailyReportJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           hodl-digest API
// @version         1.0
// @description     Daily V2EX holder digest: preview, publish and ranking endpoints.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)
	defer db.Close()
	defer cache.Close()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Without a database only /health and swagger are served.
	reader := newSnapshotReaderFunc(tracer, cfg.ReportTimezone)

	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	} else {
		redisClient = cache.NewLocal(10 * time.Minute)
	}

	if !cfg.PlanetConfigured() {
		log.Println("Warning: Planet credentials incomplete, publishing will fail")
	}

	var reports *service.ReportService
	if reader != nil {
		reports = newReportServiceFunc(
			tracer,
			reader,
			newChartRendererFunc(tracer, cfg.QuickChartBaseURL),
			newPublisherFunc(tracer, cfg),
			redisClient,
			service.ReportOptions{
				Location:       cfg.ReportLocation,
				MaxTotalPoints: cfg.ChartMaxTotalPoints,
				TopHolders:     cfg.TopHoldersLimit,
				IncludeRemoved: cfg.ReportIncludeRemoved,
				ChartCacheTTL:  cfg.ChartCacheTTL(),
			},
		)
	}

	// Telegram bot doubles as the publish notifier
	var previewer bot.DigestPreviewer
	if reports != nil {
		previewer = reports
	}
	tg := startTelegramBotFunc(cfg.TelegramBotToken, cfg.TelegramChatID, previewer)
	if tg != nil {
		defer tg.Stop()
		if reports != nil && cfg.TelegramChatID != 0 {
			reports.WithNotifier(tg)
		}
	}

	// Daily publish job (stopped by ctx cancel)
	if reports != nil {
		dailyJob := newDailyReportJobFunc(tracer, reports, cfg.ReportLocation, cfg.ReportHour, cfg.ReportMinute, cfg.RunOnStart)
		startJobFunc(dailyJob, ctx)
	} else {
		log.Println("Warning: no database, daily report job disabled")
	}

	// Create handlers and routes
	var reportsAPI handler.ReportService
	if reports != nil {
		reportsAPI = reports
	}
	h := newHandlerFunc(tracer, reportsAPI, cfg.APIKey)
	if db.Pool != nil {
		h.WithHealthCheck("postgres", func(ctx context.Context) error { return db.Pool.Ping(ctx) })
	}
	if cache.Client != nil {
		h.WithHealthCheck("redis", cache.Ping)
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName()))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
