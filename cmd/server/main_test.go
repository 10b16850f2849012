package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hodl-digest/internal/bot"
	"hodl-digest/internal/chart"
	"hodl-digest/internal/config"
	"hodl-digest/internal/domain"
	"hodl-digest/internal/job"
	"hodl-digest/internal/service"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type bootstrap struct {
	router     *gin.Engine
	jobStarted bool
	botToken   string
}

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	state := &bootstrap{}
	restore := stubServerDeps(state, stubReader{})
	defer restore()

	runMain(t)

	if !state.jobStarted {
		t.Fatal("daily report job should start when a reader exists")
	}
	if state.botToken != "tg-token" {
		t.Fatalf("telegram token not forwarded: %q", state.botToken)
	}

	w := httptest.NewRecorder()
	state.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/holders?limit=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected holders to be served, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	state.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", w.Code)
	}
}

func TestMainBootstrapWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	state := &bootstrap{}
	restore := stubServerDeps(state, nil)
	defer restore()

	runMain(t)

	if state.jobStarted {
		t.Fatal("job must not start without a reader")
	}
	w := httptest.NewRecorder()
	state.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/report/preview", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a database, got %d", w.Code)
	}
}

func runMain(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps(state *bootstrap, reader service.SnapshotReader) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewReader := newSnapshotReaderFunc
	origNewCharts := newChartRendererFunc
	origNewPublisher := newPublisherFunc
	origStartJob := startJobFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			HTTPPort:         8080,
			ReportTimezone:   "UTC",
			ReportLocation:   time.UTC,
			ReportHour:       23,
			ReportMinute:     58,
			TelegramBotToken: "tg-token",
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newSnapshotReaderFunc = func(trace.Tracer, string) service.SnapshotReader { return reader }
	newChartRendererFunc = func(trace.Tracer, string) service.ChartRenderer { return stubCharts{} }
	newPublisherFunc = func(trace.Tracer, *config.Config) service.Publisher { return stubPublisher{} }
	startJobFunc = func(*job.DailyReportJob, context.Context) { state.jobStarted = true }
	startTelegramBotFunc = func(token string, chatID int64, reports bot.DigestPreviewer) *bot.Bot {
		state.botToken = token
		return nil
	}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine {
		state.router = gin.New()
		return state.router
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newSnapshotReaderFunc = origNewReader
		newChartRendererFunc = origNewCharts
		newPublisherFunc = origNewPublisher
		startJobFunc = origStartJob
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubReader struct{}

func (stubReader) LatestHodlSnapshots(context.Context) ([]domain.AggregateSnapshot, error) {
	return nil, nil
}

func (stubReader) LatestHolders(context.Context) ([]domain.HolderRecord, error) {
	return []domain.HolderRecord{{Holder: domain.Holder{OwnerAddress: "AAAA1111BBBB2222"}}}, nil
}

func (stubReader) LatestRemovedHolders(context.Context) ([]domain.RemovedHolderRecord, error) {
	return nil, nil
}

func (stubReader) LatestHolderChanges(context.Context) ([]domain.HolderChangeEvent, error) {
	return nil, nil
}

type stubCharts struct{}

func (stubCharts) Render(ctx context.Context, spec chart.Spec) domain.ChartImage {
	return domain.ChartImage{URL: "https://quickchart.io/chart/render/" + string(spec.Kind())}
}

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, domain.Article) (string, error) { return "{}", nil }
