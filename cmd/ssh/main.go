package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"slices"
	"syscall"
	"time"

	"hodl-digest/internal/cache"
	"hodl-digest/internal/config"
	"hodl-digest/internal/db"
	"hodl-digest/internal/provider"
	"hodl-digest/internal/repository"
	"hodl-digest/internal/service"
	"hodl-digest/internal/tui"
	"hodl-digest/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
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
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

// fingerprintAuth admits keys whose SHA256 fingerprint is listed. An empty list
// admits nobody.
func fingerprintAuth(allowed []string) ssh.PublicKeyHandler {
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if !slices.Contains(allowed, fingerprint) {
			log.Printf("SSH auth denied: user=%s fingerprint=%s", ctx.User(), fingerprint)
			return false
		}
		log.Printf("SSH auth accepted: user=%s fingerprint=%s", ctx.User(), fingerprint)
		return true
	}
}

// consoleHandler builds one read-only digest console per session. The report
// service never publishes from here.
func consoleHandler(reports tui.DigestSource) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		model := tui.NewAppModel(tui.Services{
			Reports:  reports,
			Username: s.User(),
		})
		pty, _, _ := s.Pty()
		model.SetSize(pty.Window.Width, pty.Window.Height)

		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

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

	var reports tui.DigestSource
	if reader := newSnapshotReaderFunc(tracer, cfg.ReportTimezone); reader != nil {
		var redisClient service.RedisClient
		if cache.Client != nil {
			redisClient = cache.Client
		} else {
			redisClient = cache.NewLocal(10 * time.Minute)
		}
		reports = service.NewReportService(
			tracer,
			reader,
			provider.NewQuickChartRenderer(tracer, cfg.QuickChartBaseURL),
			provider.NewPlanetPublisher(tracer, cfg.PlanetBaseURL, cfg.PlanetAuthBasic, cfg.PlanetID),
			redisClient,
			service.ReportOptions{
				Location:       cfg.ReportLocation,
				MaxTotalPoints: cfg.ChartMaxTotalPoints,
				TopHolders:     cfg.TopHoldersLimit,
				IncludeRemoved: cfg.ReportIncludeRemoved,
				ChartCacheTTL:  cfg.ChartCacheTTL(),
			},
		)
	} else {
		log.Println("Warning: no database, SSH console will show errors only")
	}

	if len(cfg.SSHAllowedFingerprints) == 0 {
		log.Println("Warning: SSH_ALLOWED_FINGERPRINTS empty, every key will be rejected")
	}

	// Build Wish SSH server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(fingerprintAuth(cfg.SSHAllowedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(consoleHandler(reports)),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}
