package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"hodl-digest/internal/chart"
	"hodl-digest/internal/domain"
	"hodl-digest/internal/newsletter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultChartCacheTTL = 6 * time.Hour

type SnapshotReader interface {
	LatestHodlSnapshots(ctx context.Context) ([]domain.AggregateSnapshot, error)
	LatestHolders(ctx context.Context) ([]domain.HolderRecord, error)
	LatestRemovedHolders(ctx context.Context) ([]domain.RemovedHolderRecord, error)
	LatestHolderChanges(ctx context.Context) ([]domain.HolderChangeEvent, error)
}

type ChartRenderer interface {
	Render(ctx context.Context, spec chart.Spec) domain.ChartImage
}

type Publisher interface {
	Publish(ctx context.Context, article domain.Article) (string, error)
}

// Notifier is told about every successful publish.
type Notifier interface {
	NotifyPublished(ctx context.Context, result *domain.ReportRunResult) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type ReportOptions struct {
	Location       *time.Location
	MaxTotalPoints int
	TopHolders     int
	IncludeRemoved bool
	ChartCacheTTL  time.Duration
}

// Report is one generated, not yet published, digest.
type Report struct {
	RunID          string
	Article        domain.Article
	Snapshots      int
	ChangeEvents   int
	Charts         map[chart.Kind]domain.ChartImage
	ChartsDegraded int
}

// ReportService reads one day of snapshots, renders the digest and publishes it.
type ReportService struct {
	tracer    trace.Tracer
	reader    SnapshotReader
	charts    ChartRenderer
	publisher Publisher
	redis     RedisClient
	notifier  Notifier
	opts      ReportOptions
	now       func() time.Time
}

// NewReportService wires the pipeline. redisClient may be nil to disable the
// chart URL memo.
func NewReportService(
	tracer trace.Tracer,
	reader SnapshotReader,
	charts ChartRenderer,
	publisher Publisher,
	redisClient RedisClient,
	opts ReportOptions,
) *ReportService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ChartCacheTTL <= 0 {
		opts.ChartCacheTTL = defaultChartCacheTTL
	}
	return &ReportService{
		tracer:    tracer,
		reader:    reader,
		charts:    charts,
		publisher: publisher,
		redis:     redisClient,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *ReportService) WithNotifier(n Notifier) *ReportService {
	s.notifier = n
	return s
}

// WithClock sets the clock used for the article title.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// localNow reads the clock in the report zone so the title names the local day.
func (s *ReportService) localNow() time.Time {
	return s.now().In(s.opts.Location)
}

// Generate builds the digest for the most recent sampling day without publishing it.
func (s *ReportService) Generate(ctx context.Context) (*Report, error) {
	return s.generate(ctx, uuid.NewString())
}

func (s *ReportService) generate(ctx context.Context, runID string) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "report-service.generate")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))

	var (
		snapshots []domain.AggregateSnapshot
		changes   []domain.HolderChangeEvent
		removed   []domain.RemovedHolderRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.reader.LatestHodlSnapshots(gctx)
		if err != nil {
			return fmt.Errorf("read snapshots: %w", err)
		}
		snapshots = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.reader.LatestHolderChanges(gctx)
		if err != nil {
			return fmt.Errorf("read holder changes: %w", err)
		}
		changes = rows
		return nil
	})
	if s.opts.IncludeRemoved {
		g.Go(func() error {
			rows, err := s.reader.LatestRemovedHolders(gctx)
			if err != nil {
				return fmt.Errorf("read removed holders: %w", err)
			}
			removed = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	images := s.renderCharts(ctx, snapshots)
	degraded := 0
	for _, img := range images {
		if img.Degraded {
			degraded++
		}
	}

	renderer := newsletter.NewRenderer(newsletter.RenderOptions{
		TopHolders:     s.opts.TopHolders,
		IncludeRemoved: s.opts.IncludeRemoved,
	}).WithClock(s.localNow)
	article := renderer.Render(newsletter.Input{
		Snapshots: snapshots,
		Changes:   changes,
		Removed:   removed,
		Charts:    images,
	})

	span.SetAttributes(
		attribute.Int("report.snapshots", len(snapshots)),
		attribute.Int("report.change_events", len(changes)),
		attribute.Int("report.charts", len(images)),
		attribute.Int("report.charts_degraded", degraded),
	)
	log.Printf("report generated run_id=%s snapshots=%d changes=%d charts=%d degraded=%d",
		runID, len(snapshots), len(changes), len(images), degraded)

	return &Report{
		RunID:          runID,
		Article:        article,
		Snapshots:      len(snapshots),
		ChangeEvents:   len(changes),
		Charts:         images,
		ChartsDegraded: degraded,
	}, nil
}

// renderCharts builds and renders every eligible section concurrently. Each branch
// works on its own copy of rows.
func (s *ReportService) renderCharts(ctx context.Context, rows []domain.AggregateSnapshot) map[chart.Kind]domain.ChartImage {
	opts := newsletter.ChartOptions{Location: s.opts.Location, MaxTotalPoints: s.opts.MaxTotalPoints}

	var (
		mu     sync.Mutex
		images = make(map[chart.Kind]domain.ChartImage)
		g      errgroup.Group
	)
	for _, build := range newsletter.ChartBuilders() {
		own := append([]domain.AggregateSnapshot(nil), rows...)
		g.Go(func() error {
			spec := build(own, opts)
			if spec == nil {
				return nil
			}
			img := s.renderChart(ctx, spec)
			mu.Lock()
			images[spec.Kind()] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return images
}

func (s *ReportService) renderChart(ctx context.Context, spec chart.Spec) domain.ChartImage {
	if s.redis == nil {
		return s.charts.Render(ctx, spec)
	}

	key, err := chartCacheKey(spec.Config())
	if err != nil {
		log.Printf("chart cache key error kind=%s: %v", spec.Kind(), err)
		return s.charts.Render(ctx, spec)
	}

	cached, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil && cached != "":
		return domain.ChartImage{URL: cached}
	case err != nil && err != redis.Nil:
		log.Printf("redis cache read error kind=%s: %v", spec.Kind(), err)
	}

	img := s.charts.Render(ctx, spec)
	if img.Degraded || img.URL == "" {
		return img
	}
	if err := s.redis.Set(ctx, key, img.URL, s.opts.ChartCacheTTL).Err(); err != nil {
		log.Printf("redis cache write error kind=%s: %v", spec.Kind(), err)
	}
	return img
}

func chartCacheKey(cfg chart.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "chart:" + hex.EncodeToString(sum[:]), nil
}

// Publish generates the digest and posts it. Notification failures are logged only.
func (s *ReportService) Publish(ctx context.Context) (*domain.ReportRunResult, error) {
	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "report-service.publish")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))

	report, err := s.generate(ctx, runID)
	if err != nil {
		return nil, err
	}

	resp, err := s.publisher.Publish(ctx, report.Article)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("publish %q: %w", report.Article.Title, err)
	}

	result := &domain.ReportRunResult{
		RunID:          runID,
		Title:          report.Article.Title,
		Snapshots:      report.Snapshots,
		ChangeEvents:   report.ChangeEvents,
		ChartsRendered: len(report.Charts),
		ChartsDegraded: report.ChartsDegraded,
		Response:       resp,
	}
	log.Printf("report published run_id=%s title=%q", runID, result.Title)

	if s.notifier != nil {
		if err := s.notifier.NotifyPublished(ctx, result); err != nil {
			log.Printf("publish notification failed run_id=%s: %v", runID, err)
		}
	}
	return result, nil
}

// Holders returns the current ranking, at most limit rows when limit > 0.
func (s *ReportService) Holders(ctx context.Context, limit int) ([]domain.HolderRecord, error) {
	ctx, span := s.tracer.Start(ctx, "report-service.holders")
	defer span.End()

	holders, err := s.reader.LatestHolders(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(holders) > limit {
		holders = holders[:limit]
	}
	return holders, nil
}
