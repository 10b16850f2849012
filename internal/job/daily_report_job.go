package job

import (
	"context"
	"log"
	"runtime/debug"
	"time"

	"hodl-digest/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ReportPublisher interface {
	Publish(ctx context.Context) (*domain.ReportRunResult, error)
}

// DailyReportJob publishes the digest once a day at hour:minute in loc.
type DailyReportJob struct {
	tracer     trace.Tracer
	service    ReportPublisher
	loc        *time.Location
	hour       int
	minute     int
	runOnStart bool
	now        func() time.Time
}

func NewDailyReportJob(tracer trace.Tracer, service ReportPublisher, loc *time.Location, hour, minute int, runOnStart bool) *DailyReportJob {
	if loc == nil {
		loc = time.UTC
	}
	if hour < 0 || hour > 23 {
		hour = 23
	}
	if minute < 0 || minute > 59 {
		minute = 58
	}
	return &DailyReportJob{
		tracer:     tracer,
		service:    service,
		loc:        loc,
		hour:       hour,
		minute:     minute,
		runOnStart: runOnStart,
		now:        time.Now,
	}
}

func (j *DailyReportJob) Start(ctx context.Context) {
	if j.service == nil {
		log.Println("Daily report job disabled: no service")
		<-ctx.Done()
		return
	}
	if j.runOnStart {
		j.runOnce(ctx)
	}
	for {
		next := nextRunAt(j.now(), j.loc, j.hour, j.minute)
		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		log.Printf("Daily report scheduled at %s", next.Format(time.RFC3339))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

// runOnce never propagates a failure; the schedule keeps running.
func (j *DailyReportJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "daily-report-job.run-once")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Daily report panic: %v\n%s", r, debug.Stack())
			span.SetStatus(codes.Error, "panic")
		}
	}()

	result, err := j.service.Publish(ctx)
	if err != nil {
		log.Printf("Daily report error: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(attribute.String("run.id", result.RunID))
	log.Printf("Daily report done run_id=%s title=%q charts=%d degraded=%d",
		result.RunID, result.Title, result.ChartsRendered, result.ChartsDegraded)
}

// nextRunAt returns the first hour:minute in loc strictly after now.
func nextRunAt(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	run := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !run.After(local) {
		run = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return run
}
