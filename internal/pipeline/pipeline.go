package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
	"github.com/couchcryptid/weather-digest-service/internal/forecast"
	"github.com/couchcryptid/weather-digest-service/internal/observability"
	"github.com/couchcryptid/weather-digest-service/internal/summary"
	"github.com/couchcryptid/weather-digest-service/internal/warning"
)

// FailureTitle is the notification title sent when a run fails.
const FailureTitle = "❌ RSS 生成失败"

const (
	runCacheEntries = 64
	minRetryDelay   = time.Minute
)

// Composer renders the digest from one run's data.
type Composer interface {
	Compose(ctx context.Context, snapshots []domain.Snapshot, alerts []domain.Alert) summary.Digest
}

// Publisher writes the digest where readers pick it up.
type Publisher interface {
	Write(title, body string) error
}

// Notifier pushes a best-effort notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}

// AlertSink receives every aggregated alert of a run.
type AlertSink interface {
	PublishAlerts(ctx context.Context, runID string, alerts []domain.Alert) error
}

// Options holds what a run needs. Sink may be nil; a nil Clock uses real
// time for the scheduler.
type Options struct {
	Fetcher     cwa.Fetcher
	Cities      []forecast.City
	ScanTargets []warning.ScanTarget
	Counties    []string

	Composer  Composer
	Publisher Publisher
	Notifier  Notifier
	Sink      AlertSink

	Clock clockwork.Clock
}

// Report describes a finished run.
type Report struct {
	RunID     string
	Title     string
	Body      string
	Snapshots []domain.Snapshot
	Alerts    []domain.Alert
	Sources   []domain.SourceResult
	Digest    summary.Digest
}

// Pipeline runs fetch, aggregate, compose and publish, once or on a schedule.
type Pipeline struct {
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	ready   atomic.Bool
}

// New creates a Pipeline.
func New(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// CheckReadiness returns nil once a run has published a feed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no digest has been published yet")
	}
	return nil
}

// Run performs one digest run. Source failures only degrade the digest; the
// run fails when the feed cannot be written, ctx is cancelled or a stage
// panics. A failure other than cancellation sends a notification carrying the
// error.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report, err := p.recoverRun(ctx)
	if err == nil {
		return report, nil
	}
	p.logger.Error("digest run failed", "run_id", report.RunID, "error", err)
	if ctx.Err() == nil {
		p.opts.Notifier.Notify(ctx, FailureTitle, err.Error())
	}
	return report, err
}

func (p *Pipeline) recoverRun(ctx context.Context) (report Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := p.logger.With("run_id", report.RunID)

	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.metrics.PipelineRunning.Set(0)
		p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()
	log.Info("digest run started", "cities", len(p.opts.Cities))

	fetcher := cwa.NewCachedFetcher(p.opts.Fetcher, runCacheEntries, p.metrics)
	report.Snapshots = forecast.NewBuilder(fetcher, log).BuildAll(ctx, p.opts.Cities)
	report.Alerts, report.Sources = warning.NewAggregator(fetcher, p.opts.ScanTargets, p.opts.Counties, p.metrics, log).Collect(ctx)
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run cancelled: %w", err)
	}

	report.Digest = p.opts.Composer.Compose(ctx, report.Snapshots, report.Alerts)
	report.Title = fmt.Sprintf("%s（%s）", report.Digest.Title, domain.Now().In(domain.Taipei).Format("2006-01-02 15:04"))
	report.Body = report.Digest.Body

	if err := p.opts.Publisher.Write(report.Title, report.Body); err != nil {
		p.metrics.Published.WithLabelValues("feed", "error").Inc()
		return report, fmt.Errorf("write feed: %w", err)
	}
	p.metrics.Published.WithLabelValues("feed", "success").Inc()
	p.metrics.LastSuccess.SetToCurrentTime()
	p.ready.Store(true)

	p.opts.Notifier.Notify(ctx, report.Title, report.Body)
	p.publishAlerts(ctx, log, report)

	log.Info("digest run finished",
		"alerts", len(report.Alerts),
		"kept_alerts", report.Digest.Warnings.Len(),
		"duration", time.Since(start),
	)
	return report, nil
}

func (p *Pipeline) publishAlerts(ctx context.Context, log *slog.Logger, report Report) {
	if p.opts.Sink == nil || len(report.Alerts) == 0 {
		return
	}
	if err := p.opts.Sink.PublishAlerts(ctx, report.RunID, report.Alerts); err != nil {
		p.metrics.Published.WithLabelValues("kafka", "error").Inc()
		log.Error("publish alerts failed", "error", err, "count", len(report.Alerts))
		return
	}
	p.metrics.Published.WithLabelValues("kafka", "success").Inc()
}

// RunEvery runs immediately and then every interval until ctx is cancelled.
// A failed run is retried sooner, starting at one minute and doubling up to
// interval.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration) error {
	p.logger.Info("scheduler started", "interval", interval)
	retry := min(minRetryDelay, interval)

	for {
		wait := interval
		if _, err := p.Run(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			wait = retry
			retry = nextBackoff(retry, interval)
		} else {
			retry = min(minRetryDelay, interval)
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			break
		}
	}
	p.logger.Info("scheduler stopping", "reason", ctx.Err())
	return nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
