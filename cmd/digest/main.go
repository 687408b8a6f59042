// Command digest builds the weather digest from the CWA open-data API,
// publishes it as an RSS feed and pushes a Bark notification.
//
// By default it performs a single run and exits, non-zero on failure. With
// -serve it stays up, runs every RUN_INTERVAL and exposes /healthz, /readyz,
// /metrics and /feed.xml on HTTP_ADDR.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/bark"
	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/weather-digest-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-digest-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-digest-service/internal/adapter/llm"
	"github.com/couchcryptid/weather-digest-service/internal/config"
	"github.com/couchcryptid/weather-digest-service/internal/observability"
	"github.com/couchcryptid/weather-digest-service/internal/pipeline"
	"github.com/couchcryptid/weather-digest-service/internal/summary"
)

func main() {
	serve := flag.Bool("serve", false, "run on a schedule and serve health, metrics and the feed over HTTP")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, closeSink, err := build(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	if *serve {
		runServer(ctx, cfg, p, logger)
		return
	}

	report, err := p.Run(ctx)
	if cfg.PushgatewayURL != "" {
		if perr := observability.Push(context.WithoutCancel(ctx), cfg.PushgatewayURL, prometheus.DefaultGatherer, report.RunID); perr != nil {
			logger.Warn("metrics push failed", "error", perr)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 生成失败：%v\n", err)
		closeSink()
		os.Exit(1) //nolint:gocritic // sink closed above
	}
	fmt.Println("✅ RSS 已生成")
}

// build wires the pipeline. The returned func closes the alert sink, if any.
func build(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	summarizer, err := llm.New(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("summarizer: %w", err)
	}
	logger.Info("summarizer configured", "provider", cfg.LLM.Provider)

	opts := pipeline.Options{
		Fetcher:     cwa.NewClient(cfg.CWA, metrics, logger),
		Cities:      cfg.Cities,
		ScanTargets: cfg.ScanTargets,
		Counties:    cfg.Counties,
		Composer:    summary.NewCompositor(summarizer, cfg.DigestFallbackRunes, metrics, logger),
		Publisher:   feed.NewWriter(cfg.FeedPath, cfg.FeedLink, cfg.ForecastHours),
		Notifier:    bark.NewNotifier(cfg.BarkKey, cfg.BarkBaseURL, metrics, logger),
	}

	closeSink := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		opts.Sink = w
		closeSink = func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		logger.Info("kafka alert sink enabled", "topic", cfg.KafkaAlertTopic)
	}

	return pipeline.New(opts, logger, metrics), closeSink, nil
}

func runServer(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.FeedPath, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.RunEvery(ctx, cfg.RunInterval); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("digest run still in progress at shutdown deadline")
	}

	logger.Info("shutdown complete")
}
