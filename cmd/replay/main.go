// Command replay runs the digest against recorded CWA responses instead of the
// live API. It never calls a summarizer, sends a notification or touches
// Kafka, so the output only depends on the fixtures and the replay time.
//
// Fixtures are stored one per dataset as "{dataset}.json", or
// "{dataset}_{locationName}.json" for per-city queries, holding the raw
// datastore response.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -fixtures cmd/replay/testdata/keelung-rain \
//	  -at 2025-07-30T14:05:00+08:00 \
//	  -feed /tmp/weather.xml \
//	  -report /tmp/report.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/adapter/feed"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
	"github.com/couchcryptid/weather-digest-service/internal/forecast"
	"github.com/couchcryptid/weather-digest-service/internal/observability"
	"github.com/couchcryptid/weather-digest-service/internal/pipeline"
	"github.com/couchcryptid/weather-digest-service/internal/summary"
	"github.com/couchcryptid/weather-digest-service/internal/warning"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	fixtures string
	at       time.Time
	feedPath string
	report   string
}

func run() error {
	fixtures := flag.String("fixtures", "", "directory of recorded CWA responses")
	at := flag.String("at", "", "RFC3339 time to replay at (default: now)")
	feedPath := flag.String("feed", "", "also write the RSS feed to this path")
	report := flag.String("report", "", "write a JSON run report to this path")
	flag.Parse()

	if *fixtures == "" {
		flag.Usage()
		return errors.New("missing required flag: -fixtures")
	}
	opts := options{fixtures: *fixtures, feedPath: *feedPath, report: *report}
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		opts.at = t
	}

	_, err := replay(context.Background(), opts, os.Stdout)
	return err
}

func replay(ctx context.Context, opts options, out io.Writer) (pipeline.Report, error) {
	if info, err := os.Stat(opts.fixtures); err != nil || !info.IsDir() {
		return pipeline.Report{}, fmt.Errorf("fixtures directory %q not found", opts.fixtures)
	}

	if !opts.at.IsZero() {
		domain.SetClock(clockwork.NewFakeClockAt(opts.at))
		defer domain.SetClock(nil)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	publishers := multiPublisher{printPublisher{out}}
	if opts.feedPath != "" {
		publishers = append(publishers, feed.NewWriter(opts.feedPath, feed.DefaultLink, feed.DefaultForecastHours))
	}

	p := pipeline.New(pipeline.Options{
		Fetcher:     cwa.NewFileFetcher(opts.fixtures),
		Cities:      forecast.DefaultCities,
		ScanTargets: warning.DefaultScanTargets,
		Counties:    warning.DefaultCounties,
		Composer:    summary.NewCompositor(nil, summary.DefaultFallbackRunes, metrics, logger),
		Publisher:   publishers,
		Notifier:    nopNotifier{},
	}, logger, metrics)

	report, err := p.Run(ctx)
	if err != nil {
		return report, err
	}
	printStats(out, report)

	if opts.report != "" {
		if err := writeJSON(opts.report, newRunReport(report)); err != nil {
			return report, fmt.Errorf("writing report: %w", err)
		}
		log.Printf("wrote report: %s", opts.report)
	}
	return report, nil
}

type printPublisher struct{ w io.Writer }

func (p printPublisher) Write(title, body string) error {
	_, err := fmt.Fprintf(p.w, "%s\n\n%s\n", title, body)
	return err
}

type multiPublisher []pipeline.Publisher

func (m multiPublisher) Write(title, body string) error {
	for _, p := range m {
		if err := p.Write(title, body); err != nil {
			return err
		}
	}
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) {}

type sourceReport struct {
	Source string `json:"source"`
	Status string `json:"status"`
	Alerts int    `json:"alerts"`
	Error  string `json:"error,omitempty"`
}

type runReport struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Alerts  []domain.Alert `json:"alerts"`
	Sources []sourceReport `json:"sources"`
}

func newRunReport(r pipeline.Report) runReport {
	out := runReport{Title: r.Title, Body: r.Body, Alerts: r.Alerts}
	if out.Alerts == nil {
		out.Alerts = []domain.Alert{}
	}
	for _, s := range r.Sources {
		sr := sourceReport{Source: s.Source, Status: s.Status().String(), Alerts: len(s.Alerts)}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		out.Sources = append(out.Sources, sr)
	}
	return out
}

func printStats(w io.Writer, r pipeline.Report) {
	fmt.Fprintf(w, "\n--- sources ---\n")
	for _, s := range r.Sources {
		fmt.Fprintf(w, "%-18s %-6s %d\n", s.Source, s.Status(), len(s.Alerts))
	}
	fmt.Fprintf(w, "alerts: %d, kept in digest: %d\n", len(r.Alerts), r.Digest.Warnings.Len())
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644) //nolint:gosec // report files are meant to be readable
}
