package warning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
	"github.com/couchcryptid/weather-digest-service/internal/observability"
)

// Normalizer turns the records payload of one dataset into alerts.
type Normalizer func(records json.RawMessage) ([]domain.Alert, error)

type singleSource struct {
	name      string
	dataset   string
	normalize Normalizer
}

// singleSources run before the keyword scans, in this order.
var singleSources = []singleSource{
	{SourceTyphoon, cwa.DatasetTyphoon, NormalizeTyphoons},
	{SourceEarthquake, cwa.DatasetEarthquake, NormalizeEarthquakes},
	{SourceEarthquakeLocal, cwa.DatasetEarthquakeLocal, NormalizeLocalEarthquakes},
	{SourceRegionalHazard, cwa.DatasetRegionalHazard, NormalizeRegionalHazards},
	{SourceSpecialReport, cwa.DatasetSpecialReport, NormalizeSpecialReports},
	{SourceStationExtremes, cwa.DatasetStations, NormalizeStationExtremes},
	{SourceRainGauges, cwa.DatasetRainGauges, NormalizeRainGauges},
	{SourceClimate, cwa.DatasetClimate, NormalizeClimate},
}

// Aggregator queries every warning source in a fixed order and concatenates
// their alerts. A failing source never stops the run.
type Aggregator struct {
	fetcher  cwa.Fetcher
	targets  []ScanTarget
	counties []string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAggregator creates an aggregator. Nil targets or counties fall back to
// the built-in tables.
func NewAggregator(fetcher cwa.Fetcher, targets []ScanTarget, counties []string, metrics *observability.Metrics, logger *slog.Logger) *Aggregator {
	if targets == nil {
		targets = DefaultScanTargets
	}
	if counties == nil {
		counties = DefaultCounties
	}
	return &Aggregator{
		fetcher:  fetcher,
		targets:  targets,
		counties: counties,
		metrics:  metrics,
		logger:   logger,
	}
}

// Collect returns every alert of the run plus the per-source outcomes.
func (a *Aggregator) Collect(ctx context.Context) ([]domain.Alert, []domain.SourceResult) {
	var (
		alerts  []domain.Alert
		results []domain.SourceResult
	)
	record := func(r domain.SourceResult) {
		results = append(results, r)
		alerts = append(alerts, r.Alerts...)
		a.observe(r)
	}

	for _, src := range singleSources {
		record(a.fetchOne(ctx, src))
	}

	// Scans see a capacity-clipped view so they cannot write into alerts.
	record(a.scanCities(ctx, alerts[:len(alerts):len(alerts)]))
	record(a.scanCounties(ctx, alerts[:len(alerts):len(alerts)]))

	a.logger.Info("warnings collected", "alerts", len(alerts), "sources", len(results))
	return alerts, results
}

func (a *Aggregator) observe(r domain.SourceResult) {
	switch r.Status() {
	case domain.StatusFailed:
		a.metrics.SourceFailures.WithLabelValues(r.Source).Inc()
		a.logger.Warn("warning source failed", "source", r.Source, "error", r.Err)
	case domain.StatusData:
		a.metrics.AlertsEmitted.WithLabelValues(r.Source).Add(float64(len(r.Alerts)))
		if r.Err != nil {
			a.logger.Warn("warning source partially failed", "source", r.Source, "alerts", len(r.Alerts), "error", r.Err)
		} else {
			a.logger.Debug("warning source returned alerts", "source", r.Source, "alerts", len(r.Alerts))
		}
	default:
		a.logger.Debug("warning source empty", "source", r.Source)
	}
}

// fetch maps ErrNoData to an empty payload.
func (a *Aggregator) fetch(ctx context.Context, dataset string, query url.Values) (json.RawMessage, bool, error) {
	records, err := a.fetcher.Fetch(ctx, dataset, query)
	if errors.Is(err, cwa.ErrNoData) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, src singleSource) domain.SourceResult {
	res := domain.SourceResult{Source: src.name}
	records, ok, err := a.fetch(ctx, src.dataset, nil)
	if err != nil || !ok {
		res.Err = err
		return res
	}
	res.Alerts, res.Err = src.normalize(records)
	if res.Err != nil {
		res.Err = fmt.Errorf("%s: %w", src.dataset, res.Err)
	}
	return res
}

func (a *Aggregator) scanCities(ctx context.Context, prior []domain.Alert) domain.SourceResult {
	return a.scanEach(ctx, SourceCityScan, prior, len(a.targets), func(i int, view []domain.Alert) (string, []domain.Alert, error) {
		t := a.targets[i]
		records, ok, err := a.fetch(ctx, t.Dataset, nil)
		if err != nil || !ok {
			return t.City, nil, err
		}
		alerts, err := ScanTownships(t.City, records, view)
		return t.City, alerts, err
	})
}

func (a *Aggregator) scanCounties(ctx context.Context, prior []domain.Alert) domain.SourceResult {
	return a.scanEach(ctx, SourceCountyScan, prior, len(a.counties), func(i int, view []domain.Alert) (string, []domain.Alert, error) {
		name := a.counties[i]
		records, ok, err := a.fetch(ctx, cwa.DatasetForecast36h, url.Values{"locationName": {name}})
		if err != nil || !ok {
			return name, nil, err
		}
		alerts, err := ScanCounty(name, records, view)
		return name, alerts, err
	})
}

// scanEach runs a multi-fetch scan. A failed area is logged and skipped; the
// source only reports an error when every area failed.
func (a *Aggregator) scanEach(ctx context.Context, source string, prior []domain.Alert, n int,
	scan func(i int, view []domain.Alert) (string, []domain.Alert, error),
) domain.SourceResult {
	res := domain.SourceResult{Source: source}
	var errs []error
	for i := 0; i < n; i++ {
		view := append(prior[:len(prior):len(prior)], res.Alerts...)
		area, alerts, err := scan(i, view[:len(view):len(view)])
		if err != nil {
			a.logger.Warn("keyword scan area failed", "source", source, "area", area, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", area, err))
			continue
		}
		res.Alerts = append(res.Alerts, alerts...)
	}
	if n > 0 && len(errs) == n {
		res.Err = errors.Join(errs...)
	}
	return res
}
