package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

// Fallback temperatures used when the forecast carries none.
const (
	todayMaxDefault    = "32"
	todayMinDefault    = "27"
	weeklyMaxDefault   = "25"
	weeklyMinDefault   = "20"
	tomorrowMaxDefault = "26"
	tomorrowMinDefault = "21"

	defaultHumidity  = "65"
	defaultWindSpeed = "5"
)

// Builder assembles per-city weather snapshots from several CWA datasets.
// A failed pass leaves its part of the snapshot empty.
type Builder struct {
	fetcher cwa.Fetcher
	logger  *slog.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(fetcher cwa.Fetcher, logger *slog.Logger) *Builder {
	return &Builder{fetcher: fetcher, logger: logger}
}

// BuildAll builds snapshots for every city, in order.
func (b *Builder) BuildAll(ctx context.Context, cities []City) []domain.Snapshot {
	snapshots := make([]domain.Snapshot, 0, len(cities))
	for _, c := range cities {
		snapshots = append(snapshots, b.Build(ctx, c))
	}
	return snapshots
}

// Build returns the snapshot of one city.
func (b *Builder) Build(ctx context.Context, city City) domain.Snapshot {
	snap := domain.Snapshot{City: city.Name}
	log := b.logger.With("city", city.Name)

	var base []domain.HourRecord
	var patches [][]domain.HourRecord
	if areas, ok := b.areas(ctx, log, cwa.DatasetForecast36h, url.Values{"locationName": {city.ForecastID}}); ok {
		if area, found := findArea(areas, city.ForecastID); found {
			base, patches = parseForecast36h(area)
		}
	}

	if city.TownshipDataset != "" {
		if records, ok := b.fetch(ctx, log, city.TownshipDataset, nil); ok {
			towns, err := cwa.DecodeTownships(records)
			switch {
			case err != nil:
				log.Warn("decode township forecast", "dataset", city.TownshipDataset, "error", err)
			case len(towns) > 0:
				patch, now := parseTownship(towns[0])
				patches = append(patches, patch)
				snap.Now = now
			}
		}
	}

	snap.Hourly = domain.MergeHourly(base, patches...)
	snap.Today, snap.Weekly = summarizeDays(snap.Hourly)

	if snap.Now.IsZero() {
		station := strings.ReplaceAll(city.ForecastID, "市", "")
		query := url.Values{
			"locationName": {station},
			"elementName":  {"TEMP,HUMD,WDSD"},
		}
		if areas, ok := b.areas(ctx, log, cwa.DatasetCurrentWeather, query); ok {
			if area, found := findArea(areas, station); found {
				snap.Now = parseCurrent(area)
			}
		}
	}
	if snap.Now.IsZero() && len(snap.Hourly) > 0 {
		first := snap.Hourly[0]
		snap.Now = domain.CurrentConditions{
			Temp:      first.Temp,
			Text:      first.Text,
			Humidity:  defaultHumidity,
			WindSpeed: defaultWindSpeed,
			Precip:    first.Precip,
		}
	}

	snap.Observations = b.observations(ctx, log, city)

	log.Debug("snapshot built", "hourly", len(snap.Hourly), "weekly", len(snap.Weekly))
	return snap
}

func (b *Builder) observations(ctx context.Context, log *slog.Logger, city City) domain.Observations {
	var (
		stations []cwa.Station
		climate  []cwa.ClimateStation
		err      error
	)
	if records, ok := b.fetch(ctx, log, cwa.DatasetStations, nil); ok {
		if stations, err = cwa.DecodeStations(records); err != nil {
			log.Warn("decode station observations", "error", err)
		}
	}
	if records, ok := b.fetch(ctx, log, cwa.DatasetClimate, nil); ok {
		if climate, err = cwa.DecodeClimateStations(records); err != nil {
			log.Warn("decode climate statistics", "error", err)
		}
	}
	return matchObservations(stations, climate, city.keywords())
}

func (b *Builder) fetch(ctx context.Context, log *slog.Logger, dataset string, query url.Values) (json.RawMessage, bool) {
	records, err := b.fetcher.Fetch(ctx, dataset, query)
	if err != nil {
		if !errors.Is(err, cwa.ErrNoData) {
			log.Warn("forecast fetch failed", "dataset", dataset, "error", err)
		}
		return nil, false
	}
	return records, true
}

func (b *Builder) areas(ctx context.Context, log *slog.Logger, dataset string, query url.Values) ([]cwa.ForecastArea, bool) {
	records, ok := b.fetch(ctx, log, dataset, query)
	if !ok {
		return nil, false
	}
	areas, err := cwa.DecodeForecastAreas(records)
	if err != nil {
		log.Warn("decode forecast", "dataset", dataset, "error", err)
		return nil, false
	}
	return areas, true
}

// findArea returns the location named name. An unnamed location counts as a
// match since the query already selected it.
func findArea(areas []cwa.ForecastArea, name string) (cwa.ForecastArea, bool) {
	for _, a := range areas {
		if loc := a.LocationName.String(); loc == "" || loc == name {
			return a, true
		}
	}
	return cwa.ForecastArea{}, false
}

// summarizeDays splits the merged periods: the first two describe today, the
// rest tomorrow.
func summarizeDays(hourly []domain.HourRecord) (*domain.DaySummary, []domain.DaySummary) {
	if len(hourly) == 0 {
		return nil, nil
	}
	todayHours := hourly[:min(2, len(hourly))]
	first := todayHours[0]

	maxT, minT := 0, 0
	for _, h := range todayHours {
		if v, ok := atoi(h.TempMax); ok {
			maxT = max(maxT, v)
		} else if v, ok := atoi(h.Temp); ok {
			maxT = max(maxT, v)
		}
		if v, ok := atoi(h.TempMin); ok {
			if minT == 0 {
				minT = v
			} else {
				minT = min(minT, v)
			}
		} else if v, ok := atoi(h.Temp); ok && minT == 0 {
			minT = v
		}
	}

	today := &domain.DaySummary{
		Date:    datePart(first.Time),
		TextDay: first.Text,
		TempMax: positiveOr(maxT, todayMaxDefault),
		TempMin: positiveOr(minT, todayMinDefault),
		Precip:  first.Precip,
		Hourly:  todayHours,
	}
	weekly := []domain.DaySummary{{
		Date:      datePart(first.Time),
		TextDay:   first.Text,
		TextNight: first.Text,
		TempMax:   positiveOr(maxT, weeklyMaxDefault),
		TempMin:   positiveOr(minT, weeklyMinDefault),
		Precip:    first.Precip,
	}}

	rest := hourly[len(todayHours):]
	if len(rest) > 0 {
		tMax, tMin := 0, 0
		for _, h := range rest {
			v, ok := atoi(h.Temp)
			if !ok {
				continue
			}
			tMax = max(tMax, v)
			if tMin == 0 {
				tMin = v
			} else {
				tMin = min(tMin, v)
			}
		}
		weekly = append(weekly, domain.DaySummary{
			Date:      datePart(rest[0].Time),
			TextDay:   rest[0].Text,
			TextNight: rest[0].Text,
			TempMax:   positiveOr(tMax, tomorrowMaxDefault),
			TempMin:   positiveOr(tMin, tomorrowMinDefault),
			Precip:    rest[0].Precip,
		})
	}
	return today, weekly
}

// atoi accepts plain non-negative integers only, as the forecast publishes.
func atoi(s string) (int, bool) {
	if !isDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func positiveOr(v int, fallback string) string {
	if v > 0 {
		return strconv.Itoa(v)
	}
	return fallback
}

func datePart(t string) string {
	if len(t) >= len("2006-01-02") {
		return t[:len("2006-01-02")]
	}
	return t
}
