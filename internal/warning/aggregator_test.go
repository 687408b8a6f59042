package warning

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
	"github.com/couchcryptid/weather-digest-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher answers by dataset, or dataset plus locationName. Anything not
// configured reads as no data.
type stubFetcher struct {
	payloads map[string]string
	errs     map[string]error
	calls    []string
}

func (f *stubFetcher) Fetch(_ context.Context, dataset string, query url.Values) (json.RawMessage, error) {
	key := dataset
	if loc := query.Get("locationName"); loc != "" {
		key += "/" + loc
	}
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if body, ok := f.payloads[key]; ok {
		return json.RawMessage(body), nil
	}
	return nil, cwa.ErrNoData
}

func newTestAggregator(f cwa.Fetcher, targets []ScanTarget, counties []string) (*Aggregator, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewAggregator(f, targets, counties, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func TestAggregator_FixedOrder(t *testing.T) {
	f := &stubFetcher{}
	a, _ := newTestAggregator(f, []ScanTarget{{City: "臺北市", Dataset: "F-D0047-061"}}, []string{"宜蘭縣"})

	alerts, results := a.Collect(context.Background())
	assert.Empty(t, alerts)

	var sources []string
	for _, r := range results {
		sources = append(sources, r.Source)
		assert.Equal(t, domain.StatusEmpty, r.Status(), r.Source)
	}
	assert.Equal(t, []string{
		SourceTyphoon, SourceEarthquake, SourceEarthquakeLocal, SourceRegionalHazard,
		SourceSpecialReport, SourceStationExtremes, SourceRainGauges, SourceClimate,
		SourceCityScan, SourceCountyScan,
	}, sources)
	assert.Equal(t, []string{
		cwa.DatasetTyphoon, cwa.DatasetEarthquake, cwa.DatasetEarthquakeLocal, cwa.DatasetRegionalHazard,
		cwa.DatasetSpecialReport, cwa.DatasetStations, cwa.DatasetRainGauges, cwa.DatasetClimate,
		"F-D0047-061", cwa.DatasetForecast36h + "/宜蘭縣",
	}, f.calls)
}

func TestAggregator_FailureIsolation(t *testing.T) {
	domain.SetClock(nil)
	f := &stubFetcher{
		payloads: map[string]string{
			cwa.DatasetRegionalHazard: `{"location":[{"locationName":"基隆市","hazardConditions":{"hazards":{"info":{"phenomena":"大雨","significance":"特報"}}}}]}`,
			cwa.DatasetClimate:        `"records should be an object"`,
			cwa.DatasetRainGauges:     `{"Station":[{"StationName":"五堵","RainfallElement":{"Now":{"Precipitation":55}}}]}`,
		},
		errs: map[string]error{
			cwa.DatasetTyphoon:  errors.New("connection reset"),
			cwa.DatasetStations: context.DeadlineExceeded,
		},
	}
	a, m := newTestAggregator(f, []ScanTarget{}, []string{})

	alerts, results := a.Collect(context.Background())
	require.Len(t, alerts, 2)
	assert.Equal(t, "基隆市发布大雨特報", alerts[0].Body)
	assert.Equal(t, "五堵", alerts[1].Region)

	status := map[string]domain.SourceStatus{}
	for _, r := range results {
		status[r.Source] = r.Status()
	}
	assert.Equal(t, domain.StatusFailed, status[SourceTyphoon])
	assert.Equal(t, domain.StatusFailed, status[SourceStationExtremes])
	assert.Equal(t, domain.StatusFailed, status[SourceClimate])
	assert.Equal(t, domain.StatusData, status[SourceRegionalHazard])
	assert.Equal(t, domain.StatusData, status[SourceRainGauges])
	assert.Equal(t, domain.StatusEmpty, status[SourceEarthquake])

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues(SourceTyphoon)), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues(SourceClimate)), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.AlertsEmitted.WithLabelValues(SourceRainGauges)), 0.001)
}

func TestAggregator_AllSourcesFailYieldsNoAlerts(t *testing.T) {
	boom := errors.New("upstream down")
	f := &stubFetcher{errs: map[string]error{}}
	for _, src := range singleSources {
		f.errs[src.dataset] = boom
	}
	f.errs["F-D0047-061"] = boom
	f.errs[cwa.DatasetForecast36h+"/宜蘭縣"] = boom

	a, _ := newTestAggregator(f, []ScanTarget{{City: "臺北市", Dataset: "F-D0047-061"}}, []string{"宜蘭縣"})
	alerts, results := a.Collect(context.Background())

	assert.Empty(t, alerts)
	require.Len(t, results, 10)
	for _, r := range results {
		assert.Equal(t, domain.StatusFailed, r.Status(), r.Source)
		assert.ErrorIs(t, r.Err, boom, r.Source)
	}
}

func TestAggregator_ScansSeeEarlierAlerts(t *testing.T) {
	freezeClock(t, time.Date(2025, 7, 30, 12, 0, 0, 0, domain.Taipei))
	f := &stubFetcher{payloads: map[string]string{
		cwa.DatasetRegionalHazard: `{"location":[{"locationName":"臺北市","hazardConditions":{"hazards":{"info":{"phenomena":"大雨","significance":"特報"}}}}]}`,
		"F-D0047-061": string(townshipRecords(
			town{"中正區", "大雨", "20"},
		)),
		"F-D0047-069": string(townshipRecords(
			town{"板橋區", "豪雨", "90"},
		)),
		cwa.DatasetForecast36h + "/臺北市": string(countyRecords("臺北市", period{"大雨", "90"})),
		cwa.DatasetForecast36h + "/新北市": string(countyRecords("新北市", period{"豪雨", "90"})),
		cwa.DatasetForecast36h + "/澎湖縣": string(countyRecords("澎湖縣", period{"陰", "85"})),
	}}
	a, _ := newTestAggregator(f, []ScanTarget{
		{City: "臺北市", Dataset: "F-D0047-061"},
		{City: "新北市", Dataset: "F-D0047-069"},
	}, []string{"臺北市", "新北市", "澎湖縣"})

	alerts, _ := a.Collect(context.Background())

	var got []string
	for _, al := range alerts {
		got = append(got, al.Source+"|"+al.Region+"|"+al.Title)
	}
	assert.Equal(t, []string{
		"CWA预警系统|臺北市|大雨特報",
		"CWA乡镇预报|新北市|豪雨特报",
		"CWA乡镇预报|新北市|高降雨机率预警",
		"CWA天气预报|澎湖縣|高降雨机率提醒",
	}, got)
}

func TestAggregator_CityFailureSkipsOnlyThatCity(t *testing.T) {
	f := &stubFetcher{
		payloads: map[string]string{"F-D0047-069": string(townshipRecords(town{"板橋區", "濃霧", "10"}))},
		errs:     map[string]error{"F-D0047-061": errors.New("timeout")},
	}
	a, _ := newTestAggregator(f, []ScanTarget{
		{City: "臺北市", Dataset: "F-D0047-061"},
		{City: "新北市", Dataset: "F-D0047-069"},
	}, []string{})

	_, results := a.Collect(context.Background())
	var scan domain.SourceResult
	for _, r := range results {
		if r.Source == SourceCityScan {
			scan = r
		}
	}
	require.Len(t, scan.Alerts, 1)
	assert.Equal(t, "浓雾警告", scan.Alerts[0].Title)
	assert.NoError(t, scan.Err)
	assert.Equal(t, domain.StatusData, scan.Status())
}
