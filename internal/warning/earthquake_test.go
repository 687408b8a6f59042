package warning

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestNormalizeEarthquakes_WindowAndMagnitude(t *testing.T) {
	freezeClock(t, time.Date(2025, 7, 30, 12, 0, 0, 0, domain.Taipei))

	records := json.RawMessage(`{"Earthquake":[
		{"EarthquakeNo":114101,"EarthquakeInfo":{"OriginTime":"2025-07-30 08:15:30","Magnitude":{"MagnitudeValue":5.2},"Depth":{"DepthValue":10.5},"Epicenter":{"Location":"花蓮縣政府南南東方 20.3 公里"}}},
		{"EarthquakeNo":114102,"EarthquakeInfo":{"OriginTime":"2025-07-30 09:00:00","Magnitude":{"MagnitudeValue":3.9}}},
		{"EarthquakeNo":114090,"EarthquakeInfo":{"OriginTime":"2025-07-26 09:00:00","Magnitude":{"MagnitudeValue":6.4}}},
		{"EarthquakeNo":114091,"EarthquakeInfo":{"OriginTime":"2025-07-27 12:00:00","Magnitude":{"MagnitudeValue":"4.0"}}},
		{"EarthquakeNo":114103,"EarthquakeInfo":{"OriginTime":"yesterday","Magnitude":{"MagnitudeValue":7.0}}},
		{"EarthquakeNo":114104,"EarthquakeInfo":{"OriginTime":"2025-07-30 10:00:00","Magnitude":{"MagnitudeValue":"large"}}}
	]}`)

	alerts, err := NormalizeEarthquakes(records)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	a := alerts[0]
	assert.Equal(t, "有感地震报告", a.Title)
	assert.Equal(t, "地震编号：114101，发生时间：2025-07-30 08:15:30，规模：5.2，深度：10.5公里，震央：花蓮縣政府南南東方 20.3 公里", a.Body)
	assert.Equal(t, domain.HazardEarthquake, a.Hazard)
	assert.Equal(t, domain.RegionCounty, a.RegionKind)
	require.NotNil(t, a.Measurements.Magnitude)
	assert.InDelta(t, 5.2, *a.Measurements.Magnitude, 0.001)
	require.NotNil(t, a.Measurements.Depth)
	assert.InDelta(t, 10.5, *a.Measurements.Depth, 0.001)

	// Exactly 72 hours old is still inside the window.
	b := alerts[1]
	assert.Equal(t, "2025-07-27 12:00:00", b.Validity.Issued)
	assert.Equal(t, "台湾地区", b.Region)
	assert.Nil(t, b.Measurements.Depth)
}

func TestNormalizeLocalEarthquakes(t *testing.T) {
	freezeClock(t, time.Date(2025, 7, 30, 12, 0, 0, 0, domain.Taipei))

	records := json.RawMessage(`{"Earthquake":{"EarthquakeNo":"114500","EarthquakeInfo":{"OriginTime":"2025-07-30 11:00:00","Magnitude":{"MagnitudeValue":"4.3"},"Epicenter":{"Location":"宜蘭縣外海"}}}}`)

	alerts, err := NormalizeLocalEarthquakes(records)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "小区域地震报告", alerts[0].Title)
	assert.Equal(t, "小区域地震编号：114500，时间：2025-07-30 11:00:00，规模：4.3，震央：宜蘭縣外海", alerts[0].Body)
}

func TestNormalizeEarthquakes_Empty(t *testing.T) {
	alerts, err := NormalizeEarthquakes(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
