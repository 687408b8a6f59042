package warning

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStationExtremes(t *testing.T) {
	records := json.RawMessage(`{"Station":[
		{"StationName":"臺北","ObsTime":"2025-07-30 14:00:00","WeatherElement":[
			{"ElementName":"TEMP","ElementValue":"38.4"},
			{"ElementName":"WDSD","ElementValue":"3.2"},
			{"ElementName":"H_24R","ElementValue":"135.0"}]},
		{"StationName":"玉山","WeatherElement":[
			{"ElementName":"TEMP","ElementValue":"4.8"},
			{"ElementName":"WDSD","ElementValue":"17.1"}]},
		{"StationName":"蘭嶼","WeatherElement":[{"ElementName":"TEMP","ElementValue":"28"}],
		 "RainfallElement":{"Past24hr":{"Precipitation":"95.5"}}}
	]}`)

	alerts, err := NormalizeStationExtremes(records)
	require.NoError(t, err)

	var titles []string
	for _, a := range alerts {
		titles = append(titles, a.Region+":"+a.Title)
	}
	assert.Equal(t, []string{
		"臺北:高温观测预警",
		"臺北:大豪雨观测预警",
		"玉山:低温观测预警",
		"玉山:强风观测预警",
		"蘭嶼:豪雨观测预警",
	}, titles)

	assert.Equal(t, "臺北观测站温度达38.4°C，请注意防暑", alerts[0].Body)
	assert.Equal(t, "2025-07-30 14:00:00", alerts[0].Validity.Issued)
	assert.Equal(t, domain.HazardTemperature, alerts[0].Hazard)
	assert.Equal(t, "蘭嶼观测站24小时累积雨量达95.5mm，请注意防范", alerts[4].Body)
}

// A reading with an unexpected shape only loses itself; the station's other
// readings still count.
func TestNormalizeStationExtremes_MalformedElementKeepsSiblings(t *testing.T) {
	records := json.RawMessage(`{"Station":[{"StationName":"臺北","ObsTime":"2025-07-30 14:00:00","WeatherElement":[
		{"ElementName":"Weather","ElementValue":{"code":"x"}},
		{"ElementName":"TEMP","ElementValue":"39.1"}]}]}`)

	alerts, err := NormalizeStationExtremes(records)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "高温观测预警", alerts[0].Title)
	assert.Contains(t, alerts[0].Body, "39.1")
}

// Every station value of -99 or -998 is "not observed" and must never trigger
// an alert, even though it is below every low threshold.
func TestNormalizeStationExtremes_SentinelsNeverAlert(t *testing.T) {
	for _, sentinel := range []string{`"-99"`, `-99`, `"-998"`, `-998.0`} {
		records := json.RawMessage(`{"Station":[{"StationName":"測站","WeatherElement":[
			{"ElementName":"TEMP","ElementValue":` + sentinel + `},
			{"ElementName":"WDSD","ElementValue":` + sentinel + `},
			{"ElementName":"H_24R","ElementValue":` + sentinel + `}],
			"RainfallElement":{"Now":{"Precipitation":` + sentinel + `},"Past24hr":{"Precipitation":` + sentinel + `}}}]}`)

		alerts, err := NormalizeStationExtremes(records)
		require.NoError(t, err)
		assert.Empty(t, alerts, sentinel)

		alerts, err = NormalizeRainGauges(records)
		require.NoError(t, err)
		assert.Empty(t, alerts, sentinel)
	}
}

func TestNormalizeRainGauges(t *testing.T) {
	records := json.RawMessage(`{"Station":[
		{"StationName":"火燒寮","ObsTime":"2025-07-30 15:00:00","WeatherElement":[{"ElementName":"RAIN","ElementValue":"52.5"}]},
		{"StationName":"五堵","RainfallElement":{"Now":{"Precipitation":40}}},
		{"StationName":"汐止","RainfallElement":{"Now":{"Precipitation":39.5}}},
		"garbage"
	]}`)

	alerts, err := NormalizeRainGauges(records)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "火燒寮雨量站1小时降雨达52.5mm，请立即防范", alerts[0].Body)
	assert.Equal(t, "短时强降雨预警", alerts[1].Title)
	assert.Equal(t, "五堵", alerts[1].Region)
	assert.Equal(t, domain.HazardRainfall, alerts[1].Hazard)
}

func TestNormalizeClimate(t *testing.T) {
	records := json.RawMessage(`{"location":[
		{"station":{"StationName":"澎湖"},"stationObsStatistics":{"AirTemperature":[
			{"Precipitation":[{"Precipitation":"Monthly","PrecipitationValue":"0.0"},{"Precipitation":"Daily","PrecipitationValue":"0"}]}]}},
		{"station":{"StationName":"臺中"},"stationObsStatistics":{"AirTemperature":{"Precipitation":{"Precipitation":"Monthly","PrecipitationValue":"12.5"}}}},
		{"station":{"StationName":"恆春"},"stationObsStatistics":{"AirTemperature":[{"Precipitation":[{"Precipitation":"Monthly","PrecipitationValue":"T"}]}]}}
	]}`)

	alerts, err := NormalizeClimate(records)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "异常干旱监测", alerts[0].Title)
	assert.Equal(t, "澎湖月降雨量为0mm，需关注干旱情况", alerts[0].Body)
	assert.Equal(t, domain.HazardClimateAnomaly, alerts[0].Hazard)
}
