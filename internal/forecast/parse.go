package forecast

import (
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

const (
	forecastPeriods = 4

	elementWeather     = "天氣現象"
	elementPoP3h       = "3小時降雨機率"
	elementDescription = "天氣預報綜合描述"

	extremeHighC  = 38.0
	extremeLowC   = 5.0
	heavyRainMM   = 50.0
	droughtZeroMM = 0.0
)

// NormalizeTime converts the township ISO form (2025-07-30T12:00:00+08:00)
// to the 36-hour forecast form (2025-07-30 12:00:00) so both key the same
// period.
func NormalizeTime(s string) string {
	s = strings.ReplaceAll(s, "T", " ")
	if i := strings.Index(s, "+"); i >= 0 {
		s = s[:i]
	}
	return s
}

// parseForecast36h returns the base records (Wx) of the first four periods
// and one patch per temperature and PoP element.
func parseForecast36h(area cwa.ForecastArea) (base []domain.HourRecord, patches [][]domain.HourRecord) {
	periods := func(name string) []cwa.ForecastPeriod {
		el, ok := area.Element(name)
		if !ok {
			return nil
		}
		if len(el.Time) > forecastPeriods {
			return el.Time[:forecastPeriods]
		}
		return el.Time
	}

	seen := map[string]bool{}
	for _, p := range periods("Wx") {
		t := p.StartTime.String()
		if seen[t] {
			continue
		}
		seen[t] = true
		base = append(base, domain.HourRecord{
			Time: t,
			Text: p.Parameter.ParameterName.String(),
			Icon: p.Parameter.ParameterValue.String(),
		})
	}

	patch := func(name string, set func(*domain.HourRecord, string)) []domain.HourRecord {
		var out []domain.HourRecord
		for _, p := range periods(name) {
			r := domain.HourRecord{Time: p.StartTime.String()}
			set(&r, p.Parameter.ParameterName.String())
			out = append(out, r)
		}
		return out
	}
	patches = append(patches,
		patch("MaxT", func(r *domain.HourRecord, v string) { r.Temp, r.TempMax = v, v }),
		patch("MinT", func(r *domain.HourRecord, v string) { r.TempMin = v }),
		patch("PoP", func(r *domain.HourRecord, v string) { r.Precip = v }),
	)
	return base, patches
}

// parseTownship reads the first period of the representative (first)
// township: weather and PoP as a patch, plus current conditions from the
// composite description.
func parseTownship(town cwa.Township) ([]domain.HourRecord, domain.CurrentConditions) {
	var (
		patch []domain.HourRecord
		now   domain.CurrentConditions
	)
	if el, ok := town.Element(elementWeather); ok {
		if v, start, ok := el.FirstValue(); ok {
			patch = append(patch, domain.HourRecord{
				Time: NormalizeTime(start),
				Text: v.Weather.String(),
				Icon: v.WeatherCode.String(),
			})
		}
	}
	if el, ok := town.Element(elementPoP3h); ok {
		if v, start, ok := el.FirstValue(); ok {
			patch = append(patch, domain.HourRecord{
				Time:   NormalizeTime(start),
				Precip: v.ProbabilityOfPrecipitation.String(),
			})
		}
	}
	if el, ok := town.Element(elementDescription); ok {
		if v, _, ok := el.FirstValue(); ok {
			now = ParseDescription(v.WeatherDescription.String())
		}
	}
	return patch, now
}

// ParseDescription extracts current conditions from a township composite
// description such as
// "多雲。降雨機率20%。溫度攝氏30度。悶熱。偏南風 平均風速1-2級(每秒2公尺)。相對濕度78%。".
func ParseDescription(desc string) domain.CurrentConditions {
	var c domain.CurrentConditions
	if v, ok := between(desc, "溫度攝氏", "度"); ok && isDigits(v) {
		c.Temp = v
	}
	if v, ok := between(desc, "相對濕度", "%"); ok && isDigits(v) {
		c.Humidity = v
	}
	if v, ok := between(desc, "平均風速", "級"); ok {
		c.WindSpeed = v
	}
	if i := strings.Index(desc, "。"); i >= 0 {
		c.Text = desc[:i]
	}
	return c
}

// parseCurrent reads TEMP, HUMD and WDSD of one current-weather location.
func parseCurrent(area cwa.ForecastArea) domain.CurrentConditions {
	var c domain.CurrentConditions
	cwa.Each(area.WeatherElement, func(el cwa.ForecastElement) {
		v := el.ElementValue.String()
		switch el.ElementName.String() {
		case "TEMP":
			c.Temp = v
		case "HUMD":
			c.Humidity = v
		case "WDSD":
			c.WindSpeed = v
		}
	})
	return c
}

// matchObservations selects the city's stations and keeps the notable
// readings.
func matchObservations(stations []cwa.Station, climate []cwa.ClimateStation, keywords []string) domain.Observations {
	var obs domain.Observations
	for _, s := range stations {
		name := s.StationName.String()
		if !matches(keywords, name, s.GeoInfo.CountyName.String()) {
			continue
		}
		if t, text, ok := s.Element("TEMP"); ok && (t >= extremeHighC || t <= extremeLowC) {
			kind := "高温"
			if t <= extremeLowC {
				kind = "低温"
			}
			obs.Extremes = append(obs.Extremes, domain.StationReading{
				Station: name, Kind: kind, Value: text + "°C", Date: s.ObsTime.String(),
			})
		}
		now := s.RainfallElement.Now.Precipitation
		if r, ok := now.Reading(); ok && r >= heavyRainMM {
			obs.HeavyRain = append(obs.HeavyRain, domain.StationReading{
				Station: name, Kind: "强降雨", Value: now.String() + "mm", Date: s.ObsTime.String(),
			})
		}
	}
	for _, c := range climate {
		name := c.Station.StationName.String()
		if !matches(keywords, name) {
			continue
		}
		for _, v := range c.MonthlyPrecipitation() {
			if v == droughtZeroMM {
				obs.ClimateAnomalies = append(obs.ClimateAnomalies, domain.StationReading{
					Station: name, Kind: "月降雨偏少", Value: "0mm",
				})
				break
			}
		}
	}
	return obs
}

func matches(keywords []string, fields ...string) bool {
	for _, kw := range keywords {
		for _, f := range fields {
			if f != "" && strings.Contains(f, kw) {
				return true
			}
		}
	}
	return false
}

func between(s, start, end string) (string, bool) {
	i := strings.Index(s, start)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(start):]
	if j := strings.Index(rest, end); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
