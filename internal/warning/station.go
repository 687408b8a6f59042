package warning

import (
	"encoding/json"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

const (
	SourceStationExtremes = "station-extremes"
	SourceRainGauges      = "rain-gauges"
	SourceClimate         = "climate"

	stationProvider   = "CWA观测站"
	rainGaugeProvider = "CWA雨量站"
	climateProvider   = "CWA气候监测"
)

// Observation thresholds.
const (
	highTempC        = 38.0
	lowTempC         = 6.0
	strongWindMS     = 15.0
	severeRain24hMM  = 130.0
	heavyRain24hMM   = 80.0
	intenseRain1hMM  = 40.0
	droughtMonthlyMM = 0.0
)

// NormalizeStationExtremes scans station observations for extreme
// temperature, wind and 24h rainfall (O-A0002-001).
func NormalizeStationExtremes(records json.RawMessage) ([]domain.Alert, error) {
	stations, err := cwa.DecodeStations(records)
	if err != nil {
		return nil, err
	}

	var alerts []domain.Alert
	emit := func(title, body, station string, hazard domain.HazardType, obsTime string, m domain.Measurements) {
		a, ok := domain.NewAlert(title, body, station, hazard, stationProvider,
			domain.WithValidity(domain.Validity{Issued: obsTime}),
			domain.WithMeasurements(m),
		)
		if ok {
			alerts = append(alerts, a)
		}
	}

	for _, s := range stations {
		name, obs := s.StationName.String(), s.ObsTime.String()

		if t, text, ok := s.Element("TEMP"); ok {
			m := domain.Measurements{Temperature: domain.Float(t)}
			switch {
			case t >= highTempC:
				emit("高温观测预警", name+"观测站温度达"+text+"°C，请注意防暑", name, domain.HazardTemperature, obs, m)
			case t <= lowTempC:
				emit("低温观测预警", name+"观测站温度降至"+text+"°C，请注意保暖", name, domain.HazardTemperature, obs, m)
			}
		}

		if w, text, ok := s.Element("WDSD"); ok && w >= strongWindMS {
			emit("强风观测预警", name+"观测站风速达"+text+"m/s，请注意安全", name, domain.HazardWind, obs,
				domain.Measurements{WindSpeed: domain.Float(w)})
		}

		r, text, ok := s.Element("H_24R")
		if !ok {
			if v, rok := s.RainfallElement.Past24hr.Precipitation.Reading(); rok {
				r, text, ok = v, s.RainfallElement.Past24hr.Precipitation.String(), true
			}
		}
		if ok {
			m := domain.Measurements{Rainfall: domain.Float(r)}
			switch {
			case r >= severeRain24hMM:
				emit("大豪雨观测预警", name+"观测站24小时累积雨量达"+text+"mm，请严防水患", name, domain.HazardRainfall, obs, m)
			case r >= heavyRain24hMM:
				emit("豪雨观测预警", name+"观测站24小时累积雨量达"+text+"mm，请注意防范", name, domain.HazardRainfall, obs, m)
			}
		}
	}
	return alerts, nil
}

// NormalizeRainGauges flags intense one-hour rainfall (O-A0003-001).
func NormalizeRainGauges(records json.RawMessage) ([]domain.Alert, error) {
	stations, err := cwa.DecodeStations(records)
	if err != nil {
		return nil, err
	}

	var alerts []domain.Alert
	for _, s := range stations {
		r, text, ok := s.Element("RAIN")
		if !ok {
			if v, rok := s.RainfallElement.Now.Precipitation.Reading(); rok {
				r, text, ok = v, s.RainfallElement.Now.Precipitation.String(), true
			}
		}
		if !ok || r < intenseRain1hMM {
			continue
		}
		name := s.StationName.String()
		a, aok := domain.NewAlert("短时强降雨预警", name+"雨量站1小时降雨达"+text+"mm，请立即防范", name,
			domain.HazardRainfall, rainGaugeProvider,
			domain.WithValidity(domain.Validity{Issued: s.ObsTime.String()}),
			domain.WithMeasurements(domain.Measurements{Rainfall: domain.Float(r)}),
		)
		if aok {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

// NormalizeClimate flags stations whose monthly precipitation statistic is
// exactly zero (C-B0025-001).
func NormalizeClimate(records json.RawMessage) ([]domain.Alert, error) {
	stations, err := cwa.DecodeClimateStations(records)
	if err != nil {
		return nil, err
	}

	var alerts []domain.Alert
	for _, st := range stations {
		name := st.Station.StationName.String()
		for _, v := range st.MonthlyPrecipitation() {
			if v != droughtMonthlyMM {
				continue
			}
			a, ok := domain.NewAlert("异常干旱监测", name+"月降雨量为0mm，需关注干旱情况", name,
				domain.HazardClimateAnomaly, climateProvider,
				domain.WithMeasurements(domain.Measurements{Rainfall: domain.Float(v)}),
			)
			if ok {
				alerts = append(alerts, a)
			}
		}
	}
	return alerts, nil
}
