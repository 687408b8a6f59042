package warning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

const (
	SourceEarthquake      = "earthquake"
	SourceEarthquakeLocal = "earthquake-local"

	earthquakeProvider    = "CWA地震测报"
	earthquakeWindow      = 72 * time.Hour
	earthquakeMinMag      = 4.0
	earthquakeTimeLayout  = "2006-01-02 15:04:05"
	earthquakeFallbackLoc = "台湾地区"
)

type earthquakeRecords struct {
	Earthquake cwa.RawList `json:"Earthquake"`
}

type earthquake struct {
	EarthquakeNo   cwa.Text `json:"EarthquakeNo"`
	EarthquakeInfo struct {
		OriginTime cwa.Text `json:"OriginTime"`
		Magnitude  struct {
			MagnitudeValue cwa.Text `json:"MagnitudeValue"`
		} `json:"Magnitude"`
		Depth struct {
			DepthValue cwa.Text `json:"DepthValue"`
		} `json:"Depth"`
		Epicenter struct {
			Location cwa.Text `json:"Location"`
		} `json:"Epicenter"`
	} `json:"EarthquakeInfo"`
}

// NormalizeEarthquakes handles the general felt-earthquake report
// (E-A0015-001).
func NormalizeEarthquakes(records json.RawMessage) ([]domain.Alert, error) {
	return normalizeEarthquakes(records, "有感地震报告", func(eq earthquake) string {
		info := eq.EarthquakeInfo
		var b strings.Builder
		fmt.Fprintf(&b, "地震编号：%s", eq.EarthquakeNo.String())
		fmt.Fprintf(&b, "，发生时间：%s", info.OriginTime.String())
		fmt.Fprintf(&b, "，规模：%s", info.Magnitude.MagnitudeValue.String())
		if d := info.Depth.DepthValue.String(); d != "" {
			fmt.Fprintf(&b, "，深度：%s公里", d)
		}
		if e := info.Epicenter.Location.String(); e != "" {
			fmt.Fprintf(&b, "，震央：%s", e)
		}
		return b.String()
	})
}

// NormalizeLocalEarthquakes handles the small-region felt-earthquake report
// (E-A0016-001).
func NormalizeLocalEarthquakes(records json.RawMessage) ([]domain.Alert, error) {
	return normalizeEarthquakes(records, "小区域地震报告", func(eq earthquake) string {
		info := eq.EarthquakeInfo
		var b strings.Builder
		fmt.Fprintf(&b, "小区域地震编号：%s", eq.EarthquakeNo.String())
		fmt.Fprintf(&b, "，时间：%s", info.OriginTime.String())
		fmt.Fprintf(&b, "，规模：%s", info.Magnitude.MagnitudeValue.String())
		if e := info.Epicenter.Location.String(); e != "" {
			fmt.Fprintf(&b, "，震央：%s", e)
		}
		return b.String()
	})
}

// normalizeEarthquakes keeps events from the last three days with magnitude
// 4.0 or more. Records whose time or magnitude does not parse are skipped.
func normalizeEarthquakes(records json.RawMessage, title string, body func(earthquake) string) ([]domain.Alert, error) {
	var recs earthquakeRecords
	if err := cwa.DecodeRecords(records, &recs); err != nil {
		return nil, err
	}

	cutoff := domain.Now().Add(-earthquakeWindow)

	var alerts []domain.Alert
	cwa.Each(recs.Earthquake, func(eq earthquake) {
		info := eq.EarthquakeInfo
		origin, err := time.ParseInLocation(earthquakeTimeLayout, info.OriginTime.String(), domain.Taipei)
		if err != nil || origin.Before(cutoff) {
			return
		}
		mag, ok := info.Magnitude.MagnitudeValue.Float()
		if !ok || mag < earthquakeMinMag {
			return
		}

		region := info.Epicenter.Location.String()
		if region == "" {
			region = earthquakeFallbackLoc
		}
		m := domain.Measurements{Magnitude: domain.Float(mag)}
		if d, ok := info.Depth.DepthValue.Float(); ok {
			m.Depth = domain.Float(d)
		}
		a, ok := domain.NewAlert(title, body(eq), region, domain.HazardEarthquake, earthquakeProvider,
			domain.WithValidity(domain.Validity{Issued: info.OriginTime.String()}),
			domain.WithMeasurements(m),
		)
		if ok {
			alerts = append(alerts, a)
		}
	})
	return alerts, nil
}
