package warning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

const (
	SourceRegionalHazard = "regional-hazard"
	SourceSpecialReport  = "special-report"

	regionalProvider = "CWA预警系统"
	specialProvider  = "CWA特报系统"
	bulletinRegion   = "相关地区"
)

type hazardInfo struct {
	Phenomena    cwa.Text `json:"phenomena"`
	Significance cwa.Text `json:"significance"`
}

type validTime struct {
	StartTime cwa.Text `json:"startTime"`
	EndTime   cwa.Text `json:"endTime"`
}

type regionalRecords struct {
	Location cwa.RawList `json:"location"`
}

type regionalLocation struct {
	LocationName     cwa.Text `json:"locationName"`
	HazardConditions struct {
		Hazards cwa.RawList `json:"hazards"`
	} `json:"hazardConditions"`
}

type regionalHazard struct {
	Info      hazardInfo `json:"info"`
	ValidTime validTime  `json:"validTime"`
}

// NormalizeRegionalHazards emits one alert per (location, hazard) pair of the
// tsunami and regional warning feed (W-C0033-001).
func NormalizeRegionalHazards(records json.RawMessage) ([]domain.Alert, error) {
	var recs regionalRecords
	if err := cwa.DecodeRecords(records, &recs); err != nil {
		return nil, err
	}

	var alerts []domain.Alert
	cwa.Each(recs.Location, func(loc regionalLocation) {
		name := loc.LocationName.String()
		cwa.Each(loc.HazardConditions.Hazards, func(h regionalHazard) {
			phen, sig := h.Info.Phenomena.String(), h.Info.Significance.String()
			if phen == "" || sig == "" {
				return
			}
			start, end := h.ValidTime.StartTime.String(), h.ValidTime.EndTime.String()

			var b strings.Builder
			fmt.Fprintf(&b, "%s发布%s%s", name, phen, sig)
			if start != "" {
				fmt.Fprintf(&b, "，生效时间：%s", start)
			}
			if end != "" {
				fmt.Fprintf(&b, "，结束时间：%s", end)
			}

			a, ok := domain.NewAlert(phen+sig, b.String(), name, domain.HazardFromText(phen), regionalProvider,
				domain.WithValidity(domain.Validity{Start: start, End: end}),
			)
			if ok {
				alerts = append(alerts, a)
			}
		})
	})
	return alerts, nil
}

type specialRecords struct {
	Record cwa.RawList `json:"record"`
}

type specialRecord struct {
	DatasetInfo struct {
		DatasetDescription cwa.Text  `json:"datasetDescription"`
		IssueTime          cwa.Text  `json:"issueTime"`
		Update             cwa.Text  `json:"update"`
		ValidTime          validTime `json:"validTime"`
	} `json:"datasetInfo"`
	Contents struct {
		Content struct {
			ContentText cwa.Text `json:"contentText"`
		} `json:"content"`
	} `json:"contents"`
	HazardConditions struct {
		Hazards json.RawMessage `json:"hazards"`
	} `json:"hazardConditions"`
}

// hazards returns the nested hazard entries. Reports without an object-shaped
// hazards field still keep their bulletin.
func (r specialRecord) hazards() cwa.RawList {
	var h struct {
		Hazard cwa.RawList `json:"hazard"`
	}
	if len(r.HazardConditions.Hazards) == 0 || json.Unmarshal(r.HazardConditions.Hazards, &h) != nil {
		return nil
	}
	return h.Hazard
}

type specialHazard struct {
	Info struct {
		hazardInfo
		AffectedAreas struct {
			Location cwa.List[struct {
				LocationName cwa.Text `json:"locationName"`
			}] `json:"location"`
		} `json:"affectedAreas"`
	} `json:"info"`
}

// NormalizeSpecialReports emits the bulletin of each special weather report
// plus one alert per hazard with its affected areas (W-C0033-002).
func NormalizeSpecialReports(records json.RawMessage) ([]domain.Alert, error) {
	var recs specialRecords
	if err := cwa.DecodeRecords(records, &recs); err != nil {
		return nil, err
	}

	var alerts []domain.Alert
	cwa.Each(recs.Record, func(rec specialRecord) {
		info := rec.DatasetInfo
		desc := info.DatasetDescription.String()
		text := rec.Contents.Content.ContentText.String()
		if desc != "" && text != "" {
			a, ok := domain.NewAlert("官方"+desc, text, bulletinRegion, domain.HazardFromText(desc+text), specialProvider,
				domain.WithValidity(domain.Validity{
					Start:  info.ValidTime.StartTime.String(),
					End:    info.ValidTime.EndTime.String(),
					Issued: firstNonEmpty(info.IssueTime.String(), info.Update.String()),
				}),
			)
			if ok {
				alerts = append(alerts, a)
			}
		}

		cwa.Each(rec.hazards(), func(h specialHazard) {
			phen := h.Info.Phenomena.String()
			if phen == "" {
				return
			}
			var names []string
			for _, loc := range h.Info.AffectedAreas.Location {
				if n := loc.LocationName.String(); n != "" {
					names = append(names, n)
				}
			}
			if len(names) == 0 {
				return
			}
			areas := strings.Join(names, ", ")
			a, ok := domain.NewAlert(phen+h.Info.Significance.String(), "受影响地区："+areas, areas,
				domain.HazardFromText(phen), specialProvider)
			if ok {
				alerts = append(alerts, a)
			}
		})
	})
	return alerts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
