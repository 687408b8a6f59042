package warning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

const (
	SourceCityScan   = "city-keyword-scan"
	SourceCountyScan = "nationwide-keyword-scan"

	townshipProvider = "CWA乡镇预报"
	countyProvider   = "CWA天气预报"

	elementWeather   = "天氣現象"
	elementPoP3h     = "3小時降雨機率"
	cityPoPThreshold = 80

	countyHighPoP   = 80
	countyNotePoP   = 70
	countyPeriods   = 2
	popDedupKeyword = "降雨机率"
)

// ScanTarget pairs a city with its township forecast dataset.
type ScanTarget struct {
	City    string `yaml:"city"`
	Dataset string `yaml:"dataset"`
}

// DefaultScanTargets are the six special municipalities.
var DefaultScanTargets = []ScanTarget{
	{City: "臺北市", Dataset: "F-D0047-061"},
	{City: "新北市", Dataset: "F-D0047-069"},
	{City: "桃園市", Dataset: "F-D0047-005"},
	{City: "臺中市", Dataset: "F-D0047-075"},
	{City: "臺南市", Dataset: "F-D0047-079"},
	{City: "高雄市", Dataset: "F-D0047-067"},
}

// DefaultCounties is every county and city of the 36-hour forecast.
var DefaultCounties = []string{
	"臺北市", "新北市", "桃園市", "臺中市", "臺南市", "高雄市",
	"基隆市", "新竹市", "新竹縣", "苗栗縣", "彰化縣", "南投縣",
	"雲林縣", "嘉義市", "嘉義縣", "屏東縣", "宜蘭縣", "花蓮縣",
	"臺東縣", "澎湖縣", "金門縣", "連江縣",
}

type keywordRule struct {
	keyword string
	title   string
}

// Rules are checked in order; only the first match counts.
var cityRules = []keywordRule{
	{"大雨", "大雨特报"},
	{"豪雨", "豪雨特报"},
	{"大雷雨", "大雷雨即时讯息"},
	{"雷雨", "雷雨提醒"},
	{"雷陣雨", "雷阵雨提醒"},
	{"強風", "陆上强风特报"},
	{"颱風", "台风消息"},
	{"濃霧", "浓雾警告"},
	{"冰雹", "冰雹警告"},
}

var countyRules = []keywordRule{
	{"大雨", "大雨特报"},
	{"豪雨", "豪雨特报"},
	{"雷雨", "雷雨提醒"},
	{"雷陣雨", "雷阵雨提醒"},
	{"大雷雨", "大雷雨警告"},
	{"陣雨", "阵雨提醒"},
	{"暴風雨", "暴风雨警告"},
	{"颱風", "台风警告"},
	{"強風", "强风警告"},
	{"濃霧", "浓雾警告"},
	{"冰雹", "冰雹警告"},
}

// seen answers dedup questions against the alerts already in the run plus
// those emitted by the current scan.
type seen struct {
	prior   []domain.Alert
	emitted []domain.Alert
}

func (s *seen) any(fn func(domain.Alert) bool) bool {
	for _, a := range s.prior {
		if fn(a) {
			return true
		}
	}
	for _, a := range s.emitted {
		if fn(a) {
			return true
		}
	}
	return false
}

func (s *seen) hasKeyword(region, keyword string) bool {
	return s.any(func(a domain.Alert) bool {
		return a.Region == region && strings.Contains(a.Body, keyword)
	})
}

func (s *seen) hasRegion(region string) bool {
	return s.any(func(a domain.Alert) bool { return a.Region == region })
}

func (s *seen) add(a domain.Alert, ok bool) {
	if ok {
		s.emitted = append(s.emitted, a)
	}
}

// ScanTownships looks for hazard keywords in the first period of every
// township forecast of a city (F-D0047-xxx). Alerts are keyed to the city, so
// one keyword yields at most one alert per city across the whole run; prior
// holds the alerts collected before this scan and is never modified.
func ScanTownships(city string, records json.RawMessage, prior []domain.Alert) ([]domain.Alert, error) {
	towns, err := cwa.DecodeTownships(records)
	if err != nil {
		return nil, err
	}

	s := &seen{prior: prior}
	for _, town := range towns {
		if el, ok := town.Element(elementWeather); ok {
			if v, start, ok := el.FirstValue(); ok {
				weather := firstNonEmpty(v.Weather.String(), v.Value.String())
				for _, rule := range cityRules {
					if !strings.Contains(weather, rule.keyword) {
						continue
					}
					if !s.hasKeyword(city, rule.keyword) {
						s.add(domain.NewAlert(rule.title, fmt.Sprintf("%s地区预报有%s，请注意防范。", city, weather), city,
							domain.HazardFromText(rule.keyword), townshipProvider,
							domain.WithValidity(domain.Validity{Start: start}),
						))
					}
					break
				}
			}
		}

		if el, ok := town.Element(elementPoP3h); ok {
			if v, start, ok := el.FirstValue(); ok {
				pop, ok := firstNonEmptyText(v.ProbabilityOfPrecipitation, v.Value).Int()
				if ok && pop >= cityPoPThreshold && !s.hasKeyword(city, popDedupKeyword) {
					s.add(domain.NewAlert("高降雨机率预警", fmt.Sprintf("%s地区3小时降雨机率达%d%%，请注意防范。", city, pop), city,
						domain.HazardRainfall, townshipProvider,
						domain.WithValidity(domain.Validity{Start: start}),
					))
				}
			}
		}
	}
	return s.emitted, nil
}

// ScanCounty checks the first two 36-hour periods of one county or city
// (F-C0032-001). Keyword alerts dedup on region and keyword; the high-PoP
// reminder is suppressed by any alert for the region.
func ScanCounty(name string, records json.RawMessage, prior []domain.Alert) ([]domain.Alert, error) {
	areas, err := cwa.DecodeForecastAreas(records)
	if err != nil {
		return nil, err
	}

	s := &seen{prior: prior}
	for _, area := range areas {
		loc := area.LocationName.String()
		if loc == "" {
			loc = name
		}
		if loc != name {
			continue
		}
		wx, ok := area.Element("Wx")
		if !ok {
			continue
		}
		pop, _ := area.Element("PoP")

		for i := 0; i < countyPeriods && i < len(wx.Time); i++ {
			period := wx.Time[i]
			desc := period.Parameter.ParameterName.String()
			p := 0
			if i < len(pop.Time) {
				p, _ = pop.Time[i].Parameter.ParameterName.Int()
			}
			validity := domain.WithValidity(domain.Validity{
				Start: period.StartTime.String(),
				End:   period.EndTime.String(),
			})

			if desc != "" {
				for _, rule := range countyRules {
					if !strings.Contains(desc, rule.keyword) {
						continue
					}
					if !s.hasKeyword(loc, rule.keyword) {
						body := loc + "未来12-24小时内预报有" + desc
						if p >= countyNotePoP {
							body += fmt.Sprintf("，降雨机率高达%d%%", p)
						}
						s.add(domain.NewAlert(rule.title, body+"，请注意防范。", loc,
							domain.HazardFromText(rule.keyword), countyProvider, validity))
					}
					break
				}
			}

			if p >= countyHighPoP && !s.hasRegion(loc) {
				s.add(domain.NewAlert("高降雨机率提醒", fmt.Sprintf("%s降雨机率达%d%%，出门请携带雨具。", loc, p), loc,
					domain.HazardRainfall, countyProvider, validity))
			}
		}
	}
	return s.emitted, nil
}

func firstNonEmptyText(values ...cwa.Text) cwa.Text {
	for _, v := range values {
		if v.String() != "" {
			return v
		}
	}
	return ""
}
