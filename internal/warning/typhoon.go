package warning

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

const (
	SourceTyphoon = "typhoon"

	typhoonRegion   = "全台湾"
	typhoonProvider = "CWA"
	unnamedTyphoon  = "未知台风"
)

// taiwanCenter is the reference point for the impact estimate.
var taiwanCenter = struct{ lat, lon float64 }{23.8, 121.0}

type typhoonRecords struct {
	TropicalCyclones struct {
		TropicalCyclone cwa.RawList `json:"tropicalCyclone"`
	} `json:"tropicalCyclones"`
}

type tropicalCyclone struct {
	TyphoonName  cwa.Text `json:"typhoonName"`
	AnalysisData struct {
		Fix cwa.List[typhoonFix] `json:"fix"`
	} `json:"analysisData"`
}

type typhoonFix struct {
	FixTime      cwa.Text `json:"fixTime"`
	Coordinate   cwa.Text `json:"coordinate"`
	MaxWindSpeed cwa.Text `json:"maxWindSpeed"`
	Pressure     cwa.Text `json:"pressure"`
}

// NormalizeTyphoons emits one alert per named storm from its latest fix
// (W-C0034-005).
func NormalizeTyphoons(records json.RawMessage) ([]domain.Alert, error) {
	var recs typhoonRecords
	if err := cwa.DecodeRecords(records, &recs); err != nil {
		return nil, err
	}

	var alerts []domain.Alert
	cwa.Each(recs.TropicalCyclones.TropicalCyclone, func(tc tropicalCyclone) {
		if len(tc.AnalysisData.Fix) == 0 {
			return
		}
		name := tc.TyphoonName.String()
		if name == "" {
			name = unnamedTyphoon
		}
		fix := tc.AnalysisData.Fix.Last()

		var b strings.Builder
		fmt.Fprintf(&b, "台风「%s」（%s）", name, TyphoonScale(fix.MaxWindSpeed.String()))
		if t := fix.FixTime.String(); t != "" {
			if formatted, ok := formatFixTime(t); ok {
				fmt.Fprintf(&b, "，%s最新信息", formatted)
			} else {
				fmt.Fprintf(&b, "，%s", t)
			}
		}
		b.WriteString("，")
		b.WriteString(typhoonImpact(fix.Coordinate.String()))

		var m domain.Measurements
		if w, ok := fix.MaxWindSpeed.Float(); ok {
			m.WindSpeed = domain.Float(w)
		}
		a, ok := domain.NewAlert("台风路径监测 - "+name, b.String(), typhoonRegion,
			domain.HazardTyphoon, typhoonProvider,
			domain.WithValidity(domain.Validity{Issued: fix.FixTime.String()}),
			domain.WithMeasurements(m),
		)
		if ok {
			alerts = append(alerts, a)
		}
	})
	return alerts, nil
}

// TyphoonScale classifies intensity from maximum sustained wind in m/s. An
// empty value counts as zero; anything else that is not an integer yields
// the generic label.
func TyphoonScale(maxWind string) string {
	wind := 0
	if maxWind != "" {
		n, err := strconv.Atoi(maxWind)
		if err != nil {
			return "热带气旋"
		}
		wind = n
	}
	switch {
	case wind >= 118:
		return "强台风"
	case wind >= 87:
		return "中度台风"
	case wind >= 62:
		return "轻度台风"
	case wind >= 34:
		return "热带风暴"
	default:
		return "热带低压"
	}
}

// Impact labels.
const (
	ImpactHigh     = "对台湾构成高度威胁"
	ImpactModerate = "对台湾构成中度威胁"
	ImpactLow      = "对台湾构成低度威胁"
	ImpactFar      = "距离台湾较远，影响较小"
	ImpactUnknown  = "对台湾影响待评估"
)

// typhoonImpact estimates the threat from a "lon,lat" coordinate. Inside the
// watch box (lat 15–30, lon 115–130) the straight-line distance in degrees
// from central Taiwan decides the level.
func typhoonImpact(coordinate string) string {
	lat, lon, ok := parseCoordinate(coordinate)
	if !ok {
		return ImpactUnknown
	}
	return ImpactAt(lat, lon)
}

// ImpactAt returns the impact label for a storm centre.
func ImpactAt(lat, lon float64) string {
	if lat < 15 || lat > 30 || lon < 115 || lon > 130 {
		return ImpactFar
	}
	d := math.Hypot(lat-taiwanCenter.lat, lon-taiwanCenter.lon)
	switch {
	case d < 3:
		return ImpactHigh
	case d < 5:
		return ImpactModerate
	default:
		return ImpactLow
	}
}

func parseCoordinate(coordinate string) (lat, lon float64, ok bool) {
	parts := strings.Split(coordinate, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lon, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

var fixTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func formatFixTime(s string) (string, bool) {
	for _, layout := range fixTimeLayouts {
		t, err := time.ParseInLocation(layout, s, domain.Taipei)
		if err == nil {
			return t.In(domain.Taipei).Format("01月02日 15:04"), true
		}
	}
	return "", false
}
