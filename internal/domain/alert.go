package domain

import "strings"

// HazardType tags an alert with the phenomenon it reports.
type HazardType string

const (
	HazardTyphoon        HazardType = "typhoon"
	HazardEarthquake     HazardType = "earthquake"
	HazardTsunami        HazardType = "tsunami"
	HazardRainfall       HazardType = "rainfall"
	HazardWind           HazardType = "wind"
	HazardTemperature    HazardType = "temperature"
	HazardClimateAnomaly HazardType = "climate-anomaly"
	HazardGeneric        HazardType = "generic"
)

// Validity is the optional time window of an alert. Values are kept exactly
// as the upstream published them.
type Validity struct {
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Issued string `json:"issued,omitempty"`
}

// Measurements carries the numeric readings that triggered an alert.
// Nil means the source did not provide the value.
type Measurements struct {
	Magnitude   *float64 `json:"magnitude,omitempty"`
	Depth       *float64 `json:"depth_km,omitempty"`
	WindSpeed   *float64 `json:"wind_speed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Rainfall    *float64 `json:"rainfall,omitempty"`
}

// Alert is a normalized hazard notice. Construct with NewAlert; the region
// kind is resolved once there and never recomputed.
type Alert struct {
	Title        string       `json:"title"`
	Body         string       `json:"body"`
	Region       string       `json:"region"`
	RegionKind   RegionKind   `json:"region_kind"`
	Hazard       HazardType   `json:"hazard"`
	Source       string       `json:"source"`
	Validity     Validity     `json:"validity"`
	Measurements Measurements `json:"measurements"`
}

// AlertOption sets an optional field during construction.
type AlertOption func(*Alert)

// WithValidity attaches a validity window.
func WithValidity(v Validity) AlertOption {
	return func(a *Alert) { a.Validity = v }
}

// WithMeasurements attaches numeric readings.
func WithMeasurements(m Measurements) AlertOption {
	return func(a *Alert) { a.Measurements = m }
}

// NewAlert builds an alert and reports false when the title or body is blank,
// so callers cannot emit an alert without content.
func NewAlert(title, body, region string, hazard HazardType, source string, opts ...AlertOption) (Alert, bool) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return Alert{}, false
	}
	if hazard == "" {
		hazard = HazardGeneric
	}
	a := Alert{
		Title:      title,
		Body:       body,
		Region:     region,
		RegionKind: ResolveRegionKind(region),
		Hazard:     hazard,
		Source:     source,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a, true
}

// WithBody returns a copy of the alert carrying a replacement body. The
// region kind is preserved.
func (a Alert) WithBody(body string) Alert {
	a.Body = body
	return a
}

// hazardKeywords is checked in order; the first hit wins.
var hazardKeywords = []struct {
	hazard   HazardType
	keywords []string
}{
	{HazardTyphoon, []string{"台风", "颱風", "颱风", "熱帶性低氣壓", "热带气旋"}},
	{HazardTsunami, []string{"海嘯", "海啸"}},
	{HazardEarthquake, []string{"地震"}},
	{HazardRainfall, []string{"雨", "雷"}},
	{HazardWind, []string{"風", "风"}},
	{HazardTemperature, []string{"高溫", "高温", "低溫", "低温", "寒", "熱", "热"}},
	{HazardClimateAnomaly, []string{"乾旱", "干旱"}},
}

// HazardFromText derives a hazard tag from a free-text phenomenon label such
// as "大雨" or "陸上強風".
func HazardFromText(text string) HazardType {
	for _, hk := range hazardKeywords {
		for _, kw := range hk.keywords {
			if strings.Contains(text, kw) {
				return hk.hazard
			}
		}
	}
	return HazardGeneric
}

// Float returns a pointer to v, for filling Measurements.
func Float(v float64) *float64 {
	return &v
}
