package domain

// HourRecord is one forecast period. Values are upstream strings; empty means
// the period carried no value for that field.
type HourRecord struct {
	Time    string `json:"time"`
	Text    string `json:"text,omitempty"`
	Icon    string `json:"icon,omitempty"`
	Temp    string `json:"temp,omitempty"`
	TempMax string `json:"temp_max,omitempty"`
	TempMin string `json:"temp_min,omitempty"`
	Precip  string `json:"precip,omitempty"`
}

// DaySummary aggregates a day from its forecast periods.
type DaySummary struct {
	Date      string       `json:"date,omitempty"`
	TextDay   string       `json:"text_day,omitempty"`
	TextNight string       `json:"text_night,omitempty"`
	TempMax   string       `json:"temp_max,omitempty"`
	TempMin   string       `json:"temp_min,omitempty"`
	Precip    string       `json:"precip,omitempty"`
	Hourly    []HourRecord `json:"hourly,omitempty"`
}

// CurrentConditions is a best-effort "now" reading.
type CurrentConditions struct {
	Temp      string `json:"temp,omitempty"`
	Humidity  string `json:"humidity,omitempty"`
	WindSpeed string `json:"wind_speed,omitempty"`
	Text      string `json:"text,omitempty"`
	Precip    string `json:"precip,omitempty"`
}

// IsZero reports whether no field was populated.
func (c CurrentConditions) IsZero() bool {
	return c == CurrentConditions{}
}

// StationReading is a notable observation used to enrich the outlook prompt.
type StationReading struct {
	Station string `json:"station"`
	Kind    string `json:"kind,omitempty"`
	Value   string `json:"value"`
	Date    string `json:"date,omitempty"`
}

// Observations groups station readings relevant to one city.
type Observations struct {
	Extremes         []StationReading `json:"extremes,omitempty"`
	HeavyRain        []StationReading `json:"heavy_rain,omitempty"`
	ClimateAnomalies []StationReading `json:"climate_anomalies,omitempty"`
}

// IsEmpty reports whether there is nothing to mention.
func (o Observations) IsEmpty() bool {
	return len(o.Extremes) == 0 && len(o.HeavyRain) == 0 && len(o.ClimateAnomalies) == 0
}

// Snapshot is the per-city weather picture for one run.
type Snapshot struct {
	City         string            `json:"city"`
	Hourly       []HourRecord      `json:"hourly,omitempty"`
	Today        *DaySummary       `json:"today,omitempty"`
	Weekly       []DaySummary      `json:"weekly,omitempty"`
	Now          CurrentConditions `json:"now"`
	Observations Observations      `json:"observations"`
}

// HasForecast reports whether any forecast data is present.
func (s Snapshot) HasForecast() bool {
	return len(s.Hourly) > 0 || len(s.Weekly) > 0
}

// MergeHourly combines forecast partials keyed by Time. The base decides
// which periods exist and in what order; patches are applied in argument
// order and only non-empty fields override. Patch records whose Time is not
// in the base are ignored. Inputs are not modified.
func MergeHourly(base []HourRecord, patches ...[]HourRecord) []HourRecord {
	if len(base) == 0 {
		return nil
	}
	out := make([]HourRecord, len(base))
	copy(out, base)

	index := make(map[string]int, len(out))
	for i, r := range out {
		if _, dup := index[r.Time]; !dup {
			index[r.Time] = i
		}
	}

	for _, patch := range patches {
		for _, p := range patch {
			i, ok := index[p.Time]
			if !ok {
				continue
			}
			out[i] = overlay(out[i], p)
		}
	}
	return out
}

func overlay(dst, src HourRecord) HourRecord {
	if src.Text != "" {
		dst.Text = src.Text
	}
	if src.Icon != "" {
		dst.Icon = src.Icon
	}
	if src.Temp != "" {
		dst.Temp = src.Temp
	}
	if src.TempMax != "" {
		dst.TempMax = src.TempMax
	}
	if src.TempMin != "" {
		dst.TempMin = src.TempMin
	}
	if src.Precip != "" {
		dst.Precip = src.Precip
	}
	return dst
}
