package cwa

import "encoding/json"

// Shapes shared by more than one consumer. JSON field matching is
// case-insensitive, which absorbs the capitalization drift between CWA
// dataset versions ("startTime" vs "StartTime").

// Station is one row of the station observation datasets (O-A0002-001,
// O-A0003-001). WeatherElement may be a single object or a list; its entries
// are decoded one at a time so a malformed reading only loses itself.
type Station struct {
	StationName Text  `json:"StationName"`
	ObsTime     Stamp `json:"ObsTime"`
	GeoInfo     struct {
		CountyName Text `json:"CountyName"`
		TownName   Text `json:"TownName"`
	} `json:"GeoInfo"`
	WeatherElement  RawList `json:"WeatherElement"`
	RainfallElement struct {
		Now struct {
			Precipitation Text `json:"Precipitation"`
		} `json:"Now"`
		Past24hr struct {
			Precipitation Text `json:"Precipitation"`
		} `json:"Past24hr"`
	} `json:"RainfallElement"`
}

// Stamp is an observation time published either as a plain string or, in
// newer dataset versions, as {"DateTime": "..."}.
type Stamp string

func (s *Stamp) UnmarshalJSON(data []byte) error {
	var obj struct {
		DateTime Text `json:"DateTime"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*s = Stamp(obj.DateTime.String())
		return nil
	}
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	*s = Stamp(t.String())
	return nil
}

func (s Stamp) String() string { return string(s) }

// StationElement is a named station reading.
type StationElement struct {
	ElementName  Text `json:"ElementName"`
	ElementValue Text `json:"ElementValue"`
}

// Element returns the named reading with sentinels excluded, plus its text.
func (s Station) Element(name string) (float64, string, bool) {
	e, found := Find(s.WeatherElement, func(e StationElement) bool {
		return e.ElementName.String() == name
	})
	if !found {
		return 0, "", false
	}
	v, ok := e.ElementValue.Reading()
	return v, e.ElementValue.String(), ok
}

// DecodeStations returns the stations of an observation payload, skipping
// malformed rows.
func DecodeStations(records json.RawMessage) ([]Station, error) {
	var recs struct {
		Station RawList `json:"Station"`
	}
	if err := DecodeRecords(records, &recs); err != nil {
		return nil, err
	}
	var stations []Station
	Each(recs.Station, func(s Station) {
		stations = append(stations, s)
	})
	return stations, nil
}

// ForecastArea is one location of the 36-hour county forecast (F-C0032-001)
// or of the current-weather dataset (O-A0001-001).
type ForecastArea struct {
	LocationName   Text    `json:"locationName"`
	WeatherElement RawList `json:"weatherElement"`
}

// ForecastElement is one forecast variable (Wx, PoP, MinT, MaxT, CI).
type ForecastElement struct {
	ElementName  Text                 `json:"elementName"`
	ElementValue Text                 `json:"elementValue"`
	Time         List[ForecastPeriod] `json:"time"`
}

// ForecastPeriod is one 12-hour forecast period.
type ForecastPeriod struct {
	StartTime Text `json:"startTime"`
	EndTime   Text `json:"endTime"`
	Parameter struct {
		ParameterName  Text `json:"parameterName"`
		ParameterValue Text `json:"parameterValue"`
	} `json:"parameter"`
}

// Element returns the named variable, or false.
func (a ForecastArea) Element(name string) (ForecastElement, bool) {
	return Find(a.WeatherElement, func(e ForecastElement) bool {
		return e.ElementName.String() == name
	})
}

// DecodeForecastAreas returns the locations of a county forecast payload.
func DecodeForecastAreas(records json.RawMessage) ([]ForecastArea, error) {
	var recs struct {
		Location RawList `json:"location"`
	}
	if err := DecodeRecords(records, &recs); err != nil {
		return nil, err
	}
	var areas []ForecastArea
	Each(recs.Location, func(a ForecastArea) {
		areas = append(areas, a)
	})
	return areas, nil
}

// Township is one township of a city forecast (F-D0047-xxx).
type Township struct {
	LocationName   Text    `json:"locationName"`
	WeatherElement RawList `json:"weatherElement"`
}

// TownshipElement is one township forecast variable, e.g. 天氣現象.
type TownshipElement struct {
	ElementName Text                 `json:"elementName"`
	Time        List[TownshipPeriod] `json:"time"`
}

// TownshipPeriod is one forecast period of a township variable.
type TownshipPeriod struct {
	StartTime    Text                `json:"startTime"`
	DataTime     Text                `json:"dataTime"`
	ElementValue List[TownshipValue] `json:"elementValue"`
}

// TownshipValue holds whichever value keys the element carries.
type TownshipValue struct {
	Weather                    Text `json:"Weather"`
	WeatherCode                Text `json:"WeatherCode"`
	ProbabilityOfPrecipitation Text `json:"ProbabilityOfPrecipitation"`
	WeatherDescription         Text `json:"WeatherDescription"`
	Value                      Text `json:"value"`
}

// Element returns the named variable, or false.
func (t Township) Element(name string) (TownshipElement, bool) {
	return Find(t.WeatherElement, func(e TownshipElement) bool {
		return e.ElementName.String() == name
	})
}

// FirstValue returns the first value of the first period and its start time.
func (e TownshipElement) FirstValue() (TownshipValue, string, bool) {
	if len(e.Time) == 0 || len(e.Time[0].ElementValue) == 0 {
		return TownshipValue{}, "", false
	}
	p := e.Time[0]
	start := p.StartTime.String()
	if start == "" {
		start = p.DataTime.String()
	}
	return p.ElementValue[0], start, true
}

// DecodeTownships flattens every township of a city forecast payload.
func DecodeTownships(records json.RawMessage) ([]Township, error) {
	var recs struct {
		Locations RawList `json:"locations"`
	}
	if err := DecodeRecords(records, &recs); err != nil {
		return nil, err
	}
	var towns []Township
	Each(recs.Locations, func(group struct {
		Location RawList `json:"location"`
	}) {
		Each(group.Location, func(t Township) {
			towns = append(towns, t)
		})
	})
	return towns, nil
}

// ClimateStation is one station of the monthly climate statistics
// (C-B0025-001).
type ClimateStation struct {
	Station struct {
		StationName Text `json:"StationName"`
	} `json:"station"`
	StationObsStatistics struct {
		AirTemperature RawList `json:"AirTemperature"`
	} `json:"stationObsStatistics"`
}

type climatePeriod struct {
	Precipitation RawList `json:"Precipitation"`
}

type climateStat struct {
	Precipitation      Text `json:"Precipitation"`
	PrecipitationValue Text `json:"PrecipitationValue"`
}

// MonthlyPrecipitation returns every parsable "Monthly" precipitation value.
func (c ClimateStation) MonthlyPrecipitation() []float64 {
	var values []float64
	Each(c.StationObsStatistics.AirTemperature, func(p climatePeriod) {
		Each(p.Precipitation, func(st climateStat) {
			if st.Precipitation.String() != "Monthly" {
				return
			}
			if v, ok := st.PrecipitationValue.Float(); ok {
				values = append(values, v)
			}
		})
	})
	return values
}

// DecodeClimateStations returns the stations of a climate statistics payload.
func DecodeClimateStations(records json.RawMessage) ([]ClimateStation, error) {
	var recs struct {
		Location RawList `json:"location"`
	}
	if err := DecodeRecords(records, &recs); err != nil {
		return nil, err
	}
	var stations []ClimateStation
	Each(recs.Location, func(s ClimateStation) {
		stations = append(stations, s)
	})
	return stations, nil
}
