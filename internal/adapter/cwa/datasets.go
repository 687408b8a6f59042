package cwa

// CWA open-data dataset identifiers.
const (
	DatasetTyphoon         = "W-C0034-005"
	DatasetEarthquake      = "E-A0015-001"
	DatasetEarthquakeLocal = "E-A0016-001"
	DatasetRegionalHazard  = "W-C0033-001"
	DatasetSpecialReport   = "W-C0033-002"
	DatasetStations        = "O-A0002-001"
	DatasetRainGauges      = "O-A0003-001"
	DatasetClimate         = "C-B0025-001"
	DatasetForecast36h     = "F-C0032-001"
	DatasetCurrentWeather  = "O-A0001-001"
)

// DefaultBaseURL is the public datastore root.
const DefaultBaseURL = "https://opendata.cwa.gov.tw/api/v1/rest/datastore"
