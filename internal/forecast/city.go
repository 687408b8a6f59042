package forecast

// City describes one city of the digest and where its data lives upstream.
type City struct {
	// Name is the display name used in the digest, e.g. 台北市.
	Name string `yaml:"name"`
	// ForecastID is the locationName of the 36-hour forecast, e.g. 臺北市.
	ForecastID string `yaml:"forecast_id"`
	// TownshipDataset is the township forecast dataset, e.g. F-D0047-061.
	TownshipDataset string `yaml:"township_dataset"`
	// StationKeywords select the observation stations of the city by
	// station or county name. Empty means the display name alone.
	StationKeywords []string `yaml:"station_keywords"`
}

// DefaultCities is the built-in city table.
var DefaultCities = []City{
	{
		Name:            "台北市",
		ForecastID:      "臺北市",
		TownshipDataset: "F-D0047-061",
		StationKeywords: []string{"臺北", "台北", "北市"},
	},
	{
		Name:            "新北市",
		ForecastID:      "新北市",
		TownshipDataset: "F-D0047-069",
		StationKeywords: []string{"新北", "板橋", "三重", "中和", "新莊", "新店"},
	},
	{
		Name:            "桃园市",
		ForecastID:      "桃園市",
		TownshipDataset: "F-D0047-005",
		StationKeywords: []string{"桃園", "桃园", "中壢", "平鎮", "八德"},
	},
}

func (c City) keywords() []string {
	if len(c.StationKeywords) == 0 {
		return []string{c.Name}
	}
	return c.StationKeywords
}
