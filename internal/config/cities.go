package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/weather-digest-service/internal/forecast"
	"github.com/couchcryptid/weather-digest-service/internal/warning"
)

// table is the CITIES_FILE document. Sections left out keep their built-in
// defaults.
type table struct {
	Cities      []forecast.City      `yaml:"cities"`
	ScanTargets []warning.ScanTarget `yaml:"scan_targets"`
	Counties    []string             `yaml:"counties"`
}

func loadTable(path string) (table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return table{}, fmt.Errorf("read CITIES_FILE: %w", err)
	}
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return table{}, fmt.Errorf("parse CITIES_FILE: %w", err)
	}

	for i, c := range t.Cities {
		if c.Name == "" || c.ForecastID == "" {
			return table{}, fmt.Errorf("CITIES_FILE: city %d needs name and forecast_id", i)
		}
	}
	for i, s := range t.ScanTargets {
		if s.City == "" || s.Dataset == "" {
			return table{}, fmt.Errorf("CITIES_FILE: scan target %d needs city and dataset", i)
		}
	}

	if len(t.Cities) == 0 {
		t.Cities = forecast.DefaultCities
	}
	if len(t.ScanTargets) == 0 {
		t.ScanTargets = warning.DefaultScanTargets
	}
	if len(t.Counties) == 0 {
		t.Counties = warning.DefaultCounties
	}
	return t, nil
}
