package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-digest-service/internal/warning"
)

func TestReplay_Fixtures(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		fixtures: filepath.Join("testdata", "keelung-rain"),
		at:       time.Date(2025, 7, 30, 14, 5, 0, 0, time.FixedZone("CST", 8*3600)),
		feedPath: filepath.Join(dir, "weather.xml"),
		report:   filepath.Join(dir, "report.json"),
	}

	var out bytes.Buffer
	report, err := replay(context.Background(), opts, &out)
	require.NoError(t, err)

	assert.Equal(t, "天气预报（2025-07-30 14:05）", report.Title)
	assert.Contains(t, out.String(), report.Title)
	assert.Contains(t, out.String(), "[基隆市] 大雨特報")
	assert.Contains(t, out.String(), "alerts: 1, kept in digest: 1")

	f, err := os.Open(opts.feedPath)
	require.NoError(t, err)
	defer f.Close()
	parsed, err := gofeed.NewParser().Parse(f)
	require.NoError(t, err)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "weather-20250730T060500", parsed.Items[0].GUID)

	data, err := os.ReadFile(opts.report)
	require.NoError(t, err)
	var got runReport
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, "基隆市", got.Alerts[0].Region)

	statuses := map[string]string{}
	for _, s := range got.Sources {
		statuses[s.Source] = s.Status
	}
	assert.Equal(t, "data", statuses[warning.SourceRegionalHazard])
	assert.Equal(t, "empty", statuses[warning.SourceEarthquake])
}

func TestReplay_MissingFixtures(t *testing.T) {
	_, err := replay(context.Background(), options{fixtures: filepath.Join(t.TempDir(), "nope")}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
