package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 7, 30, 6, 5, 0, 0, time.UTC)
	alert, ok := domain.NewAlert("豪雨特报", "臺北市地区预报有豪雨", "臺北市", domain.HazardRainfall, "regional-hazard",
		domain.WithValidity(domain.Validity{Start: "2025-07-30 14:00:00", End: "2025-07-30 23:00:00"}))
	require.True(t, ok)

	msg, err := serializeToMessage("run-1", now, alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("regional-hazard"), msg.Key)
	require.Len(t, msg.Headers, 4)
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "rainfall", headers["hazard"])
	assert.Equal(t, "municipality", headers["region_kind"])
	assert.Equal(t, "run-1", headers["run_id"])
	assert.Equal(t, now.Format(time.RFC3339), headers["published_at"])

	var decoded AlertMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.True(t, decoded.PublishedAt.Equal(now))
	assert.Equal(t, alert, decoded.Alert)
}

func TestSerializeToMessage_JSONShape(t *testing.T) {
	mag := 5.6
	alert, _ := domain.NewAlert("地震报告", "花蓮縣近海發生規模5.6地震", "花蓮縣政府東方 30 公里", domain.HazardEarthquake, "earthquake-significant",
		domain.WithMeasurements(domain.Measurements{Magnitude: &mag}))

	msg, err := serializeToMessage("run-2", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), alert)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"region_kind":"county"`)
	assert.Contains(t, string(msg.Value), `"magnitude":5.6`)
	assert.NotContains(t, string(msg.Value), `"depth_km"`)
}

func TestPublishAlerts_EmptyIsNoop(t *testing.T) {
	// No broker is reachable at this address; an empty batch must not dial.
	w := NewWriter([]string{"127.0.0.1:1"}, "weather-alerts", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()
	assert.NoError(t, w.PublishAlerts(context.Background(), "run-1", nil))
}
