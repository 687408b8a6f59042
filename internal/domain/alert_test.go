package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlert(t *testing.T) {
	t.Run("populates fields and resolves region kind", func(t *testing.T) {
		a, ok := NewAlert(" 豪雨特报 ", "臺中市地区预报有豪雨", "臺中市", HazardRainfall, "CWA乡镇预报",
			WithValidity(Validity{Start: "2025-07-30 12:00:00"}),
			WithMeasurements(Measurements{Rainfall: Float(130)}),
		)
		require.True(t, ok)
		assert.Equal(t, "豪雨特报", a.Title)
		assert.Equal(t, RegionMunicipality, a.RegionKind)
		assert.Equal(t, "2025-07-30 12:00:00", a.Validity.Start)
		require.NotNil(t, a.Measurements.Rainfall)
		assert.InDelta(t, 130.0, *a.Measurements.Rainfall, 0.001)
	})

	t.Run("blank title is refused", func(t *testing.T) {
		_, ok := NewAlert("  ", "body", "臺北市", HazardGeneric, "x")
		assert.False(t, ok)
	})

	t.Run("blank body is refused", func(t *testing.T) {
		_, ok := NewAlert("title", "", "臺北市", HazardGeneric, "x")
		assert.False(t, ok)
	})

	t.Run("empty hazard defaults to generic", func(t *testing.T) {
		a, ok := NewAlert("title", "body", "", "", "x")
		require.True(t, ok)
		assert.Equal(t, HazardGeneric, a.Hazard)
		assert.Equal(t, RegionOther, a.RegionKind)
	})
}

func TestAlert_WithBodyLeavesOriginal(t *testing.T) {
	a, ok := NewAlert("大雨特报", "原文", "相关地区", HazardRainfall, "x")
	require.True(t, ok)

	b := a.WithBody("新文")
	assert.Equal(t, "原文", a.Body)
	assert.Equal(t, "新文", b.Body)
	assert.Equal(t, a.RegionKind, b.RegionKind)
}

func TestHazardFromText(t *testing.T) {
	tests := []struct {
		text string
		want HazardType
	}{
		{"颱風", HazardTyphoon},
		{"熱帶性低氣壓", HazardTyphoon},
		{"海嘯警報", HazardTsunami},
		{"大雨", HazardRainfall},
		{"雷陣雨", HazardRainfall},
		{"陸上強風", HazardWind},
		{"高溫資訊", HazardTemperature},
		{"低溫特報", HazardTemperature},
		{"濃霧", HazardGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, HazardFromText(tt.text))
		})
	}
}

func TestSourceResult_Status(t *testing.T) {
	a, _ := NewAlert("t", "b", "r", HazardGeneric, "s")

	assert.Equal(t, StatusEmpty, SourceResult{Source: "s"}.Status())
	assert.Equal(t, StatusData, SourceResult{Source: "s", Alerts: []Alert{a}}.Status())
	assert.Equal(t, StatusFailed, SourceResult{Source: "s", Err: assert.AnError}.Status())
	assert.Equal(t, StatusData, SourceResult{Source: "s", Alerts: []Alert{a}, Err: assert.AnError}.Status())
	assert.Equal(t, "failed", StatusFailed.String())
}
