package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRegionKind(t *testing.T) {
	tests := []struct {
		name   string
		region string
		want   RegionKind
	}{
		{"single municipality", "臺北市", RegionMunicipality},
		{"provincial city", "新竹市", RegionMunicipality},
		{"county", "屏東縣", RegionCounty},
		{"simplified county", "屏东县", RegionCounty},
		{"multi with county", "高雄市、屏東縣", RegionCounty},
		{"multi municipalities", "臺中市, 高雄市", RegionMulti},
		{"multi fullwidth comma", "臺中市，高雄市", RegionMulti},
		{"space separated", "臺中市 高雄市", RegionMulti},
		{"station", "阿里山", RegionOther},
		{"generic", "全台湾", RegionOther},
		{"empty", "", RegionOther},
		{"city inside name but not suffix", "市區北部", RegionOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRegionKind(tt.region))
		})
	}
}

func TestContainsCountyMarker(t *testing.T) {
	assert.True(t, ContainsCountyMarker("花蓮縣山區"))
	assert.True(t, ContainsCountyMarker("花莲县"))
	assert.False(t, ContainsCountyMarker("花蓮市"))
}
