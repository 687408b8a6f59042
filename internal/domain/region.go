package domain

import "strings"

// RegionKind is the administrative level of an alert's region.
type RegionKind string

const (
	RegionMunicipality RegionKind = "municipality"
	RegionCounty       RegionKind = "county"
	RegionMulti        RegionKind = "multi"
	RegionOther        RegionKind = "other"
)

const municipalityMarker = "市"

// CountyMarkers are the traditional and simplified county suffixes.
var CountyMarkers = []string{"縣", "县"}

// RegionSeparators split multi-region strings.
var RegionSeparators = []string{",", "，", "、", " "}

// ResolveRegionKind classifies a region string. Rules apply in order:
// a single name ending in 市 is a municipality, anything naming a county is
// a county, anything with separators is multi-region, the rest is other.
func ResolveRegionKind(region string) RegionKind {
	multi := containsAny(region, RegionSeparators)
	switch {
	case !multi && strings.HasSuffix(region, municipalityMarker):
		return RegionMunicipality
	case ContainsCountyMarker(region):
		return RegionCounty
	case multi:
		return RegionMulti
	default:
		return RegionOther
	}
}

// ContainsCountyMarker reports whether s names a county.
func ContainsCountyMarker(s string) bool {
	return containsAny(s, CountyMarkers)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
