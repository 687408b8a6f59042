// Package summary turns weather snapshots and aggregated alerts into the
// digest text: per-city daily lines, two-day outlooks and a warnings section.
package summary

import (
	"regexp"
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

// Buckets is the classified alert set that feeds the warnings section.
type Buckets struct {
	Typhoon      []domain.Alert
	Municipality []domain.Alert
	Other        []domain.Alert

	DroppedCounty   int
	DroppedFiltered int
}

// Len returns the number of alerts kept.
func (b Buckets) Len() int {
	return len(b.Typhoon) + len(b.Municipality) + len(b.Other)
}

var typhoonMarkers = []string{"台风", "颱風"}

// Classify sorts alerts by relevance. Typhoons are kept whatever their
// region, single municipalities are kept as is, county-level alerts are
// dropped, and everything else has county clauses stripped from its body.
// Inputs are never modified, so classifying the output again yields the same
// buckets.
func Classify(alerts []domain.Alert) Buckets {
	var b Buckets
	for _, a := range alerts {
		switch {
		case isTyphoon(a):
			b.Typhoon = append(b.Typhoon, a)
		case a.RegionKind == domain.RegionMunicipality:
			b.Municipality = append(b.Municipality, a)
		case a.RegionKind == domain.RegionCounty:
			b.DroppedCounty++
		default:
			body, ok := StripCountyClauses(a.Body)
			if !ok {
				b.DroppedFiltered++
				continue
			}
			b.Other = append(b.Other, a.WithBody(body))
		}
	}
	return b
}

func isTyphoon(a domain.Alert) bool {
	if a.Hazard == domain.HazardTyphoon {
		return true
	}
	for _, m := range typhoonMarkers {
		if strings.Contains(a.Title, m) {
			return true
		}
	}
	return false
}

var (
	clauseSplit   = regexp.MustCompile(`[，。；]`)
	countyToken   = regexp.MustCompile(`[^，、]*[縣县][^，、]*[、，]?`)
	repeatedComma = regexp.MustCompile(`、+`)
	edgeCommas    = regexp.MustCompile(`^[、，]+|[、，]+$`)
)

// StripCountyClauses drops every 、-separated token that names a county from
// each clause of body: "高雄市、屏東縣山區有大雨" keeps "高雄市". Surviving
// clauses are rejoined with ，. It reports false when nothing survives.
func StripCountyClauses(body string) (string, bool) {
	var kept []string
	for _, clause := range clauseSplit.Split(body, -1) {
		if domain.ContainsCountyMarker(clause) {
			clause = countyToken.ReplaceAllString(clause, "")
			clause = repeatedComma.ReplaceAllString(clause, "、")
			clause = edgeCommas.ReplaceAllString(clause, "")
		}
		clause = strings.TrimSpace(clause)
		if clause == "" || domain.ContainsCountyMarker(clause) {
			continue
		}
		kept = append(kept, clause)
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, "，"), true
}
