// Package domain models Taiwan Central Weather Administration (CWA) warning
// and forecast data after normalization.
//
// # Data Source
//
// Every dataset comes from the CWA open-data REST API:
//
//	GET https://opendata.cwa.gov.tw/api/v1/rest/datastore/{dataset}?Authorization={key}&format=JSON
//
// Responses share one envelope, {"success": "true", "records": {...}}. Any
// other success value means "no data" and is never treated as an error.
//
// # CWA Data Conventions
//
// Region names use traditional characters and an administrative suffix:
//
//	市  municipality or provincial city  (臺北市, 新竹市)
//	縣  county                           (屏東縣); 县 in simplified text
//
// Multi-region strings join names with ",", "，", "、" or a space
// ("臺中市、南投縣山區"). See [ResolveRegionKind].
//
// Time format:
//
//	Observation and earthquake times: "2006-01-02 15:04:05", Asia/Taipei.
//	Township forecasts use RFC 3339 with +08:00 ("2025-07-30T12:00:00+08:00")
//	and are normalized to the former before merging with the 36h forecast.
//
// Sentinel values:
//
//	-99 and -998 mean "not observed" for every station element and are
//	dropped before any threshold comparison.
//
// Typhoon intensity (maximum sustained wind, m/s):
//
//	>=118 强台风 | >=87 中度台风 | >=62 轻度台风 | >=34 热带风暴 | else 热带低压
//
// # Region Classification
//
// Each [Alert] carries a [RegionKind] resolved once at construction from its
// region string. The digest keeps municipality and multi-region alerts and
// drops county-level alerts as too granular.
//
// # Lifecycle
//
// Alerts and snapshots live for one run. They are built from upstream
// responses, turned into the digest, and discarded.
package domain
