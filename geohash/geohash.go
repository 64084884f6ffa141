// Package geohash buckets event locations into geohash cells so a country
// profile can be drawn as a density map instead of one marker per event.
package geohash

import (
	"sort"

	"github.com/mmcloughlin/geohash"
	"github.com/pilosa/gtd/aggregate"
)

// DefaultPrecision is the number of geohash characters used for profile
// maps. A 4 character cell is roughly 39km by 20km.
const DefaultPrecision = 4

// Encode returns the geohash of a location with precision characters.
func Encode(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// Cells counts the points falling in each geohash cell of the given
// precision, densest cell first with ties broken by hash. A precision of 0
// uses DefaultPrecision.
func Cells(points aggregate.GeoPointTable, precision uint) aggregate.GeoCellTable {
	if precision == 0 {
		precision = DefaultPrecision
	}
	counts := make(map[string]int)
	for _, p := range points {
		counts[Encode(p.Latitude, p.Longitude, precision)]++
	}
	ret := make(aggregate.GeoCellTable, 0, len(counts))
	for hsh, n := range counts {
		ret = append(ret, aggregate.GeoCell{Geohash: hsh, Count: n})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Count != ret[j].Count {
			return ret[i].Count > ret[j].Count
		}
		return ret[i].Geohash < ret[j].Geohash
	})
	return ret
}
