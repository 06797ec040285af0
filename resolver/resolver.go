package resolver

import (
	"github.com/golang/geo/s2"

	"github.com/Pranavsingh431/thermo-final/models"
)

// EarthRadiusKM is the reference sphere radius for great-circle distances.
const EarthRadiusKM = 6371.0

// Distances this close count as a tie and resolve by registry order.
const tieToleranceKM = 1e-9

// DistanceKM returns the great-circle distance between two coordinates.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKM
}

// Resolve returns the registered tower nearest to the given coordinates.
// Towers without a surveyed position are skipped, never treated as distance
// zero. Equidistant towers resolve to the one registered first. A nil result
// means missing coordinates or an empty registry; downstream stages treat
// that as "use the default threshold", not as an error.
func Resolve(lat, lon *float64, towers []models.Tower) *models.AssetMatch {
	if lat == nil || lon == nil {
		return nil
	}

	var match *models.AssetMatch
	for i := range towers {
		tower := &towers[i]
		if tower.Latitude == nil || tower.Longitude == nil {
			continue
		}
		distance := DistanceKM(*lat, *lon, *tower.Latitude, *tower.Longitude)
		if match == nil || distance < match.DistanceKM-tieToleranceKM {
			match = &models.AssetMatch{Tower: tower, DistanceKM: distance}
		}
	}
	return match
}
