package resolver

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"github.com/Pranavsingh431/thermo-final/models"
)

// TowersToGeoJSON exports the registry as a FeatureCollection for map
// overlays. Towers without a surveyed position are left out.
func TowersToGeoJSON(towers []models.Tower) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, tower := range towers {
		if tower.Latitude == nil || tower.Longitude == nil {
			continue
		}
		feature := geojson.NewPointFeature([]float64{*tower.Longitude, *tower.Latitude})
		feature.SetProperty("id", tower.ID)
		feature.SetProperty("name", tower.Name)
		feature.SetProperty("camp", tower.Camp)
		feature.SetProperty("voltage_kv", tower.VoltageKV)
		feature.SetProperty("capacity_amps", tower.CapacityAmps)
		fc.AddFeature(feature)
	}
	return fc
}

// ParseTowers reads a registry FeatureCollection, the inverse of
// TowersToGeoJSON. Features without a point geometry or a name are skipped
// rather than failing the whole file.
func ParseTowers(data []byte) ([]models.Tower, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tower registry: %w", err)
	}

	var towers []models.Tower
	for _, feature := range fc.Features {
		if feature.Geometry == nil || !feature.Geometry.IsPoint() || len(feature.Geometry.Point) < 2 {
			continue
		}
		name := feature.PropertyMustString("name", "")
		if name == "" {
			continue
		}
		lon, lat := feature.Geometry.Point[0], feature.Geometry.Point[1]
		towers = append(towers, models.Tower{
			Name:         name,
			Camp:         feature.PropertyMustString("camp", ""),
			VoltageKV:    feature.PropertyMustFloat64("voltage_kv", 0),
			CapacityAmps: feature.PropertyMustFloat64("capacity_amps", 0),
			AgeYears:     feature.PropertyMustFloat64("age_years", 0),
			Latitude:     &lat,
			Longitude:    &lon,
		})
	}
	return towers, nil
}
