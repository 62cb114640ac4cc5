package http

import "github.com/couchcryptid/deforestation-alerts/internal/domain"

// GeoJSON export types. Patch rings are already stored in GeoJSON
// convention (closed, [lon, lat] order), so this is pure re-framing.

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string         `json:"type"`
	Geometry   geoJSONPolygon `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoJSONPolygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// featureCollection renders a completed job's patches as a GeoJSON
// FeatureCollection, one Polygon feature per patch.
func featureCollection(j domain.AnalysisJob) geoJSONFeatureCollection {
	features := make([]geoJSONFeature, len(j.Patches))
	for i, p := range j.Patches {
		features[i] = geoJSONFeature{
			Type: "Feature",
			Geometry: geoJSONPolygon{
				Type:        "Polygon",
				Coordinates: p.Coordinates,
			},
			Properties: map[string]any{
				"id":                 p.ID,
				"analysis_id":        j.ID,
				"severity":           p.Severity.String(),
				"area_hectares":      p.AreaHectares,
				"mean_drop":          p.MeanDrop,
				"confidence":         p.Confidence,
				"biome":              string(p.Impact.Biome),
				"scenario":           string(p.Impact.Scenario),
				"carbon_loss_tonnes": p.Impact.CarbonLossTonnes,
				"trees_to_replant":   p.Impact.TreesToReplant,
				"regrowth_months":    p.Impact.RegrowthMonths,
				"cost_estimate_usd":  p.Impact.CostEstimateUSD,
			},
		}
	}
	return geoJSONFeatureCollection{Type: "FeatureCollection", Features: features}
}
