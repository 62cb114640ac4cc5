package patch

import (
	"math"

	"github.com/ctessum/geom"
)

const (
	// metersPerDegree approximates one degree of latitude (and one degree of
	// longitude at the equator) on the WGS-84 ellipsoid. Good enough for
	// patch-scale area estimates.
	metersPerDegree = 111320.0

	squareMetersPerHectare = 10000.0
)

// planarAreaM2 returns the polygon area in square meters for a grid whose
// CRS units are already meters. Hole rings are wound opposite the outer ring,
// so their signed areas subtract naturally.
func planarAreaM2(poly geom.Polygon) float64 {
	var total float64
	for _, ring := range poly {
		total += signedArea(ring)
	}
	return math.Abs(total)
}

// geographicAreaM2 estimates the true ground area of a polygon whose
// coordinates are degrees. Longitude is scaled by cos(latitude) at the
// polygon centroid before applying the shoelace formula, correcting the
// east-west shrinkage away from the equator; a raw pixel-count-times-nominal
// area would overestimate high-latitude patches.
func geographicAreaM2(poly geom.Polygon, anchor geom.Point) float64 {
	lonScale := metersPerDegree * math.Cos(anchor.Y*math.Pi/180)

	var total float64
	for _, ring := range poly {
		scaled := make([]geom.Point, len(ring))
		for i, p := range ring {
			scaled[i] = geom.Point{
				X: (p.X - anchor.X) * lonScale,
				Y: (p.Y - anchor.Y) * metersPerDegree,
			}
		}
		total += signedArea(scaled)
	}
	return math.Abs(total)
}

// pixelAreaM2 returns the ground area of one pixel at the given latitude.
func pixelAreaM2(dx, dy, lat float64, geographic bool) float64 {
	if !geographic {
		return dx * dy
	}
	lonScale := metersPerDegree * math.Cos(lat*math.Pi/180)
	return dx * lonScale * dy * metersPerDegree
}
