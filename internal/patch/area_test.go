package patch

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
)

func squareAt(lon, lat, sizeDeg float64) geom.Polygon {
	return geom.Polygon{{
		{X: lon, Y: lat},
		{X: lon + sizeDeg, Y: lat},
		{X: lon + sizeDeg, Y: lat + sizeDeg},
		{X: lon, Y: lat + sizeDeg},
	}}
}

func TestGeographicArea_ShrinksWithLatitude(t *testing.T) {
	size := 0.001
	equator := squareAt(-62.4, 0, size)
	boreal := squareAt(25.0, 60, size)

	areaEq := geographicAreaM2(equator, equator.Centroid())
	areaBo := geographicAreaM2(boreal, boreal.Centroid())

	expectedEq := size * 111320.0 * size * 111320.0
	assert.InDelta(t, expectedEq, areaEq, expectedEq*0.001)

	// cos(60°) = 0.5: the same degree square covers half the ground area.
	assert.InDelta(t, 0.5, areaBo/areaEq, 0.001)
}

func TestPlanarArea_MetricUnits(t *testing.T) {
	poly := geom.Polygon{{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 200}, {X: 0, Y: 200},
	}}
	assert.InDelta(t, 20000.0, planarAreaM2(poly), 1e-9)

	// Winding direction must not matter.
	reversed := geom.Polygon{{
		{X: 0, Y: 0}, {X: 0, Y: 200}, {X: 100, Y: 200}, {X: 100, Y: 0},
	}}
	assert.InDelta(t, 20000.0, planarAreaM2(reversed), 1e-9)
}

func TestPixelArea(t *testing.T) {
	// Projected grid: pixel size is already meters.
	assert.InDelta(t, 900.0, pixelAreaM2(30, 30, 0, false), 1e-9)

	// Geographic grid at the equator.
	expected := 0.001 * 111320.0 * 0.001 * 111320.0
	assert.InDelta(t, expected, pixelAreaM2(0.001, 0.001, 0, true), 1e-6)

	// The same pixel at 60° north covers half the ground.
	assert.InDelta(t, expected*math.Cos(60*math.Pi/180), pixelAreaM2(0.001, 0.001, 60, true), 1e-6)
}
