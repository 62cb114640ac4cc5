package patch

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

func gridRef(rows, cols int) domain.GeoRef {
	return domain.GeoRef{
		Bounds: domain.BBox{
			West:  0,
			South: -float64(rows) * cellDeg,
			East:  float64(cols) * cellDeg,
			North: 0,
		},
		Dx:    cellDeg,
		Dy:    cellDeg,
		Proj4: testProj,
	}
}

// comp builds a component from row-major indices.
func comp(indices ...int) *component {
	c := &component{member: make(map[int]bool), firstIdx: indices[0]}
	for _, idx := range indices {
		c.cells = append(c.cells, idx)
		c.member[idx] = true
	}
	return c
}

func TestSignedArea_Orientation(t *testing.T) {
	ccw := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	assert.InDelta(t, 1.0, signedArea(ccw), 1e-12)

	cw := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	assert.InDelta(t, -1.0, signedArea(cw), 1e-12)
}

func TestTraceBoundary_SingleCell(t *testing.T) {
	poly := traceBoundary(comp(0), gridRef(3, 3), 3, 3)
	require.Len(t, poly, 1)

	ring := poly[0]
	require.Len(t, ring, 4)
	assert.Positive(t, signedArea(ring), "outer ring is counter-clockwise")

	// Cell (0,0) spans the grid's northwest pixel.
	for _, p := range ring {
		assert.InDelta(t, cellDeg/2, p.X, cellDeg/2+1e-12)
		assert.InDelta(t, -cellDeg/2, p.Y, cellDeg/2+1e-12)
	}
}

func TestTraceBoundary_RectangleArea(t *testing.T) {
	// A 2x3 block in a 4x4 grid: rows 1-2, cols 0-2.
	poly := traceBoundary(comp(4, 5, 6, 8, 9, 10), gridRef(4, 4), 4, 4)
	require.Len(t, poly, 1)

	area := planarAreaM2(poly) // CRS units, but the shoelace ratio is what matters
	assert.InDelta(t, 6*cellDeg*cellDeg, area, 1e-12)
}

func TestTraceBoundary_HoleIsClockwise(t *testing.T) {
	// 3x3 ring with the center missing.
	poly := traceBoundary(comp(0, 1, 2, 3, 5, 6, 7, 8), gridRef(3, 3), 3, 3)
	require.Len(t, poly, 2)

	assert.Positive(t, signedArea(poly[0]), "outer ring is counter-clockwise")
	assert.Negative(t, signedArea(poly[1]), "hole ring is clockwise")

	// Net area is 8 cells.
	assert.InDelta(t, 8*cellDeg*cellDeg, planarAreaM2(poly), 1e-12)
}

func TestTraceBoundary_LShape(t *testing.T) {
	// L-shaped component exercises a reentrant corner.
	poly := traceBoundary(comp(0, 3, 4), gridRef(3, 3), 3, 3)
	require.Len(t, poly, 1)
	assert.InDelta(t, 3*cellDeg*cellDeg, planarAreaM2(poly), 1e-12)
}

func TestTraceBoundary_DiagonalCellsKeepBothRings(t *testing.T) {
	// A diagonal pair (8-connected component): two outer rings sharing one
	// corner; neither may be dropped.
	poly := traceBoundary(comp(0, 5), gridRef(4, 4), 4, 4)
	require.Len(t, poly, 2)

	assert.Positive(t, signedArea(poly[0]), "both rings are outer rings")
	assert.Positive(t, signedArea(poly[1]), "both rings are outer rings")
	assert.InDelta(t, 2*cellDeg*cellDeg, planarAreaM2(poly), 1e-12)
}

func TestFindComponents_MaxSeverityWins(t *testing.T) {
	labels := []domain.Severity{
		domain.SeverityLow, domain.SeverityHigh, domain.SeverityNone,
		domain.SeverityLow, domain.SeverityNone, domain.SeverityNone,
		domain.SeverityNone, domain.SeverityNone, domain.SeverityMedium,
	}
	grid := domain.SeverityGrid{GeoRef: gridRef(3, 3), RowsN: 3, ColsN: 3, Labels: labels}

	comps := findComponents(grid, Connect4)
	require.Len(t, comps, 2)

	assert.Equal(t, domain.SeverityHigh, comps[0].severity)
	assert.Len(t, comps[0].cells, 3)
	assert.Equal(t, domain.SeverityMedium, comps[1].severity)
	assert.Len(t, comps[1].cells, 1)
}

func TestFindComponents_OrderedByFirstCell(t *testing.T) {
	labels := make([]domain.Severity, 16)
	labels[14] = domain.SeverityLow
	labels[2] = domain.SeverityLow
	labels[8] = domain.SeverityLow
	grid := domain.SeverityGrid{GeoRef: gridRef(4, 4), RowsN: 4, ColsN: 4, Labels: labels}

	comps := findComponents(grid, Connect4)
	require.Len(t, comps, 3)
	assert.Equal(t, 2, comps[0].firstIdx)
	assert.Equal(t, 8, comps[1].firstIdx)
	assert.Equal(t, 14, comps[2].firstIdx)
}

func TestSimplifyRings_RemovesCollinearPoints(t *testing.T) {
	// A 1x2 block traced cell by cell has collinear midpoints on its long
	// sides; half-pixel tolerance should reduce it to the 4 corners.
	poly := traceBoundary(comp(0, 1), gridRef(2, 2), 2, 2)
	require.Len(t, poly, 1)
	require.Greater(t, len(poly[0]), 4)

	simplified := simplifyRings(poly, 0.5*cellDeg)
	require.Len(t, simplified, 1)
	assert.Less(t, len(simplified[0]), len(poly[0]))
	assert.GreaterOrEqual(t, len(simplified[0]), 4)
	assert.InDelta(t, 2*cellDeg*cellDeg, planarAreaM2(simplified), 1e-12)
}
