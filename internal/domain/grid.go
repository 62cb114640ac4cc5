package domain

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// alignmentEpsilon is the tolerance, in CRS units, for comparing the
// georeferencing of two grids. A degree-scaled grid shifted by less than
// ~1 cm is still considered aligned.
const alignmentEpsilon = 1e-7

// BBox is a geographic bounding box. For WGS-84 grids the units are degrees;
// for projected grids they are the CRS units (usually meters).
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Valid reports whether the box has positive extent on both axes.
func (b BBox) Valid() bool {
	return b.West < b.East && b.South < b.North
}

// Center returns the box midpoint (x, y).
func (b BBox) Center() (float64, float64) {
	return (b.West + b.East) / 2, (b.South + b.North) / 2
}

// GeoRef is the georeferencing shared by every raster in one analysis:
// bounding box, pixel size in CRS units, and the CRS as a proj4 definition.
type GeoRef struct {
	Bounds BBox
	Dx, Dy float64
	Proj4  string
}

// Geographic reports whether the CRS is a longlat (degree-unit) reference.
func (r GeoRef) Geographic() bool {
	// proj4 longlat definitions always carry the literal projection name.
	return containsProj(r.Proj4, "longlat")
}

func containsProj(proj4, name string) bool {
	want := "+proj=" + name
	for i := 0; i+len(want) <= len(proj4); i++ {
		if proj4[i:i+len(want)] == want {
			return true
		}
	}
	return false
}

func (r GeoRef) alignedWith(o GeoRef) bool {
	return math.Abs(r.Bounds.West-o.Bounds.West) < alignmentEpsilon &&
		math.Abs(r.Bounds.South-o.Bounds.South) < alignmentEpsilon &&
		math.Abs(r.Bounds.East-o.Bounds.East) < alignmentEpsilon &&
		math.Abs(r.Bounds.North-o.Bounds.North) < alignmentEpsilon &&
		math.Abs(r.Dx-o.Dx) < alignmentEpsilon &&
		math.Abs(r.Dy-o.Dy) < alignmentEpsilon &&
		r.Proj4 == o.Proj4
}

// Grid is an immutable raster of vegetation-index values plus georeferencing.
// Row 0 is the northern edge; column 0 the western edge.
type Grid struct {
	GeoRef
	Data *sparse.DenseArray
}

// NewGrid wraps row-major values in a Grid with georeferencing derived from
// the bounding box and shape.
func NewGrid(values []float64, rows, cols int, bounds BBox, proj4 string) Grid {
	data := sparse.ZerosDense(rows, cols)
	copy(data.Elements, values)
	return Grid{
		GeoRef: GeoRef{
			Bounds: bounds,
			Dx:     (bounds.East - bounds.West) / float64(cols),
			Dy:     (bounds.North - bounds.South) / float64(rows),
			Proj4:  proj4,
		},
		Data: data,
	}
}

// Rows returns the raster height in pixels.
func (g Grid) Rows() int { return g.Data.Shape[0] }

// Cols returns the raster width in pixels.
func (g Grid) Cols() int { return g.Data.Shape[1] }

// ChangeGrid is a derived raster of per-pixel deltas (after minus before).
// Vegetation loss shows as negative values; the theoretical range for a
// normalized-difference index is [-2, 2].
type ChangeGrid struct {
	GeoRef
	Data *sparse.DenseArray
}

// Rows returns the raster height in pixels.
func (g ChangeGrid) Rows() int { return g.Data.Shape[0] }

// Cols returns the raster width in pixels.
func (g ChangeGrid) Cols() int { return g.Data.Shape[1] }

// ComputeChange derives the per-pixel change grid from two co-registered
// vegetation-index grids. It fails with ErrShapeMismatch when the grids
// differ in shape or geographic alignment. Pure: neither input is modified.
func ComputeChange(before, after Grid) (ChangeGrid, error) {
	if before.Rows() != after.Rows() || before.Cols() != after.Cols() {
		return ChangeGrid{}, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrShapeMismatch, before.Rows(), before.Cols(), after.Rows(), after.Cols())
	}
	if !before.GeoRef.alignedWith(after.GeoRef) {
		return ChangeGrid{}, fmt.Errorf("%w: georeferencing differs", ErrShapeMismatch)
	}

	delta := sparse.ZerosDense(before.Rows(), before.Cols())
	for i, v := range after.Data.Elements {
		delta.Elements[i] = v - before.Data.Elements[i]
	}
	return ChangeGrid{GeoRef: before.GeoRef, Data: delta}, nil
}
