// Package patch extracts classified deforestation regions from a severity
// raster into geographic polygons with true ground area.
package patch

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// wgs84Proj is the output spatial reference for patch geometry.
const wgs84Proj = "+proj=longlat +datum=WGS84 +no_defs"

// Config tunes the extractor. Zero values fall back to sensible defaults in
// NewExtractor except MinPatchHectares, where zero means no area cutoff.
type Config struct {
	// MinPatchHectares discards patches below this ground area. Patches
	// smaller than one pixel's ground area are always discarded regardless.
	MinPatchHectares float64

	// HighThreshold is the classifier's HIGH drop boundary, used as the
	// per-cell confidence cutoff.
	HighThreshold float64

	// Connectivity is the neighbor rule for grouping cells (default Connect4).
	Connectivity Connectivity

	// SimplifyFraction scales one pixel's ground size into the boundary
	// simplification tolerance (default 0.5: half a pixel removes
	// stair-stepping without losing shape).
	SimplifyFraction float64
}

// Extractor converts severity rasters into ordered patch lists.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Connectivity == 0 {
		cfg.Connectivity = Connect4
	}
	if cfg.SimplifyFraction == 0 {
		cfg.SimplifyFraction = 0.5
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract groups connected non-NONE cells into patches ordered by descending
// area. An all-NONE grid yields an empty slice, not an error. Patches with
// degenerate geometry are dropped individually; only a whole-grid problem
// (shape disagreement, unparseable CRS) aborts extraction.
func (e *Extractor) Extract(change domain.ChangeGrid, severity domain.SeverityGrid) ([]domain.Patch, error) {
	if change.Rows() != severity.Rows() || change.Cols() != severity.Cols() {
		return nil, fmt.Errorf("%w: change %dx%d vs severity %dx%d",
			domain.ErrShapeMismatch, change.Rows(), change.Cols(), severity.Rows(), severity.Cols())
	}

	toWGS84, err := e.wgs84Transform(severity.GeoRef)
	if err != nil {
		return nil, err
	}

	comps := findComponents(severity, e.cfg.Connectivity)
	rows, cols := severity.Rows(), severity.Cols()
	tolerance := e.cfg.SimplifyFraction * math.Min(severity.Dx, severity.Dy)

	type candidate struct {
		patch domain.Patch
		order int // component discovery order, deterministic tiebreak
	}
	candidates := make([]candidate, 0, len(comps))

	for i, comp := range comps {
		poly := traceBoundary(comp, severity.GeoRef, rows, cols)
		if poly == nil {
			e.logger.Debug("dropping patch", "reason", domain.ErrGeometryDegenerate.Error(), "cells", len(comp.cells))
			continue
		}
		poly = simplifyRings(poly, tolerance)

		anchor := poly.Centroid()
		areaM2, latHint := e.groundArea(poly, severity.GeoRef, anchor)

		// One pixel's ground area is the degeneracy floor: anything smaller
		// is tracing noise even if it clears the configured cutoff. The 0.999
		// factor keeps exact single-pixel patches on the right side of
		// floating-point rounding.
		if areaM2 < 0.999*pixelAreaM2(severity.Dx, severity.Dy, latHint, severity.Geographic()) {
			e.logger.Debug("dropping patch", "reason", domain.ErrGeometryDegenerate.Error(), "area_m2", areaM2)
			continue
		}
		areaHa := areaM2 / squareMetersPerHectare
		if areaHa < e.cfg.MinPatchHectares {
			continue
		}

		outPoly := poly
		if toWGS84 != nil {
			transformed, terr := poly.Transform(toWGS84)
			if terr != nil {
				e.logger.Warn("dropping patch: reprojection failed", "error", terr)
				continue
			}
			var ok bool
			if outPoly, ok = transformed.(geom.Polygon); !ok {
				e.logger.Warn("dropping patch: reprojection changed geometry type")
				continue
			}
		}
		centroid := outPoly.Centroid()

		meanDrop, confidence := e.cellStats(comp, change)

		candidates = append(candidates, candidate{
			order: i,
			patch: domain.Patch{
				ID:           uuid.NewString()[:8],
				Coordinates:  ringCoordinates(outPoly),
				Centroid:     domain.Coordinate{Lon: round(centroid.X, 6), Lat: round(centroid.Y, 6)},
				Severity:     comp.severity,
				AreaHectares: round(areaHa, 2),
				MeanDrop:     round(meanDrop, 3),
				Confidence:   round(confidence, 2),
			},
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].patch.AreaHectares != candidates[j].patch.AreaHectares {
			return candidates[i].patch.AreaHectares > candidates[j].patch.AreaHectares
		}
		return candidates[i].order < candidates[j].order
	})

	patches := make([]domain.Patch, len(candidates))
	for i, c := range candidates {
		patches[i] = c.patch
	}
	return patches, nil
}

// wgs84Transform builds a reprojection from the grid CRS to WGS-84, or nil
// when the grid is already geographic.
func (e *Extractor) wgs84Transform(ref domain.GeoRef) (proj.Transformer, error) {
	if ref.Geographic() {
		return nil, nil
	}
	gridSR, err := proj.Parse(ref.Proj4)
	if err != nil {
		return nil, fmt.Errorf("parse grid CRS %q: %w", ref.Proj4, err)
	}
	wgsSR, err := proj.Parse(wgs84Proj)
	if err != nil {
		return nil, fmt.Errorf("parse WGS-84 CRS: %w", err)
	}
	t, err := gridSR.NewTransform(wgsSR)
	if err != nil {
		return nil, fmt.Errorf("create WGS-84 transform: %w", err)
	}
	return t, nil
}

// groundArea returns the polygon's true ground area in square meters and the
// latitude used for per-pixel area correction.
func (e *Extractor) groundArea(poly geom.Polygon, ref domain.GeoRef, anchor geom.Point) (float64, float64) {
	if ref.Geographic() {
		return geographicAreaM2(poly, anchor), anchor.Y
	}
	// Projected CRS units are meters; planar area is already true ground area.
	return planarAreaM2(poly), 0
}

// cellStats computes the mean drop magnitude and the fraction of member
// cells past the HIGH threshold for one component.
func (e *Extractor) cellStats(comp *component, change domain.ChangeGrid) (meanDrop, confidence float64) {
	drops := make([]float64, len(comp.cells))
	high := 0
	for i, idx := range comp.cells {
		drop := -change.Data.Elements[idx]
		drops[i] = drop
		if drop >= e.cfg.HighThreshold {
			high++
		}
	}
	return floats.Sum(drops) / float64(len(drops)), float64(high) / float64(len(drops))
}

// ringCoordinates converts a polygon into closed GeoJSON-style rings.
func ringCoordinates(poly geom.Polygon) [][][]float64 {
	rings := make([][][]float64, len(poly))
	for i, ring := range poly {
		coords := make([][]float64, 0, len(ring)+1)
		for _, p := range ring {
			coords = append(coords, []float64{round(p.X, 6), round(p.Y, 6)})
		}
		if len(coords) > 0 {
			coords = append(coords, coords[0])
		}
		rings[i] = coords
	}
	return rings
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
