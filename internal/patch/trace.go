package patch

import (
	"github.com/ctessum/geom"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// corner identifies a pixel-corner vertex. Corner (c, r) is the north-west
// corner of cell (row r, col c); valid ranges are c in [0, cols] and
// r in [0, rows].
type corner struct {
	c, r int
}

// edge is a directed boundary segment between adjacent corners, oriented so
// the component interior lies on its left. Outer rings then come out
// counter-clockwise and hole rings clockwise.
type edge struct {
	from, to corner
	used     bool
}

// traceBoundary converts a connected component into polygon rings in the
// grid's CRS coordinates. Counter-clockwise rings are outer boundaries and
// come first; clockwise rings are holes. An 8-connected component whose cells
// touch only diagonally yields several outer rings, all of which are kept so
// the polygon covers every member cell.
func traceBoundary(comp *component, ref domain.GeoRef, rows, cols int) geom.Polygon {
	edges := boundaryEdges(comp, rows, cols)
	rings := stitchRings(edges)

	var outers, holes []geom.Path
	for _, ring := range rings {
		pts := make(geom.Path, len(ring))
		for i, cr := range ring {
			pts[i] = geom.Point{
				X: ref.Bounds.West + float64(cr.c)*ref.Dx,
				Y: ref.Bounds.North - float64(cr.r)*ref.Dy,
			}
		}
		if signedArea(pts) > 0 {
			outers = append(outers, pts)
		} else {
			holes = append(holes, pts)
		}
	}
	if len(outers) == 0 {
		return nil
	}
	poly := make(geom.Polygon, 0, len(rings))
	poly = append(poly, outers...)
	poly = append(poly, holes...)
	return poly
}

// boundaryEdges emits one directed edge for every cell side whose neighbor
// is outside the component.
func boundaryEdges(comp *component, rows, cols int) []*edge {
	in := func(r, c int) bool {
		if r < 0 || r >= rows || c < 0 || c >= cols {
			return false
		}
		return comp.member[r*cols+c]
	}

	var edges []*edge
	for _, idx := range comp.cells {
		r, c := idx/cols, idx%cols
		tl := corner{c, r}
		tr := corner{c + 1, r}
		bl := corner{c, r + 1}
		br := corner{c + 1, r + 1}

		if !in(r-1, c) { // north side: east to west
			edges = append(edges, &edge{from: tr, to: tl})
		}
		if !in(r+1, c) { // south side: west to east
			edges = append(edges, &edge{from: bl, to: br})
		}
		if !in(r, c-1) { // west side: north to south
			edges = append(edges, &edge{from: tl, to: bl})
		}
		if !in(r, c+1) { // east side: south to north
			edges = append(edges, &edge{from: br, to: tr})
		}
	}
	return edges
}

// stitchRings links directed edges end-to-start into closed rings. When a
// vertex has several unused outgoing edges (an outer ring touching a hole
// ring at one corner), the edge making the sharpest left turn is taken, which
// keeps the two rings separate.
func stitchRings(edges []*edge) [][]corner {
	bySrc := make(map[corner][]*edge, len(edges))
	for _, e := range edges {
		bySrc[e.from] = append(bySrc[e.from], e)
	}

	var rings [][]corner
	for _, start := range edges {
		if start.used {
			continue
		}

		var ring []corner
		cur := start
		for {
			cur.used = true
			ring = append(ring, cur.from)
			if cur.to == start.from {
				break
			}
			next := pickNext(bySrc[cur.to], cur)
			if next == nil {
				// Open chain: cannot happen for a closed cell boundary, but
				// guard against it rather than loop forever.
				break
			}
			cur = next
		}
		if len(ring) >= 4 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// pickNext selects the unused outgoing edge with the sharpest left turn
// relative to the incoming edge, measured in geographic orientation
// (y increases northward, i.e. opposite the row axis).
func pickNext(candidates []*edge, incoming *edge) *edge {
	inDx := float64(incoming.to.c - incoming.from.c)
	inDy := float64(incoming.from.r - incoming.to.r)

	var best *edge
	bestScore := -2.0
	for _, cand := range candidates {
		if cand.used {
			continue
		}
		outDx := float64(cand.to.c - cand.from.c)
		outDy := float64(cand.from.r - cand.to.r)
		// cross > 0: left turn; 0: straight; < 0: right turn.
		score := inDx*outDy - inDy*outDx
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

// signedArea computes the shoelace area of an unclosed ring; positive for
// counter-clockwise orientation.
func signedArea(pts []geom.Point) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// simplifyRings applies Douglas-Peucker simplification with the given
// tolerance, falling back to the original polygon if simplification collapses
// it below a valid ring.
func simplifyRings(poly geom.Polygon, tolerance float64) geom.Polygon {
	simplified, ok := poly.Simplify(tolerance).(geom.Polygon)
	if !ok || len(simplified) == 0 {
		return poly
	}
	for _, ring := range simplified {
		if len(ring) < 3 {
			return poly
		}
	}
	return simplified
}
