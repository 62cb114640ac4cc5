package patch

import (
	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// Connectivity selects the neighbor rule used when grouping classified cells.
type Connectivity int

const (
	// Connect4 treats only edge-sharing cells as neighbors. This matches the
	// vectorization rule of common raster tooling and is the default.
	Connect4 Connectivity = 4
	// Connect8 additionally treats corner-sharing cells as neighbors.
	Connect8 Connectivity = 8
)

var offsets4 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
var offsets8 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// component is one maximal connected group of non-NONE cells. The group's
// severity is the maximum label among its members, so a high-severity core is
// never diluted by a larger low-severity fringe.
type component struct {
	cells    []int // row-major cell indices, in discovery order
	member   map[int]bool
	severity domain.Severity
	firstIdx int // smallest row-major index, used as a deterministic tiebreak
}

// findComponents groups all non-NONE cells of the severity grid using an
// iterative flood fill. Components come out ordered by their smallest cell
// index, which makes the whole extraction deterministic.
func findComponents(grid domain.SeverityGrid, conn Connectivity) []*component {
	rows, cols := grid.Rows(), grid.Cols()
	offsets := offsets4
	if conn == Connect8 {
		offsets = offsets8
	}

	visited := make([]bool, rows*cols)
	var comps []*component

	for idx := 0; idx < rows*cols; idx++ {
		if visited[idx] || grid.Labels[idx] == domain.SeverityNone {
			continue
		}

		comp := &component{member: make(map[int]bool), firstIdx: idx}
		stack := []int{idx}
		visited[idx] = true

		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			comp.cells = append(comp.cells, cur)
			comp.member[cur] = true
			if lbl := grid.Labels[cur]; lbl > comp.severity {
				comp.severity = lbl
			}

			r, c := cur/cols, cur%cols
			for _, off := range offsets {
				nr, nc := r+off[0], c+off[1]
				if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
					continue
				}
				nidx := nr*cols + nc
				if visited[nidx] || grid.Labels[nidx] == domain.SeverityNone {
					continue
				}
				visited[nidx] = true
				stack = append(stack, nidx)
			}
		}

		comps = append(comps, comp)
	}

	return comps
}
