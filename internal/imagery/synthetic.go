// Package imagery provides implementations of the imagery collaborator.
//
// Only the synthetic demo source ships with the service: it generates
// reproducible Sentinel-2-like NDVI scenes modeled on the Rondônia
// deforestation frontier, so the pipeline runs end-to-end without satellite
// catalog access. A live source would implement the same
// domain.ImagerySource interface.
package imagery

import (
	"context"
	"math"
	"math/rand"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

const wgs84Proj = "+proj=longlat +datum=WGS84 +no_defs"

// demoSeed fixes the noise generator so repeated demo analyses of the same
// region produce identical rasters and therefore identical patches.
const demoSeed = 42

// clearing is a circular vegetation-loss feature burned into the after scene.
type clearing struct {
	row, col, radius int
	drop             float64
}

// Synthetic generates deterministic before/after NDVI pairs.
type Synthetic struct {
	Rows, Cols int
}

// NewSynthetic creates a demo source producing rows x cols rasters.
func NewSynthetic(rows, cols int) *Synthetic {
	return &Synthetic{Rows: rows, Cols: cols}
}

// FetchPair generates a healthy-forest scene and the same scene with four
// clearings of mixed size and severity. The date windows only exist to
// satisfy the collaborator contract; generation is deterministic.
func (s *Synthetic) FetchPair(ctx context.Context, region domain.BBox, _, _ domain.DateWindow) (domain.GridPair, error) {
	if err := ctx.Err(); err != nil {
		return domain.GridPair{}, err
	}

	rng := rand.New(rand.NewSource(demoSeed))
	before := s.forestScene(rng)
	after := s.withClearings(before, rng)

	return domain.GridPair{
		Before: domain.NewGrid(before, s.Rows, s.Cols, region, wgs84Proj),
		After:  domain.NewGrid(after, s.Rows, s.Cols, region, wgs84Proj),
	}, nil
}

// forestScene builds a healthy forest NDVI layer: dense canopy around 0.75
// with mild noise and a smooth spatial wave, clipped to [0.4, 0.95].
func (s *Synthetic) forestScene(rng *rand.Rand) []float64 {
	values := make([]float64, s.Rows*s.Cols)
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			base := 0.75 + 0.05*rng.NormFloat64()
			wave := 0.03 * math.Sin(float64(c)/20) * math.Cos(float64(r)/25)
			values[r*s.Cols+c] = clip(base+wave, 0.4, 0.95)
		}
	}
	return values
}

// withClearings burns deforestation features into a copy of the scene. The
// fixed layout mimics typical frontier patterns: one large high-severity
// clear-cut plus smaller clearings of moderate loss, with noisy edges.
func (s *Synthetic) withClearings(scene []float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(scene))
	copy(out, scene)

	scaleR := float64(s.Rows) / 256
	scaleC := float64(s.Cols) / 256
	clearings := []clearing{
		{row: int(80 * scaleR), col: int(100 * scaleC), radius: int(25 * scaleR), drop: 0.55},
		{row: int(160 * scaleR), col: int(180 * scaleC), radius: int(18 * scaleR), drop: 0.45},
		{row: int(50 * scaleR), col: int(200 * scaleC), radius: int(12 * scaleR), drop: 0.35},
		{row: int(200 * scaleR), col: int(60 * scaleC), radius: int(15 * scaleR), drop: 0.50},
	}

	for _, cl := range clearings {
		for r := max(0, cl.row-cl.radius); r <= min(s.Rows-1, cl.row+cl.radius); r++ {
			for c := max(0, cl.col-cl.radius); c <= min(s.Cols-1, cl.col+cl.radius); c++ {
				dr, dc := r-cl.row, c-cl.col
				if dr*dr+dc*dc > cl.radius*cl.radius {
					continue
				}
				idx := r*s.Cols + c
				out[idx] = clip(out[idx]-cl.drop+0.05*rng.NormFloat64(), 0.05, 0.95)
			}
		}
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
