// Package domain models satellite-derived deforestation analyses.
//
// # Data Source
//
// Analyses operate on pairs of co-registered NDVI rasters (a "before" and an
// "after" snapshot of the same area). NDVI is a normalized vegetation
// reflectance index in [-1, 1]; higher values indicate denser live vegetation.
// The imagery collaborator is responsible for delivering both rasters with
// identical shape, bounds, pixel size, and coordinate reference system. The
// bundled synthetic source produces Sentinel-2-like 256x256 scenes for demo
// deployments.
//
// # Change and Severity Conventions
//
// The change raster holds after-minus-before deltas, so vegetation loss is
// negative. Classification works on the drop magnitude (the negated delta)
// against three strictly ascending thresholds:
//
//	drop < low              → NONE
//	low ≤ drop < medium     → LOW
//	medium ≤ drop < high    → MEDIUM
//	drop ≥ high             → HIGH
//
// Default thresholds (0.3 / 0.4 / 0.5) correspond to partial canopy thinning,
// heavy thinning, and clear-cut signatures in Sentinel-2 NDVI differences.
//
// # Biomes
//
// Biomes are derived from the patch centroid latitude:
//
//	|lat| < 23.5°       tropical   (170 tC/ha, 400 stems/ha, 180 mo recovery)
//	23.5° ≤ |lat| < 50° temperate  (120 tC/ha, 300 stems/ha, 240 mo)
//	50° ≤ |lat| < 66.5° boreal     ( 60 tC/ha, 200 stems/ha, 360 mo)
//	|lat| ≥ 66.5°       tundra     ( 25 tC/ha, 100 stems/ha, 420 mo)
//
// Savanna (30 tC/ha, 80 stems/ha, 120 mo) is never inferred from latitude —
// it overlaps the tropical band — and is only selected through an explicit
// biome hint on the analysis request.
//
// # Restoration Scenarios
//
// Each scenario is a fixed multiplier set applied during impact modeling:
//
//	natural_regeneration   0% faster recovery, 60% seedling survival, $0/ha
//	assisted_planting     40% faster recovery, 75% survival, $1200/ha
//	intensive_restoration 65% faster recovery, 88% survival, $3500/ha
//
// Carbon loss converts biomass carbon to CO2-equivalent with the standard
// 44/12 ≈ 3.67 molecular weight ratio.
package domain
