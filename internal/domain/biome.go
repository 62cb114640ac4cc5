package domain

import (
	"fmt"
	"math"
)

// Biome is a latitude-derived ecological zone determining carbon and
// tree-density constants.
type Biome string

const (
	BiomeTropical  Biome = "tropical"
	BiomeTemperate Biome = "temperate"
	BiomeBoreal    Biome = "boreal"
	BiomeTundra    Biome = "tundra"
	BiomeSavanna   Biome = "savanna"
)

// BiomeParams holds the fixed ecological constants of a biome.
type BiomeParams struct {
	CarbonDensity      float64 // tonnes of carbon per hectare (IPCC Tier 1 defaults)
	TreeDensity        float64 // stems per hectare
	BaseRegrowthMonths float64 // months to canopy recovery under natural regeneration
}

var biomeParams = map[Biome]BiomeParams{
	BiomeTropical:  {CarbonDensity: 170, TreeDensity: 400, BaseRegrowthMonths: 180},
	BiomeTemperate: {CarbonDensity: 120, TreeDensity: 300, BaseRegrowthMonths: 240},
	BiomeBoreal:    {CarbonDensity: 60, TreeDensity: 200, BaseRegrowthMonths: 360},
	BiomeTundra:    {CarbonDensity: 25, TreeDensity: 100, BaseRegrowthMonths: 420},
	BiomeSavanna:   {CarbonDensity: 30, TreeDensity: 80, BaseRegrowthMonths: 120},
}

// ParseBiome validates a biome hint key. The empty string is allowed and
// means latitude-derived detection.
func ParseBiome(key string) (Biome, error) {
	if key == "" {
		return "", nil
	}
	b := Biome(key)
	if _, ok := biomeParams[b]; !ok {
		return "", fmt.Errorf("unknown biome %q", key)
	}
	return b, nil
}

// Params returns the biome's ecological constants.
func (b Biome) Params() BiomeParams { return biomeParams[b] }

// BiomeForLatitude classifies a latitude into fixed bands. Savanna is never
// returned here: it overlaps the tropical band and latitude alone cannot
// distinguish the two, so it is only selected via an explicit hint.
func BiomeForLatitude(lat float64) Biome {
	switch abs := math.Abs(lat); {
	case abs < 23.5:
		return BiomeTropical
	case abs < 50:
		return BiomeTemperate
	case abs < 66.5:
		return BiomeBoreal
	default:
		return BiomeTundra
	}
}
