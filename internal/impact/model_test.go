package impact

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// oneHectareTropical is the reference patch: one hectare at the equator.
func oneHectareTropical() domain.Patch {
	return domain.Patch{
		ID:           "p1",
		Centroid:     domain.Coordinate{Lon: -62.3, Lat: -3.7},
		Severity:     domain.SeverityHigh,
		AreaHectares: 1.0,
	}
}

func TestPatchImpact_TropicalBaseline(t *testing.T) {
	m := NewModel(Rounding{})

	got := m.PatchImpact(oneHectareTropical(), domain.ScenarioNaturalRegeneration, "")

	assert.Equal(t, domain.BiomeTropical, got.Biome)
	// 1 ha x 170 tC/ha x 3.67 = 623.9 tCO2e.
	assert.Equal(t, 623.9, got.CarbonLossTonnes)
	// 400 stems / 0.60 survival = 666.7, rounded.
	assert.Equal(t, 667, got.TreesToReplant)
	assert.Equal(t, 180, got.RegrowthMonths)
	assert.Equal(t, 0.0, got.CostEstimateUSD)
}

func TestPatchImpact_AssistedPlanting(t *testing.T) {
	m := NewModel(Rounding{})

	got := m.PatchImpact(oneHectareTropical(), domain.ScenarioAssistedPlanting, "")

	// Carbon loss is scenario-independent.
	assert.Equal(t, 623.9, got.CarbonLossTonnes)
	// 400 / 0.75 survival.
	assert.Equal(t, 533, got.TreesToReplant)
	// 180 x (1 - 0.40).
	assert.Equal(t, 108, got.RegrowthMonths)
	assert.Equal(t, 1200.0, got.CostEstimateUSD)
}

func TestPatchImpact_ScalesLinearlyWithArea(t *testing.T) {
	m := NewModel(Rounding{})
	p := oneHectareTropical()
	p.AreaHectares = 10.0

	got := m.PatchImpact(p, domain.ScenarioIntensiveRestoration, "")

	assert.Equal(t, 6239.0, got.CarbonLossTonnes)
	assert.Equal(t, 4545, got.TreesToReplant) // 4000 / 0.88
	assert.Equal(t, 63, got.RegrowthMonths)   // 180 x 0.35
	assert.Equal(t, 35000.0, got.CostEstimateUSD)
}

func TestPatchImpact_BiomeHintOverridesLatitude(t *testing.T) {
	m := NewModel(Rounding{})

	got := m.PatchImpact(oneHectareTropical(), domain.ScenarioNaturalRegeneration, domain.BiomeSavanna)

	assert.Equal(t, domain.BiomeSavanna, got.Biome)
	assert.Equal(t, 110.1, got.CarbonLossTonnes) // 30 x 3.67
	assert.Equal(t, 120, got.RegrowthMonths)
}

func TestPatchImpact_MinimumRegrowthFloor(t *testing.T) {
	m := NewModel(Rounding{MinRegrowthMonths: 12})
	p := oneHectareTropical()

	// Savanna under intensive restoration: 120 x 0.35 = 42 months, above
	// the floor.
	got := m.PatchImpact(p, domain.ScenarioIntensiveRestoration, domain.BiomeSavanna)
	assert.Equal(t, 42, got.RegrowthMonths)

	// A floor above the computed value clamps it.
	m = NewModel(Rounding{MinRegrowthMonths: 60})
	got = m.PatchImpact(p, domain.ScenarioIntensiveRestoration, domain.BiomeSavanna)
	assert.Equal(t, 60, got.RegrowthMonths)
}

func TestApply_AggregatesAreaWeighted(t *testing.T) {
	m := NewModel(Rounding{})
	big := oneHectareTropical()
	big.ID = "big"
	big.AreaHectares = 9.0
	small := oneHectareTropical()
	small.ID = "small"
	small.AreaHectares = 1.0
	small.Centroid.Lat = 45.0 // temperate: 240-month baseline

	patches, agg := m.Apply([]domain.Patch{big, small}, domain.ScenarioNaturalRegeneration, "")

	require.Len(t, patches, 2)
	assert.Equal(t, domain.BiomeTropical, patches[0].Impact.Biome)
	assert.Equal(t, domain.BiomeTemperate, patches[1].Impact.Biome)

	// (180x9 + 240x1) / 10 = 186.
	assert.Equal(t, 186, agg.AvgRegrowthMonths)
	// 9 x 623.9 + 1 x 440.4 (120 tC x 3.67).
	assert.Equal(t, 6055.5, agg.TotalCarbonLossTonnes)
	assert.Equal(t, 6000+500, agg.TotalTreesToReplant)
	assert.Equal(t, 0.0, agg.TotalCostUSD)
	assert.Equal(t, "Natural Regeneration", agg.ScenarioLabel)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	m := NewModel(Rounding{})
	input := []domain.Patch{oneHectareTropical()}

	withImpact, _ := m.Apply(input, domain.ScenarioAssistedPlanting, "")

	assert.Equal(t, domain.Impact{}, input[0].Impact, "input patch should keep its zero impact")
	assert.NotEqual(t, domain.Impact{}, withImpact[0].Impact)
}

func TestRemodel_AssistedDelta(t *testing.T) {
	m := NewModel(Rounding{})
	patches := []domain.Patch{oneHectareTropical()}

	updated, agg, delta, err := m.Remodel(patches, "assisted_planting", "")
	require.NoError(t, err)

	assert.Equal(t, domain.ScenarioAssistedPlanting, agg.Scenario)
	assert.Equal(t, 108, agg.AvgRegrowthMonths)
	assert.Equal(t, 1200.0, agg.TotalCostUSD)
	assert.Equal(t, 108, updated[0].Impact.RegrowthMonths)

	assert.Equal(t, 72, delta.RegrowthMonthsSaved)
	assert.Equal(t, 40.0, delta.RegrowthImprovementPct)
	assert.Equal(t, 1200.0, delta.AdditionalCostUSD)
}

func TestRemodel_NaturalBaselineIsZeroDelta(t *testing.T) {
	m := NewModel(Rounding{})
	patches := []domain.Patch{oneHectareTropical()}

	_, _, delta, err := m.Remodel(patches, "natural_regeneration", "")
	require.NoError(t, err)

	assert.Equal(t, domain.ScenarioDelta{}, delta)
}

func TestRemodel_UnknownScenario(t *testing.T) {
	m := NewModel(Rounding{})

	_, _, _, err := m.Remodel([]domain.Patch{oneHectareTropical()}, "terraforming", "")
	assert.True(t, errors.Is(err, domain.ErrUnknownScenario))
}

func TestRemodel_Idempotent(t *testing.T) {
	m := NewModel(Rounding{})
	patches := []domain.Patch{oneHectareTropical()}

	first, aggFirst, _, err := m.Remodel(patches, "intensive_restoration", "")
	require.NoError(t, err)

	second, aggSecond, _, err := m.Remodel(first, "intensive_restoration", "")
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Empty(t, cmp.Diff(aggFirst, aggSecond))
}

func TestRemodel_EmptyPatchSet(t *testing.T) {
	m := NewModel(Rounding{})

	updated, agg, delta, err := m.Remodel(nil, "assisted_planting", "")
	require.NoError(t, err)

	assert.Empty(t, updated)
	assert.Equal(t, 0, agg.AvgRegrowthMonths)
	assert.Equal(t, 0.0, agg.TotalCostUSD)
	assert.Equal(t, domain.ScenarioDelta{}, delta)
}
