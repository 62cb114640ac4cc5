// Package impact estimates ecological and economic consequences of
// deforestation patches under restoration scenarios.
package impact

import (
	"fmt"
	"math"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// carbonToCO2 converts tonnes of biomass carbon to tonnes of CO2-equivalent
// (molecular weight ratio 44/12).
const carbonToCO2 = 3.67

// Rounding is the configurable rounding policy for model outputs. It is a
// policy, not a hidden constant: deployments disagree on whether a
// "minimum viable" recovery window is one season or one year.
type Rounding struct {
	// MinRegrowthMonths floors the regrowth estimate; it is never zero.
	MinRegrowthMonths int
}

// Model computes per-patch and aggregate impact.
type Model struct {
	rounding Rounding
}

// NewModel creates a Model. A zero MinRegrowthMonths defaults to 12.
func NewModel(r Rounding) *Model {
	if r.MinRegrowthMonths <= 0 {
		r.MinRegrowthMonths = 12
	}
	return &Model{rounding: r}
}

// PatchImpact estimates carbon loss, replanting need, recovery time, and cost
// for one patch under the given scenario. A non-empty biome hint overrides
// the latitude-derived biome (the savanna case, which latitude alone cannot
// distinguish from tropical forest).
func (m *Model) PatchImpact(p domain.Patch, scenario domain.Scenario, hint domain.Biome) domain.Impact {
	biome := domain.BiomeForLatitude(p.Centroid.Lat)
	if hint != "" {
		biome = hint
	}
	bp := biome.Params()
	sp := scenario.Params()

	months := int(math.Round(bp.BaseRegrowthMonths * (1 - sp.RecoveryReduction)))
	if months < m.rounding.MinRegrowthMonths {
		months = m.rounding.MinRegrowthMonths
	}

	return domain.Impact{
		Biome:            biome,
		Scenario:         scenario,
		CarbonLossTonnes: round1(p.AreaHectares * bp.CarbonDensity * carbonToCO2),
		TreesToReplant:   int(math.Round(p.AreaHectares * bp.TreeDensity / sp.Survival)),
		RegrowthMonths:   months,
		CostEstimateUSD:  math.Round(p.AreaHectares * sp.CostPerHectare),
	}
}

// Apply attaches a fresh impact to every patch and returns the new slice
// together with the aggregate. The input patches are not modified.
func (m *Model) Apply(patches []domain.Patch, scenario domain.Scenario, hint domain.Biome) ([]domain.Patch, domain.AggregateImpact) {
	out := make([]domain.Patch, len(patches))
	for i, p := range patches {
		p.Impact = m.PatchImpact(p, scenario, hint)
		out[i] = p
	}
	return out, m.aggregate(out, scenario)
}

// aggregate sums carbon, trees, and cost across patches and computes an
// area-weighted average regrowth time, so a large clear-cut dominates the
// recovery estimate instead of being averaged away by small fringes.
func (m *Model) aggregate(patches []domain.Patch, scenario domain.Scenario) domain.AggregateImpact {
	agg := domain.AggregateImpact{
		Scenario:      scenario,
		ScenarioLabel: scenario.Params().Label,
	}

	var totalArea, weightedMonths float64
	for _, p := range patches {
		agg.TotalCarbonLossTonnes += p.Impact.CarbonLossTonnes
		agg.TotalTreesToReplant += p.Impact.TreesToReplant
		totalArea += p.AreaHectares
		weightedMonths += float64(p.Impact.RegrowthMonths) * p.AreaHectares
	}
	if totalArea > 0 {
		agg.AvgRegrowthMonths = int(math.Round(weightedMonths / totalArea))
	}
	agg.TotalCarbonLossTonnes = round1(agg.TotalCarbonLossTonnes)
	agg.TotalCostUSD = math.Round(totalArea * scenario.Params().CostPerHectare)
	return agg
}

// Remodel recomputes the aggregate impact of an already-extracted patch set
// under a new scenario, plus its delta against the natural-regeneration
// baseline. Extraction is not re-run. It fails with ErrUnknownScenario for
// an unrecognized key.
func (m *Model) Remodel(patches []domain.Patch, scenarioKey string, hint domain.Biome) ([]domain.Patch, domain.AggregateImpact, domain.ScenarioDelta, error) {
	scenario, err := domain.ParseScenario(scenarioKey)
	if err != nil {
		return nil, domain.AggregateImpact{}, domain.ScenarioDelta{}, err
	}

	updated, agg := m.Apply(patches, scenario, hint)

	_, baseline := m.Apply(patches, domain.ScenarioNaturalRegeneration, hint)
	delta := domain.ScenarioDelta{
		RegrowthMonthsSaved: baseline.AvgRegrowthMonths - agg.AvgRegrowthMonths,
		AdditionalCostUSD:   agg.TotalCostUSD - baseline.TotalCostUSD,
	}
	if baseline.AvgRegrowthMonths > 0 {
		delta.RegrowthImprovementPct = round1(
			(1 - float64(agg.AvgRegrowthMonths)/float64(baseline.AvgRegrowthMonths)) * 100)
	}
	return updated, agg, delta, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// String renders the rounding policy for startup logs.
func (r Rounding) String() string {
	return fmt.Sprintf("min_regrowth_months=%d", r.MinRegrowthMonths)
}
