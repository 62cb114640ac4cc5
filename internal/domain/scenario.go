package domain

import "fmt"

// Scenario is a named restoration strategy with fixed speed, survival, and
// cost multipliers.
type Scenario string

const (
	ScenarioNaturalRegeneration  Scenario = "natural_regeneration"
	ScenarioAssistedPlanting     Scenario = "assisted_planting"
	ScenarioIntensiveRestoration Scenario = "intensive_restoration"
)

// ScenarioParams is the fixed multiplier set of a restoration strategy.
type ScenarioParams struct {
	RecoveryReduction float64 // fraction by which regrowth time shrinks
	Survival          float64 // expected seedling survival rate
	CostPerHectare    float64 // USD
	Label             string
}

var scenarioParams = map[Scenario]ScenarioParams{
	ScenarioNaturalRegeneration:  {RecoveryReduction: 0, Survival: 0.60, CostPerHectare: 0, Label: "Natural Regeneration"},
	ScenarioAssistedPlanting:     {RecoveryReduction: 0.40, Survival: 0.75, CostPerHectare: 1200, Label: "Assisted Planting"},
	ScenarioIntensiveRestoration: {RecoveryReduction: 0.65, Survival: 0.88, CostPerHectare: 3500, Label: "Intensive Restoration"},
}

// ParseScenario validates a scenario key, failing with ErrUnknownScenario.
func ParseScenario(key string) (Scenario, error) {
	s := Scenario(key)
	if _, ok := scenarioParams[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, key)
	}
	return s, nil
}

// Params returns the scenario's multiplier set.
func (s Scenario) Params() ScenarioParams { return scenarioParams[s] }
