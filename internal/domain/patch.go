package domain

// Coordinate is a WGS-84 longitude/latitude pair.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Patch is one connected region of classified deforestation. It is created
// once per analysis run and immutable thereafter, except for the attached
// Impact which is replaced when a job is re-modeled.
type Patch struct {
	ID string `json:"id"`

	// Coordinates holds the patch boundary as GeoJSON polygon rings in
	// WGS-84 [lon, lat] order: ring 0 is the outer boundary, any further
	// rings are holes.
	Coordinates [][][]float64 `json:"coordinates"`

	Centroid     Coordinate `json:"centroid"`
	Severity     Severity   `json:"severity"`
	AreaHectares float64    `json:"area_hectares"`

	// MeanDrop is the mean change-grid drop magnitude over member cells.
	MeanDrop float64 `json:"mean_drop"`

	// Confidence is the fraction of member cells whose drop magnitude
	// exceeds the classifier's HIGH threshold, in [0, 1].
	Confidence float64 `json:"confidence"`

	Impact Impact `json:"impact"`
}

// Impact holds the ecological and economic estimates for one patch under the
// active restoration scenario.
type Impact struct {
	Biome            Biome    `json:"biome"`
	Scenario         Scenario `json:"scenario"`
	CarbonLossTonnes float64  `json:"carbon_loss_tonnes"` // tonnes CO2-equivalent
	TreesToReplant   int      `json:"trees_to_replant"`
	RegrowthMonths   int      `json:"regrowth_months"`
	CostEstimateUSD  float64  `json:"cost_estimate_usd"`
}

// AggregateImpact rolls per-patch impacts up to the analysis level. Regrowth
// time is an area-weighted average so large patches dominate the estimate.
type AggregateImpact struct {
	Scenario              Scenario `json:"scenario"`
	ScenarioLabel         string   `json:"scenario_label"`
	TotalCarbonLossTonnes float64  `json:"total_carbon_loss_tonnes"`
	TotalTreesToReplant   int      `json:"total_trees_to_replant"`
	AvgRegrowthMonths     int      `json:"avg_regrowth_months"`
	TotalCostUSD          float64  `json:"total_cost_usd"`
}

// ScenarioDelta quantifies a scenario's improvement over the
// natural-regeneration baseline for the same patch set.
type ScenarioDelta struct {
	RegrowthMonthsSaved    int     `json:"regrowth_months_saved"`
	RegrowthImprovementPct float64 `json:"regrowth_improvement_pct"`
	AdditionalCostUSD      float64 `json:"additional_cost_usd"`
}

// PatchSummary is the per-patch slice of a completion notification.
type PatchSummary struct {
	ID           string     `json:"id"`
	Severity     Severity   `json:"severity"`
	AreaHectares float64    `json:"area_hectares"`
	Centroid     Coordinate `json:"centroid"`
	Confidence   float64    `json:"confidence"`
}

// Summary reduces a patch to its notification form.
func (p Patch) Summary() PatchSummary {
	return PatchSummary{
		ID:           p.ID,
		Severity:     p.Severity,
		AreaHectares: p.AreaHectares,
		Centroid:     p.Centroid,
		Confidence:   p.Confidence,
	}
}
