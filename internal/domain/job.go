package domain

import "time"

// JobState is the lifecycle state of an analysis job.
type JobState string

const (
	JobPending   JobState = "PENDING"
	JobRunning   JobState = "RUNNING"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
)

// Terminal reports whether the state is final. Terminal states never change.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// AnalysisJob is the record of one deforestation analysis. Mutated only by
// the job coordinator, which publishes fully-formed snapshots; readers never
// observe a torn intermediate state. The patch list, once set on the
// COMPLETED transition, is never mutated — re-modeling replaces the whole
// slice together with the active scenario and impact.
type AnalysisJob struct {
	ID        string    `json:"analysis_id"`
	State     JobState  `json:"state"`
	Progress  int       `json:"progress"` // [0, 100]
	Region    BBox      `json:"region"`   // WGS-84
	CreatedAt time.Time `json:"created_at"`

	// BiomeHint, when set, overrides latitude-derived biome detection for
	// every patch of this analysis (the savanna case).
	BiomeHint Biome `json:"biome_hint,omitempty"`

	Patches           []Patch          `json:"patches,omitempty"`
	PatchCount        int              `json:"patch_count"`
	TotalAreaHectares float64          `json:"total_area_hectares"`
	Scenario          Scenario         `json:"scenario,omitempty"`
	Impact            *AggregateImpact `json:"aggregate_impact,omitempty"`
	Narrative         string           `json:"narrative,omitempty"`

	Error string `json:"error,omitempty"`
}

// CompletionNotice is the serializable snapshot handed to the notification
// collaborator after a successful COMPLETED transition.
type CompletionNotice struct {
	AnalysisID        string          `json:"analysis_id"`
	Timestamp         time.Time       `json:"timestamp"`
	Region            BBox            `json:"region"`
	Patches           []PatchSummary  `json:"patches"`
	PatchCount        int             `json:"patch_count"`
	TotalAreaHectares float64         `json:"total_area_hectares"`
	Impact            AggregateImpact `json:"aggregate_impact"`
}

// Notice builds the completion notification snapshot for a COMPLETED job.
func (j AnalysisJob) Notice() CompletionNotice {
	summaries := make([]PatchSummary, len(j.Patches))
	for i, p := range j.Patches {
		summaries[i] = p.Summary()
	}
	var agg AggregateImpact
	if j.Impact != nil {
		agg = *j.Impact
	}
	return CompletionNotice{
		AnalysisID:        j.ID,
		Timestamp:         Now(),
		Region:            j.Region,
		Patches:           summaries,
		PatchCount:        j.PatchCount,
		TotalAreaHectares: j.TotalAreaHectares,
		Impact:            agg,
	}
}
