package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
	"github.com/couchcryptid/deforestation-alerts/internal/impact"
	"github.com/couchcryptid/deforestation-alerts/internal/narrative"
	"github.com/couchcryptid/deforestation-alerts/internal/observability"
	"github.com/couchcryptid/deforestation-alerts/internal/patch"
)

// Notifier publishes a completion notice after a job reaches COMPLETED.
// Delivery is best effort; failures never affect the job record.
type Notifier interface {
	NotifyCompleted(ctx context.Context, notice domain.CompletionNotice) error
}

// Archiver persists terminal job records for later retrieval.
type Archiver interface {
	Put(ctx context.Context, job domain.AnalysisJob) error
}

// SubmitRequest carries everything needed to start one analysis.
type SubmitRequest struct {
	Region    domain.BBox
	Before    domain.DateWindow
	After     domain.DateWindow
	BiomeHint domain.Biome // empty means latitude-derived
}

// Deps wires the coordinator's collaborators. Notifier and Archiver may be
// nil when the corresponding sink is disabled.
type Deps struct {
	Registry   *Registry
	Imagery    domain.ImagerySource
	Classifier domain.Classifier
	Extractor  *patch.Extractor
	Model      *impact.Model
	Notifier   Notifier
	Archiver   Archiver
	Logger     *slog.Logger
	Metrics    *observability.Metrics

	// MaxConcurrent bounds the number of pipelines running at once.
	// Submissions beyond the bound stay PENDING until a slot frees up.
	MaxConcurrent int64
}

// Coordinator runs the analysis pipeline for submitted jobs and serializes
// re-modeling of completed ones.
type Coordinator struct {
	registry   *Registry
	imagery    domain.ImagerySource
	classifier domain.Classifier
	extractor  *patch.Extractor
	model      *impact.Model
	notifier   Notifier
	archiver   Archiver
	logger     *slog.Logger
	metrics    *observability.Metrics
	sem        *semaphore.Weighted
}

// NewCoordinator creates a Coordinator from its dependency set.
func NewCoordinator(d Deps) *Coordinator {
	if d.MaxConcurrent < 1 {
		d.MaxConcurrent = 1
	}
	return &Coordinator{
		registry:   d.Registry,
		imagery:    d.Imagery,
		classifier: d.Classifier,
		extractor:  d.Extractor,
		model:      d.Model,
		notifier:   d.Notifier,
		archiver:   d.Archiver,
		logger:     d.Logger,
		metrics:    d.Metrics,
		sem:        semaphore.NewWeighted(d.MaxConcurrent),
	}
}

// CheckReadiness reports whether the coordinator can accept work. The
// pipeline is request-driven, so readiness only requires construction to
// have completed.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if c.registry == nil {
		return errors.New("job registry not configured")
	}
	return nil
}

// Submit registers a PENDING job and launches its pipeline in the
// background. The pipeline is detached from the caller's cancellation: a
// dropped HTTP connection never aborts a running analysis.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) domain.AnalysisJob {
	job := c.registry.Create(req.Region, req.BiomeHint)
	c.logger.Info("analysis submitted",
		"analysis_id", job.ID,
		"region", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", req.Region.West, req.Region.South, req.Region.East, req.Region.North),
	)
	go c.run(context.WithoutCancel(ctx), job.ID, req)
	return job
}

func (c *Coordinator) run(ctx context.Context, id string, req SubmitRequest) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		c.fail(ctx, id, fmt.Errorf("acquire pipeline slot: %w", err))
		return
	}
	defer c.sem.Release(1)

	start := time.Now()
	c.metrics.AnalysesStarted.Inc()
	c.metrics.AnalysesRunning.Inc()
	defer c.metrics.AnalysesRunning.Dec()

	c.progress(id, domain.JobRunning, 5)

	pair, err := c.imagery.FetchPair(ctx, req.Region, req.Before, req.After)
	if err != nil {
		c.fail(ctx, id, err)
		return
	}
	c.progress(id, domain.JobRunning, 30)

	change, err := domain.ComputeChange(pair.Before, pair.After)
	if err != nil {
		c.fail(ctx, id, err)
		return
	}
	c.progress(id, domain.JobRunning, 45)

	severity := c.classifier.Classify(change)
	c.progress(id, domain.JobRunning, 60)

	patches, err := c.extractor.Extract(change, severity)
	if err != nil {
		c.fail(ctx, id, err)
		return
	}
	c.progress(id, domain.JobRunning, 80)

	// Every fresh analysis starts from the natural-regeneration baseline;
	// callers switch scenarios afterwards through Remodel.
	patches, agg := c.model.Apply(patches, domain.ScenarioNaturalRegeneration, req.BiomeHint)
	c.progress(id, domain.JobRunning, 95)

	job, err := c.registry.update(id, func(j *domain.AnalysisJob) {
		j.State = domain.JobCompleted
		j.Progress = 100
		j.Patches = patches
		j.PatchCount = len(patches)
		j.TotalAreaHectares = totalArea(patches)
		j.Scenario = domain.ScenarioNaturalRegeneration
		j.Impact = &agg
		j.Error = ""
		j.Narrative = c.buildNarrative(*j)
	})
	if err != nil {
		c.logger.Error("publish completed job failed", "analysis_id", id, "error", err)
		return
	}

	elapsed := time.Since(start)
	c.metrics.AnalysesCompleted.Inc()
	c.metrics.AnalysisDuration.Observe(elapsed.Seconds())
	c.metrics.PatchesPerAnalysis.Observe(float64(job.PatchCount))
	c.metrics.AreaPerAnalysis.Observe(job.TotalAreaHectares)
	c.logger.Info("analysis completed",
		"analysis_id", id,
		"patches", job.PatchCount,
		"total_area_ha", job.TotalAreaHectares,
		"duration", elapsed,
	)

	c.notify(ctx, job)
	c.archive(ctx, job)
}

// Remodel recomputes a completed job's impact under a different restoration
// scenario. Concurrent calls for the same job are serialized; the record
// only ever reflects one fully applied scenario.
func (c *Coordinator) Remodel(ctx context.Context, id, scenarioKey string) (domain.AnalysisJob, domain.ScenarioDelta, error) {
	e := c.registry.entry(id)
	if e == nil {
		return domain.AnalysisJob{}, domain.ScenarioDelta{}, domain.ErrJobNotFound
	}

	e.remodelMu.Lock()
	defer e.remodelMu.Unlock()

	snap := *e.snapshot.Load()
	if snap.State != domain.JobCompleted {
		return domain.AnalysisJob{}, domain.ScenarioDelta{}, fmt.Errorf("%w: job %s is %s", domain.ErrJobNotComplete, id, snap.State)
	}

	updated, agg, delta, err := c.model.Remodel(snap.Patches, scenarioKey, snap.BiomeHint)
	if err != nil {
		c.metrics.RemodelRequests.WithLabelValues(scenarioKey, "error").Inc()
		return domain.AnalysisJob{}, domain.ScenarioDelta{}, err
	}

	job, err := c.registry.update(id, func(j *domain.AnalysisJob) {
		j.Patches = updated
		j.Scenario = domain.Scenario(scenarioKey)
		j.Impact = &agg
		j.Narrative = c.buildNarrative(*j)
	})
	if err != nil {
		return domain.AnalysisJob{}, domain.ScenarioDelta{}, err
	}

	c.metrics.RemodelRequests.WithLabelValues(scenarioKey, "success").Inc()
	c.logger.Info("analysis re-modeled",
		"analysis_id", id,
		"scenario", scenarioKey,
		"regrowth_months_saved", delta.RegrowthMonthsSaved,
	)
	c.archive(ctx, job)
	return job, delta, nil
}

func (c *Coordinator) progress(id string, state domain.JobState, pct int) {
	if _, err := c.registry.update(id, func(j *domain.AnalysisJob) {
		j.State = state
		j.Progress = pct
	}); err != nil {
		c.logger.Error("publish progress failed", "analysis_id", id, "error", err)
	}
}

func (c *Coordinator) fail(ctx context.Context, id string, cause error) {
	c.metrics.AnalysesFailed.Inc()
	// Progress stays at the last checkpoint reached; a fetch failure reads
	// as FAILED at 5%, not 100%.
	job, err := c.registry.update(id, func(j *domain.AnalysisJob) {
		j.State = domain.JobFailed
		j.Error = cause.Error()
	})
	if err != nil {
		c.logger.Error("publish failed job failed", "analysis_id", id, "error", err)
		return
	}
	c.logger.Error("analysis failed", "analysis_id", id, "error", cause)
	c.archive(ctx, job)
}

func (c *Coordinator) notify(ctx context.Context, job domain.AnalysisJob) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyCompleted(ctx, job.Notice()); err != nil {
		c.metrics.NotificationErrors.Inc()
		c.logger.Error("completion notification failed", "analysis_id", job.ID, "error", err)
		return
	}
	c.metrics.NotificationsPublished.Inc()
}

func (c *Coordinator) archive(ctx context.Context, job domain.AnalysisJob) {
	if c.archiver == nil {
		return
	}
	if err := c.archiver.Put(ctx, job); err != nil {
		c.logger.Error("archive job failed", "analysis_id", job.ID, "error", err)
	}
}

func (c *Coordinator) buildNarrative(job domain.AnalysisJob) string {
	if job.Impact == nil || job.PatchCount == 0 {
		return ""
	}
	summary := narrative.Summary{
		PatchCount:        job.PatchCount,
		TotalAreaHectares: job.TotalAreaHectares,
		WorstSeverity:     worstSeverity(job.Patches),
		Region:            job.Region,
		Impact:            *job.Impact,
	}
	if job.Scenario != domain.ScenarioIntensiveRestoration {
		_, best := c.model.Apply(job.Patches, domain.ScenarioIntensiveRestoration, job.BiomeHint)
		summary.BestCaseRegrowthMonths = best.AvgRegrowthMonths
	}
	return narrative.Generate(summary, domain.Now())
}

func totalArea(patches []domain.Patch) float64 {
	var total float64
	for _, p := range patches {
		total += p.AreaHectares
	}
	return total
}

func worstSeverity(patches []domain.Patch) domain.Severity {
	worst := domain.SeverityNone
	for _, p := range patches {
		if p.Severity > worst {
			worst = p.Severity
		}
	}
	return worst
}
