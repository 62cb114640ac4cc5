// Package job owns the analysis job lifecycle: registry of job records,
// asynchronous pipeline execution, and serialized re-modeling of completed
// analyses.
package job

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// entry holds one job's published snapshot plus its re-modeling lock.
// Writers build a complete copy of the record and publish it atomically, so
// readers never observe a partially updated job. Only one goroutine writes a
// given entry at a time: the pipeline goroutine until the job is terminal,
// then whichever caller holds remodelMu.
type entry struct {
	remodelMu sync.Mutex
	snapshot  atomic.Pointer[domain.AnalysisJob]
}

// Registry is the in-memory job store. The map is guarded by mu; individual
// records are read lock-free through their atomic snapshot pointers.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*entry)}
}

// Create registers a new PENDING job for the given region and returns its
// initial snapshot.
func (r *Registry) Create(region domain.BBox, hint domain.Biome) domain.AnalysisJob {
	job := domain.AnalysisJob{
		ID:        uuid.NewString(),
		State:     domain.JobPending,
		Region:    region,
		BiomeHint: hint,
		CreatedAt: domain.Now(),
	}
	e := &entry{}
	e.snapshot.Store(&job)

	r.mu.Lock()
	r.jobs[job.ID] = e
	r.mu.Unlock()
	return job
}

// Get returns a copy of the job's current snapshot, or ErrJobNotFound.
// Callers must treat the Patches slice as read-only; re-modeling replaces
// it wholesale rather than mutating elements in place.
func (r *Registry) Get(id string) (domain.AnalysisJob, error) {
	e := r.entry(id)
	if e == nil {
		return domain.AnalysisJob{}, domain.ErrJobNotFound
	}
	return *e.snapshot.Load(), nil
}

// List returns snapshots of all jobs, newest first.
func (r *Registry) List() []domain.AnalysisJob {
	r.mu.RLock()
	jobs := make([]domain.AnalysisJob, 0, len(r.jobs))
	for _, e := range r.jobs {
		jobs = append(jobs, *e.snapshot.Load())
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs
}

func (r *Registry) entry(id string) *entry {
	r.mu.RLock()
	e := r.jobs[id]
	r.mu.RUnlock()
	return e
}

// update copies the current snapshot, applies mutate, and publishes the
// result. The caller must be the entry's sole writer (pipeline goroutine or
// remodelMu holder).
func (r *Registry) update(id string, mutate func(*domain.AnalysisJob)) (domain.AnalysisJob, error) {
	e := r.entry(id)
	if e == nil {
		return domain.AnalysisJob{}, domain.ErrJobNotFound
	}
	next := *e.snapshot.Load()
	mutate(&next)
	e.snapshot.Store(&next)
	return next, nil
}
