package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

func testStore(t *testing.T) *JobStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "alerts.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func completedJob(id string, createdAt time.Time) domain.AnalysisJob {
	return domain.AnalysisJob{
		ID:        id,
		State:     domain.JobCompleted,
		Progress:  100,
		Region:    domain.BBox{West: -62.4, South: -3.8, East: -62.1, North: -3.5},
		CreatedAt: createdAt,
		Patches: []domain.Patch{
			{ID: "p1", Severity: domain.SeverityHigh, AreaHectares: 12.5},
		},
		PatchCount:        1,
		TotalAreaHectares: 12.5,
		Scenario:          domain.ScenarioNaturalRegeneration,
	}
}

func TestJobStore_PutGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	job := completedJob("job-1", time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))

	require.NoError(t, s.Put(ctx, job))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.JobCompleted, got.State)
	assert.Equal(t, 12.5, got.TotalAreaHectares)
	require.Len(t, got.Patches, 1)
	assert.Equal(t, domain.SeverityHigh, got.Patches[0].Severity)
}

func TestJobStore_PutOverwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	job := completedJob("job-1", time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, s.Put(ctx, job))

	job.Scenario = domain.ScenarioAssistedPlanting
	require.NoError(t, s.Put(ctx, job))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ScenarioAssistedPlanting, got.Scenario)
}

func TestJobStore_GetNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrJobNotFound))
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(ctx, completedJob("old", base)))
	require.NoError(t, s.Put(ctx, completedJob("new", base.Add(time.Hour))))

	jobs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "new", jobs[0].ID)
	assert.Equal(t, "old", jobs[1].ID)

	jobs, err = s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "new", jobs[0].ID)
}
