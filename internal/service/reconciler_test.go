package service

import (
	"context"
	"testing"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStepSource() *fakeStepSource {
	return &fakeStepSource{steps: []StepDescriptor{
		{Name: "step_a", Title: "Step A"},
		{Name: "step_b", Title: "Step B"},
	}}
}

func newTestReconciler(t *testing.T, repo *memRepo, src StepSource, timeoutMinutes int) (*Reconciler, *fakeNotifier) {
	t.Helper()
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	rec := NewReconciler(repo, src, notifier, func() int { return timeoutMinutes }, log)
	return rec, notifier
}

func seedRun(t *testing.T, repo *memRepo, mutate func(*domain.Run)) *domain.Run {
	t.Helper()
	run := domain.NewRun(domain.InputFiles{})
	if mutate != nil {
		mutate(run)
	}
	require.NoError(t, repo.Create(context.Background(), run))
	return run
}

func TestSyncCompletesRunWhenAllStepsFinished(t *testing.T) {
	repo := newMemRepo()
	rec, notifier := newTestReconciler(t, repo, twoStepSource(), 60)

	run := seedRun(t, repo, func(r *domain.Run) {
		r.CurrentStep = "step_b"
		r.StartedSteps = []domain.StepRecord{
			{Name: "step_a", Status: domain.StepStatusCompleted},
			{Name: "step_b", Status: domain.StepStatusSkipped},
		}
	})

	require.NoError(t, rec.Sync(context.Background(), run.RunID, nil))

	got, err := repo.GetByID(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
	assert.Equal(t, "completed", got.CurrentStep)
	assert.NotZero(t, got.EndedAt)
	assert.Equal(t, 1, notifier.count())
}

func TestSyncDoesNotCompleteWhileStepsRemain(t *testing.T) {
	repo := newMemRepo()
	rec, notifier := newTestReconciler(t, repo, twoStepSource(), 60)

	run := seedRun(t, repo, func(r *domain.Run) {
		r.StartedSteps = []domain.StepRecord{
			{Name: "step_a", Status: domain.StepStatusCompleted},
		}
	})

	require.NoError(t, rec.Sync(context.Background(), run.RunID, nil))

	got, err := repo.GetByID(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusRunning, got.Status)
	assert.Zero(t, notifier.count())
}

func TestSyncRepointsCurrentStepToRunningStep(t *testing.T) {
	repo := newMemRepo()
	rec, _ := newTestReconciler(t, repo, twoStepSource(), 60)

	run := seedRun(t, repo, func(r *domain.Run) {
		r.CurrentStep = "step_a"
		r.StartedSteps = []domain.StepRecord{
			{Name: "step_a", Status: domain.StepStatusCompleted},
			{Name: "step_b", Status: domain.StepStatusRunning},
		}
	})

	require.NoError(t, rec.Sync(context.Background(), run.RunID, nil))

	got, err := repo.GetByID(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusRunning, got.Status)
	assert.Equal(t, "step_b", got.CurrentStep)
}

func TestSyncMergesResultsAdditively(t *testing.T) {
	repo := newMemRepo()
	rec, _ := newTestReconciler(t, repo, twoStepSource(), 60)

	run := seedRun(t, repo, func(r *domain.Run) {
		r.Results = map[string]any{"exports": map[string]any{"all_claims": "path"}}
	})

	err := rec.Sync(context.Background(), run.RunID, &CompletionData{
		Results: map[string]any{"driveFolderUrl": "https://drive.example/folder"},
	})
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Contains(t, got.Results, "exports")
	assert.Equal(t, "https://drive.example/folder", got.Results["driveFolderUrl"])
}

func TestSyncFlipsOverdueRunToTimeout(t *testing.T) {
	repo := newMemRepo()
	rec, notifier := newTestReconciler(t, repo, twoStepSource(), 60)

	run := seedRun(t, repo, func(r *domain.Run) {
		r.StartedAt = time.Now().Add(-61 * time.Minute).UnixMilli()
	})

	require.NoError(t, rec.Sync(context.Background(), run.RunID, nil))

	got, err := repo.GetByID(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusTimeout, got.Status)
	assert.Equal(t, "Pipeline timed out after 60 minutes", got.Error)
	assert.NotZero(t, got.EndedAt)
	assert.Equal(t, 1, notifier.count())
}

func TestSyncNotifiesAtMostOnce(t *testing.T) {
	repo := newMemRepo()
	rec, notifier := newTestReconciler(t, repo, twoStepSource(), 60)

	run := seedRun(t, repo, func(r *domain.Run) {
		r.Status = domain.RunStatusFailed
		r.Error = "boom"
	})

	require.NoError(t, rec.Sync(context.Background(), run.RunID, nil))
	require.NoError(t, rec.Sync(context.Background(), run.RunID, nil))

	assert.Equal(t, 1, notifier.count())
}

func TestSyncLeavesStoppedRunAlone(t *testing.T) {
	repo := newMemRepo()
	rec, notifier := newTestReconciler(t, repo, twoStepSource(), 60)

	run := seedRun(t, repo, func(r *domain.Run) {
		r.Status = domain.RunStatusStopped
		r.StartedSteps = []domain.StepRecord{
			{Name: "step_a", Status: domain.StepStatusCompleted},
			{Name: "step_b", Status: domain.StepStatusStopped},
		}
	})

	require.NoError(t, rec.Sync(context.Background(), run.RunID, nil))

	got, err := repo.GetByID(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusStopped, got.Status)
	assert.Zero(t, notifier.count())
}

func TestSyncIgnoresMissingRun(t *testing.T) {
	repo := newMemRepo()
	rec, _ := newTestReconciler(t, repo, twoStepSource(), 60)

	assert.NoError(t, rec.Sync(context.Background(), "no-such-run", nil))
}
