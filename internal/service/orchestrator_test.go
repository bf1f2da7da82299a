package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"claimspipe/internal/config"
	"claimspipe/internal/domain"
	"claimspipe/internal/drive"
	"claimspipe/internal/logger"
	"claimspipe/internal/steps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerTestSetup struct {
	runner   *PipelineRunner
	repo     *memRepo
	lock     *memLock
	notifier *fakeNotifier
}

func newTestRunner(t *testing.T, src StepSource) *runnerTestSetup {
	t.Helper()
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	cfg := &config.Config{
		SkipVPN:            true,
		ExportRoot:         t.TempDir(),
		ExportFolderFormat: "2006-01-02_15-04-05",
	}
	runtime := steps.NewRuntime(log, cfg, nil, &fakeMLClient{}, drive.NewMockClient(log, ""))

	repo := newMemRepo()
	lock := newMemLock()
	notifier := &fakeNotifier{}
	timeout := func() int { return 60 }
	reconciler := NewReconciler(repo, src, notifier, timeout, log)
	runner := NewPipelineRunner(repo, src, runtime, lock, reconciler, timeout, log)

	return &runnerTestSetup{runner: runner, repo: repo, lock: lock, notifier: notifier}
}

// recordingStep returns a descriptor that appends its name to executed
func recordingStep(name string, mu *sync.Mutex, executed *[]string) StepDescriptor {
	return StepDescriptor{
		Name:  name,
		Title: name,
		Run: func(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
			mu.Lock()
			*executed = append(*executed, name)
			mu.Unlock()
			return nil, nil
		},
	}
}

func TestExecuteRunsStepsInOrderAndCompletes(t *testing.T) {
	var mu sync.Mutex
	var executed []string
	src := &fakeStepSource{steps: []StepDescriptor{
		recordingStep("step_a", &mu, &executed),
		recordingStep("step_b", &mu, &executed),
	}}
	setup := newTestRunner(t, src)
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	require.NoError(t, setup.repo.Create(ctx, run))
	setup.runner.execute(ctx, run, domain.RunOptions{})

	assert.Equal(t, []string{"step_a", "step_b"}, executed)

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
	assert.Equal(t, "completed", got.CurrentStep)
	require.Len(t, got.StartedSteps, 2)
	assert.Equal(t, domain.StepStatusCompleted, got.StartedSteps[0].Status)
	assert.Equal(t, domain.StepStatusCompleted, got.StartedSteps[1].Status)
	assert.Equal(t, 1, setup.notifier.count())
}

func TestExecuteSkipsStepsWhoseConditionFails(t *testing.T) {
	var mu sync.Mutex
	var executed []string
	gated := recordingStep("gated", &mu, &executed)
	gated.Condition = func(domain.InputFiles) bool { return false }

	src := &fakeStepSource{steps: []StepDescriptor{
		gated,
		recordingStep("always", &mu, &executed),
	}}
	setup := newTestRunner(t, src)
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	require.NoError(t, setup.repo.Create(ctx, run))
	setup.runner.execute(ctx, run, domain.RunOptions{})

	assert.Equal(t, []string{"always"}, executed)

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
	require.Len(t, got.StartedSteps, 2)
	assert.Equal(t, domain.StepStatusSkipped, got.StartedSteps[0].Status)
}

func TestExecuteTestModeSkipsEveryStep(t *testing.T) {
	var mu sync.Mutex
	var executed []string
	src := &fakeStepSource{steps: []StepDescriptor{
		recordingStep("step_a", &mu, &executed),
		recordingStep("step_b", &mu, &executed),
	}}
	setup := newTestRunner(t, src)
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	require.NoError(t, setup.repo.Create(ctx, run))
	setup.runner.execute(ctx, run, domain.RunOptions{TestMode: true})

	assert.Empty(t, executed)

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
	require.Len(t, got.StartedSteps, 2)
	for _, rec := range got.StartedSteps {
		assert.Equal(t, domain.StepStatusSkipped, rec.Status)
	}
}

func TestExecuteSkipsStepMarkedSkip(t *testing.T) {
	var mu sync.Mutex
	var executed []string
	parked := recordingStep("parked", &mu, &executed)
	parked.Skip = true

	src := &fakeStepSource{steps: []StepDescriptor{
		parked,
		recordingStep("always", &mu, &executed),
	}}
	setup := newTestRunner(t, src)
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	require.NoError(t, setup.repo.Create(ctx, run))
	setup.runner.execute(ctx, run, domain.RunOptions{})

	assert.Equal(t, []string{"always"}, executed)

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, got.StartedSteps, 2)
	assert.Equal(t, domain.StepStatusSkipped, got.StartedSteps[0].Status)
}

func TestExecuteRecordsFailureAndStops(t *testing.T) {
	var mu sync.Mutex
	var executed []string
	src := &fakeStepSource{steps: []StepDescriptor{
		{
			Name:  "broken",
			Title: "Broken",
			Run: func(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
				return nil, errors.New("CSV validation failed")
			},
		},
		recordingStep("never", &mu, &executed),
	}}
	setup := newTestRunner(t, src)
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	require.NoError(t, setup.repo.Create(ctx, run))
	setup.runner.execute(ctx, run, domain.RunOptions{})

	assert.Empty(t, executed)

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, got.Status)
	assert.Equal(t, "CSV validation failed", got.Error)
	require.Len(t, got.StartedSteps, 1)
	assert.Equal(t, domain.StepStatusError, got.StartedSteps[0].Status)
	assert.Equal(t, "CSV validation failed", got.StartedSteps[0].Error)
	assert.Equal(t, 1, setup.notifier.count())
}

func TestExecuteStopsAtStepBoundary(t *testing.T) {
	var mu sync.Mutex
	var executed []string
	src := &fakeStepSource{steps: []StepDescriptor{
		{Name: "stopper", Title: "Stopper"},
		recordingStep("never", &mu, &executed),
	}}
	setup := newTestRunner(t, src)

	// The first step flips the run to stopped, the way the stop endpoint
	// does while a step is in flight
	src.steps[0].Run = func(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
		return nil, setup.repo.UpdateFields(ctx, pc.RunID, map[string]any{
			"status": domain.RunStatusStopped,
		})
	}
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	require.NoError(t, setup.repo.Create(ctx, run))
	setup.runner.execute(ctx, run, domain.RunOptions{})

	assert.Empty(t, executed)

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusStopped, got.Status)
	assert.Zero(t, setup.notifier.count())
}

func TestExecuteRecordsSelfReportedStatus(t *testing.T) {
	src := &fakeStepSource{steps: []StepDescriptor{
		{
			Name:  "optional",
			Title: "Optional",
			Run: func(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
				return &domain.StepOutcome{Status: domain.StepStatusSkipped}, nil
			},
		},
	}}
	setup := newTestRunner(t, src)
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	require.NoError(t, setup.repo.Create(ctx, run))
	setup.runner.execute(ctx, run, domain.RunOptions{})

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, got.StartedSteps, 1)
	assert.Equal(t, domain.StepStatusSkipped, got.StartedSteps[0].Status)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
}

func TestStartRejectsConcurrentRuns(t *testing.T) {
	setup := newTestRunner(t, &fakeStepSource{})
	ctx := context.Background()

	require.NoError(t, setup.lock.Set(ctx, runLockKey, "other-run", 0))

	_, err := setup.runner.Start(ctx, domain.InputFiles{}, domain.RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestStartReleasesLockWhenRunFinishes(t *testing.T) {
	setup := newTestRunner(t, &fakeStepSource{})
	ctx := context.Background()

	run, err := setup.runner.Start(ctx, domain.InputFiles{}, domain.RunOptions{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, err := setup.repo.GetByID(ctx, run.RunID)
		if err != nil {
			return false
		}
		held, _ := setup.lock.Get(ctx, runLockKey)
		return got.Status == domain.RunStatusCompleted && held == ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRerunResetsRunInPlace(t *testing.T) {
	var mu sync.Mutex
	var executed []string
	src := &fakeStepSource{steps: []StepDescriptor{
		recordingStep("step_a", &mu, &executed),
	}}
	setup := newTestRunner(t, src)
	ctx := context.Background()

	run := domain.NewRun(domain.InputFiles{})
	run.Status = domain.RunStatusFailed
	run.Error = "first attempt failed"
	run.SlackNotified = true
	run.Results = map[string]any{"claimsProcessed": map[string]any{"total": 12}}
	run.StartedSteps = []domain.StepRecord{
		{Name: "step_a", Status: domain.StepStatusError, Error: "first attempt failed"},
	}
	require.NoError(t, setup.repo.Create(ctx, run))

	fresh, err := setup.runner.Rerun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, fresh.RunID)

	assert.Eventually(t, func() bool {
		got, err := setup.repo.GetByID(ctx, run.RunID)
		return err == nil && got.Status == domain.RunStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	got, err := setup.repo.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Empty(t, got.Error)
	// Results from the failed attempt do not leak into the new one
	assert.NotContains(t, got.Results, "claimsProcessed")
	require.Len(t, got.StartedSteps, 1)
	assert.Equal(t, domain.StepStatusCompleted, got.StartedSteps[0].Status)
	// The reset cleared the notified flag, so the new outcome was announced
	assert.Equal(t, 1, setup.notifier.count())
}
