package service

import (
	"context"
	"fmt"
	"time"

	cache "claimspipe/internal/cache/iface"
	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
	repoiface "claimspipe/internal/repository/iface"
	"claimspipe/internal/steps"
)

// runLockKey guards against concurrent pipeline runs across all triggers
// (HTTP, queue, schedule, Slack rerun)
const runLockKey = "pipeline:run_lock"

// PipelineRunner drives pipeline runs: it creates the run record, walks the
// step list sequentially and persists every transition as it happens, so a
// watching client always sees live state.
type PipelineRunner struct {
	repo           repoiface.RunRepository
	stepSource     StepSource
	runtime        *steps.Runtime
	lock           cache.Cache
	reconciler     *Reconciler
	timeoutMinutes func() int
	logger         logger.Logger
}

// NewPipelineRunner creates the pipeline runner
func NewPipelineRunner(
	repo repoiface.RunRepository,
	stepSource StepSource,
	runtime *steps.Runtime,
	lock cache.Cache,
	reconciler *Reconciler,
	timeoutMinutes func() int,
	log logger.Logger,
) *PipelineRunner {
	return &PipelineRunner{
		repo:           repo,
		stepSource:     stepSource,
		runtime:        runtime,
		lock:           lock,
		reconciler:     reconciler,
		timeoutMinutes: timeoutMinutes,
		logger:         log.With(logger.String("component", "pipeline_runner")),
	}
}

// Start creates a new run and begins executing it in the background.
// Returns ErrRunInProgress when another run holds the lock.
func (p *PipelineRunner) Start(ctx context.Context, files domain.InputFiles, options domain.RunOptions) (*domain.Run, error) {
	run := domain.NewRun(files)

	if err := p.acquireLock(ctx, run.RunID); err != nil {
		return nil, err
	}

	if err := p.repo.Create(ctx, run); err != nil {
		p.releaseLock(context.Background())
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	p.logger.Info("pipeline run started", logger.String("run_id", run.RunID))
	go p.execute(context.Background(), run, options)

	return run, nil
}

// Rerun resets an existing run in place and executes it again under the
// same ID. A fresh start time means a fresh export folder, so the new
// attempt cannot clobber the failed one's files.
func (p *PipelineRunner) Rerun(ctx context.Context, run *domain.Run) (*domain.Run, error) {
	if err := p.acquireLock(ctx, run.RunID); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	reset := map[string]any{
		"status":         domain.RunStatusRunning,
		"current_step":   domain.CurrentStepStarting,
		"started_steps":  []domain.StepRecord{},
		"started_at":     now,
		"ended_at":       int64(0),
		"duration_ms":    int64(0),
		"error":          "",
		"results":        map[string]any{},
		"slack_notified": false,
	}
	if err := p.repo.UpdateFields(ctx, run.RunID, reset); err != nil {
		p.releaseLock(context.Background())
		return nil, fmt.Errorf("failed to reset run: %w", err)
	}

	fresh := domain.NewRun(run.Files)
	fresh.RunID = run.RunID
	fresh.StartedAt = now

	p.logger.Info("pipeline retry started", logger.String("run_id", run.RunID))
	go p.execute(context.Background(), fresh, domain.RunOptions{})

	return fresh, nil
}

func (p *PipelineRunner) acquireLock(ctx context.Context, runID string) error {
	// The lock outlives any healthy run; timeout detection will free a
	// wedged one before the TTL does
	ttl := time.Duration(p.timeoutMinutes())*time.Minute + 5*time.Minute

	ok, err := p.lock.SetNX(ctx, runLockKey, runID, ttl)
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return ErrRunInProgress
	}
	return nil
}

func (p *PipelineRunner) releaseLock(ctx context.Context) {
	if err := p.lock.Delete(ctx, runLockKey); err != nil {
		p.logger.Warn("failed to release run lock", logger.Error(err))
	}
}

// execute walks the step list for one run attempt
func (p *PipelineRunner) execute(ctx context.Context, run *domain.Run, options domain.RunOptions) {
	defer p.releaseLock(ctx)

	pc := domain.NewPipelineContext(run.Files, options, run.RunID, run.StartTime())
	defer func() {
		if err := p.runtime.DisconnectVPN(ctx, pc); err != nil {
			p.logger.Error("failed to disconnect VPN", logger.Error(err))
		}
	}()

	log := p.logger.With(logger.String("run_id", run.RunID))
	started := time.Now()

	for _, step := range p.stepSource.Steps() {
		// Re-read the run each iteration so a stop request lands at the
		// next step boundary
		current, err := p.repo.GetByID(ctx, run.RunID)
		if err != nil {
			p.failRun(ctx, run, step, fmt.Errorf("failed to read run state: %w", err))
			return
		}
		if current.Status == domain.RunStatusStopped {
			log.Info("pipeline stopped by user")
			break
		}

		// Administrative skip: the step is marked skip, or the whole run
		// is a test-mode dry run. A skipped record is still persisted so
		// the run can complete.
		if step.Skip || options.TestMode {
			reason := "marked skip"
			if options.TestMode {
				reason = "test mode"
			}
			log.Info("skipping step",
				logger.String("step", step.Name),
				logger.String("reason", reason))
			p.recordSkip(ctx, run.RunID, step, log)
			continue
		}

		if step.Condition != nil && !step.Condition(run.Files) {
			log.Info("skipping step, condition not met",
				logger.String("step", step.Name))
			p.recordSkip(ctx, run.RunID, step, log)
			continue
		}

		log.Info("running step", logger.String("step", step.Name))
		if err := p.repo.UpdateFields(ctx, run.RunID, map[string]any{"current_step": step.Name}); err != nil {
			log.Error("failed to update current step", logger.Error(err))
		}

		stepStart := time.Now()
		outcome, err := step.Run(ctx, pc)
		if err != nil {
			p.failRun(ctx, run, step, err)
			return
		}

		status := domain.StepStatusCompleted
		if outcome != nil && outcome.Status != "" {
			status = outcome.Status
		}

		if err := p.repo.AppendStep(ctx, run.RunID, domain.StepRecord{
			Name:        step.Name,
			Title:       step.Title,
			Description: step.Description,
			Status:      status,
			Timestamp:   time.Now().UnixMilli(),
			DurationMs:  time.Since(stepStart).Milliseconds(),
		}); err != nil {
			log.Error("failed to record step", logger.Error(err))
		}

		log.Info("step finished",
			logger.String("step", step.Name),
			logger.String("status", string(status)))

		if err := p.reconciler.Sync(ctx, run.RunID, nil); err != nil {
			log.Error("failed to sync run state", logger.Error(err))
		}
	}

	err := p.reconciler.Sync(ctx, run.RunID, &CompletionData{
		Results:    pc.Outputs,
		DurationMs: time.Since(started).Milliseconds(),
	})
	if err != nil {
		log.Error("failed to sync run state", logger.Error(err))
	}

	log.Info("pipeline finished",
		logger.Int64("duration_ms", time.Since(started).Milliseconds()))
}

// recordSkip points currentStep at the skipped step and persists its record
func (p *PipelineRunner) recordSkip(ctx context.Context, runID string, step StepDescriptor, log logger.Logger) {
	if err := p.repo.UpdateFields(ctx, runID, map[string]any{"current_step": step.Name}); err != nil {
		log.Error("failed to update current step", logger.Error(err))
	}
	if err := p.repo.AppendStep(ctx, runID, domain.StepRecord{
		Name:        step.Name,
		Title:       step.Title,
		Description: step.Description,
		Status:      domain.StepStatusSkipped,
		Timestamp:   time.Now().UnixMilli(),
	}); err != nil {
		log.Error("failed to record skipped step", logger.Error(err))
	}
}

// failRun records a step failure and moves the run to failed
func (p *PipelineRunner) failRun(ctx context.Context, run *domain.Run, step StepDescriptor, stepErr error) {
	p.logger.Error("pipeline failed",
		logger.String("run_id", run.RunID),
		logger.String("step", step.Name),
		logger.Error(stepErr))

	now := time.Now().UnixMilli()
	updates := map[string]any{
		"status":      domain.RunStatusFailed,
		"error":       stepErr.Error(),
		"ended_at":    now,
		"duration_ms": now - run.StartedAt,
	}
	if err := p.repo.UpdateFields(ctx, run.RunID, updates); err != nil {
		p.logger.Error("failed to record run failure", logger.Error(err))
	}

	if err := p.repo.AppendStep(ctx, run.RunID, domain.StepRecord{
		Name:        step.Name,
		Title:       step.Title,
		Description: step.Description,
		Status:      domain.StepStatusError,
		Timestamp:   now,
		Error:       stepErr.Error(),
	}); err != nil {
		p.logger.Error("failed to record failed step", logger.Error(err))
	}

	if err := p.reconciler.Sync(ctx, run.RunID, nil); err != nil {
		p.logger.Error("failed to sync run state", logger.Error(err))
	}
}
