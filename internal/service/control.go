package service

import (
	"context"
	"fmt"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
	"claimspipe/internal/ml"
	repoiface "claimspipe/internal/repository/iface"
	"claimspipe/internal/steps"
)

// StopResult reports what stopping a run did
type StopResult struct {
	MLTaskStopped bool
}

// ControlService implements operator actions on existing runs
type ControlService struct {
	repo       repoiface.RunRepository
	runner     *PipelineRunner
	reconciler *Reconciler
	mlClient   ml.Client
	logger     logger.Logger
}

// NewControlService creates the run control service
func NewControlService(
	repo repoiface.RunRepository,
	runner *PipelineRunner,
	reconciler *Reconciler,
	mlClient ml.Client,
	log logger.Logger,
) *ControlService {
	return &ControlService{
		repo:       repo,
		runner:     runner,
		reconciler: reconciler,
		mlClient:   mlClient,
		logger:     log.With(logger.String("component", "run_control")),
	}
}

// Stop marks a running pipeline stopped. The step loop notices at its next
// boundary; the step that was in flight is recorded as stopped here so the
// history shows where the run was cut.
func (s *ControlService) Stop(ctx context.Context, runID string) (*StopResult, error) {
	run, err := s.repo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domain.RunStatusRunning {
		return nil, fmt.Errorf("%w: cannot stop %s pipeline", ErrRunNotRunning, run.Status)
	}

	result := &StopResult{}

	// Cancel the ML task if one is still in flight
	taskID, _ := dig(run.Results, "mlEnrichment", "task_id").(string)
	mlStep := run.FindStep(steps.StepEnrichML)
	if taskID != "" && (mlStep == nil || mlStep.Status == domain.StepStatusRunning) {
		s.logger.Info("stopping ML task", logger.String("task_id", taskID))
		if err := s.mlClient.StopTask(ctx, taskID); err != nil {
			// The pipeline stop proceeds either way
			s.logger.Error("failed to stop ML task", logger.Error(err))
		}
		result.MLTaskStopped = true
	}

	now := time.Now()
	stoppedStepName := "unknown step"
	if running := run.RunningStep(); running != nil {
		stoppedStepName = running.Title
		if stoppedStepName == "" {
			stoppedStepName = running.Name
		}
		if err := s.repo.SetStepStatus(ctx, runID, running.Name, domain.StepStatusStopped, -1); err != nil {
			s.logger.Error("failed to mark step stopped", logger.Error(err))
		}
	}

	updates := map[string]any{
		"status":      domain.RunStatusStopped,
		"ended_at":    now.UnixMilli(),
		"duration_ms": now.UnixMilli() - run.StartedAt,
		"error": fmt.Sprintf("Pipeline stopped by user at %s while processing: %s",
			now.Format("3:04:05 PM"), stoppedStepName),
	}
	if err := s.repo.UpdateFields(ctx, runID, updates); err != nil {
		return nil, fmt.Errorf("failed to stop run: %w", err)
	}

	if err := s.reconciler.Sync(ctx, runID, nil); err != nil {
		s.logger.Error("failed to sync run state", logger.Error(err))
	}

	s.logger.Info("pipeline stopped",
		logger.String("run_id", runID),
		logger.String("at_step", stoppedStepName))
	return result, nil
}

// Retry reruns a failed or timed out run under its original ID
func (s *ControlService) Retry(ctx context.Context, runID string) (*domain.Run, error) {
	run, err := s.repo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domain.RunStatusFailed && run.Status != domain.RunStatusTimeout {
		return nil, ErrNotRetryable
	}

	return s.runner.Rerun(ctx, run)
}

// Rerun restarts a run regardless of how it ended, for Slack's rerun button
func (s *ControlService) Rerun(ctx context.Context, runID string) (*domain.Run, error) {
	run, err := s.repo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.runner.Rerun(ctx, run)
}
