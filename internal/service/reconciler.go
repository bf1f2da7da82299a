package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
	"claimspipe/internal/repository"
	repoiface "claimspipe/internal/repository/iface"
)

// CompletionData carries optional extras into a reconcile pass
type CompletionData struct {
	// Results is merged additively into the run's persisted results
	Results map[string]any

	// DurationMs overrides the computed duration when the run completes
	DurationMs int64
}

// Reconciler centralizes run state transitions. Every writer (the step loop,
// the stop endpoint, the ML webhook) funnels through Sync after mutating a
// run, so timeout detection, completion detection and the finish
// notification live in exactly one place.
type Reconciler struct {
	repo           repoiface.RunRepository
	stepSource     StepSource
	notifier       Notifier
	timeoutMinutes func() int
	logger         logger.Logger
}

// NewReconciler creates the run state reconciler. timeoutMinutes is read on
// every pass so the limit can change without a restart.
func NewReconciler(
	repo repoiface.RunRepository,
	stepSource StepSource,
	notifier Notifier,
	timeoutMinutes func() int,
	log logger.Logger,
) *Reconciler {
	return &Reconciler{
		repo:           repo,
		stepSource:     stepSource,
		notifier:       notifier,
		timeoutMinutes: timeoutMinutes,
		logger:         log.With(logger.String("component", "run_reconciler")),
	}
}

// Sync re-derives a run's aggregate state from its step records and
// persists whatever changed
func (r *Reconciler) Sync(ctx context.Context, runID string, completion *CompletionData) error {
	run, err := r.repo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return nil
		}
		return err
	}

	updates := map[string]any{}

	if completion != nil && completion.Results != nil {
		merged := map[string]any{}
		for k, v := range run.Results {
			merged[k] = v
		}
		for k, v := range completion.Results {
			merged[k] = v
		}
		run.Results = merged
		updates["results"] = merged
	}

	limit := r.timeoutMinutes()
	now := time.Now()

	if run.Status == domain.RunStatusRunning && CheckTimeout(run, limit, now) {
		run.Status = domain.RunStatusTimeout
		run.Error = fmt.Sprintf("Pipeline timed out after %d minutes", limit)
		run.EndedAt = now.UnixMilli()
		run.DurationMs = now.UnixMilli() - run.StartedAt
		updates["status"] = run.Status
		updates["error"] = run.Error
		updates["ended_at"] = run.EndedAt
		updates["duration_ms"] = run.DurationMs
		r.logger.Warn("run timed out",
			logger.String("run_id", runID),
			logger.Int("timeout_minutes", limit))
	} else {
		runningStep := run.RunningStep()
		allStarted := r.allStepsStarted(run)

		if runningStep == nil && allStarted && run.Status == domain.RunStatusRunning {
			run.Status = domain.RunStatusCompleted
			run.CurrentStep = "completed"
			run.EndedAt = now.UnixMilli()
			run.DurationMs = now.UnixMilli() - run.StartedAt
			if completion != nil && completion.DurationMs > 0 {
				run.DurationMs = completion.DurationMs
			}
			updates["status"] = run.Status
			updates["current_step"] = run.CurrentStep
			updates["ended_at"] = run.EndedAt
			updates["duration_ms"] = run.DurationMs
			r.logger.Info("run marked as completed", logger.String("run_id", runID))
		} else if runningStep != nil {
			run.CurrentStep = runningStep.Name
			updates["current_step"] = run.CurrentStep
		}
	}

	if len(updates) > 0 {
		if err := r.repo.UpdateFields(ctx, runID, updates); err != nil {
			return err
		}
	}

	r.maybeNotify(ctx, run)
	return nil
}

// allStepsStarted reports whether every registered step has a record,
// skipped ones included
func (r *Reconciler) allStepsStarted(run *domain.Run) bool {
	for _, name := range r.stepSource.Names() {
		if run.FindStep(name) == nil {
			return false
		}
	}
	return true
}

// maybeNotify sends the finish notification at most once per run. The
// notified flag is claimed with a conditional write before dispatch, so a
// concurrent webhook and step loop can both call Sync without double
// posting.
func (r *Reconciler) maybeNotify(ctx context.Context, run *domain.Run) {
	if run.SlackNotified {
		return
	}
	switch run.Status {
	case domain.RunStatusCompleted, domain.RunStatusFailed, domain.RunStatusTimeout:
	default:
		return
	}

	if err := r.repo.ClaimNotification(ctx, run.RunID); err != nil {
		if !errors.Is(err, repository.ErrAlreadyNotified) {
			r.logger.Error("failed to claim notification",
				logger.String("run_id", run.RunID),
				logger.Error(err))
		}
		return
	}

	if err := r.notifier.NotifyRunFinished(ctx, run); err != nil {
		r.logger.Error("run notification failed",
			logger.String("run_id", run.RunID),
			logger.Error(err))
	}
}
