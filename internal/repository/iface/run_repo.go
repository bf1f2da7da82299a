package repository

import (
	"context"

	"claimspipe/internal/domain"
)

// RunRepository defines persistence operations for pipeline runs.
//
// All mutation goes through targeted field updates (UpdateFields, AppendStep,
// SetStepStatus) rather than whole-record overwrites, so the orchestrator
// loop, the stop endpoint and the ML webhook handler can interleave without
// losing each other's writes.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// UpdateFields sets the given top-level attributes on the run record.
	// Keys are the persisted attribute names (status, current_step, ...).
	UpdateFields(ctx context.Context, runID string, fields map[string]any) error

	// AppendStep appends a step record to the run's step history.
	AppendStep(ctx context.Context, runID string, record domain.StepRecord) error

	// SetStepStatus rewrites the status (and duration, when >= 0) of the
	// named step's existing record in place.
	SetStepStatus(ctx context.Context, runID, stepName string, status domain.StepStatus, durationMs int64) error

	// ClaimNotification atomically flips the slack_notified guard from unset
	// to set. Returns ErrAlreadyNotified when another caller won the race.
	ClaimNotification(ctx context.Context, runID string) error

	// GetMostRecent returns the run with the latest start time, or
	// ErrRunNotFound when no run exists yet.
	GetMostRecent(ctx context.Context) (*domain.Run, error)

	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Run, error)
}
