package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
	"claimspipe/internal/repository"
	repoiface "claimspipe/internal/repository/iface"
)

const historyLimit = 50

// StepView is one step's row in the status projection
type StepView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.StepStatus `json:"status"`
	Timestamp   int64             `json:"timestamp,omitempty"`
	DurationMs  int64             `json:"duration_ms,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// StatusView is the live view of the most recent pipeline run
type StatusView struct {
	Running     bool       `json:"running"`
	Status      string     `json:"status"`
	CurrentStep string     `json:"current_step,omitempty"`
	Progress    int        `json:"progress"`
	Steps       []StepView `json:"steps"`
	StartedAt   int64      `json:"started_at,omitempty"`
	RunID       string     `json:"run_id,omitempty"`
}

// HistoryStats summarizes recent run outcomes
type HistoryStats struct {
	Total         int   `json:"total"`
	Successful    int   `json:"successful"`
	Failed        int   `json:"failed"`
	AvgDurationMs int64 `json:"avgDuration"`
}

// StatusService projects run records into client-facing views
type StatusService struct {
	repo       repoiface.RunRepository
	stepSource StepSource
	reconciler *Reconciler
	timeout    func() int
	logger     logger.Logger
}

// NewStatusService creates the status projection service
func NewStatusService(
	repo repoiface.RunRepository,
	stepSource StepSource,
	reconciler *Reconciler,
	timeoutMinutes func() int,
	log logger.Logger,
) *StatusService {
	return &StatusService{
		repo:       repo,
		stepSource: stepSource,
		reconciler: reconciler,
		timeout:    timeoutMinutes,
		logger:     log.With(logger.String("component", "run_status")),
	}
}

// Current builds the live status view from the most recent run. Reading
// status doubles as the timeout watchdog: a run found over its limit is
// reconciled before the view is returned.
func (s *StatusService) Current(ctx context.Context) (*StatusView, error) {
	run, err := s.repo.GetMostRecent(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return &StatusView{Status: "idle", Steps: []StepView{}}, nil
		}
		return nil, err
	}

	isRunning := run.Status == domain.RunStatusRunning
	if isRunning && CheckTimeout(run, s.timeout(), time.Now()) {
		if err := s.reconciler.Sync(ctx, run.RunID, nil); err != nil {
			s.logger.Error("failed to reconcile timed out run", logger.Error(err))
		}
		return &StatusView{Status: string(domain.RunStatusTimeout), Steps: []StepView{}}, nil
	}

	names := s.stepSource.Names()
	progress := 0
	if len(names) > 0 {
		progress = int(math.Round(float64(run.CompletedStepCount()) / float64(len(names)) * 100))
	}

	views := make([]StepView, 0, len(names))
	for _, name := range names {
		view := StepView{
			ID:     name,
			Name:   s.formatStepName(name),
			Title:  s.formatStepName(name),
			Status: domain.StepStatusPending,
		}
		if desc := s.stepSource.Find(name); desc != nil {
			view.Description = desc.Description
		}

		if record := run.FindStep(name); record != nil {
			if record.Title != "" {
				view.Title = record.Title
			}
			if record.Description != "" {
				view.Description = record.Description
			}
			view.Status = record.Status
			view.Timestamp = record.Timestamp
			view.DurationMs = record.DurationMs
			view.Error = record.Error
		} else if isRunning && run.CurrentStep == name {
			view.Status = domain.StepStatusRunning
		}

		views = append(views, view)
	}

	return &StatusView{
		Running:     isRunning,
		Status:      string(run.Status),
		CurrentStep: run.CurrentStep,
		Progress:    progress,
		Steps:       views,
		StartedAt:   run.StartedAt,
		RunID:       run.RunID,
	}, nil
}

// History returns recent runs newest first, with aggregate stats
func (s *StatusService) History(ctx context.Context) ([]*domain.Run, *HistoryStats, error) {
	runs, err := s.repo.ListRecent(ctx, historyLimit)
	if err != nil {
		return nil, nil, err
	}

	stats := &HistoryStats{Total: len(runs)}
	var totalDuration int64
	for _, run := range runs {
		switch run.Status {
		case domain.RunStatusCompleted:
			stats.Successful++
		case domain.RunStatusFailed:
			stats.Failed++
		}
		totalDuration += run.DurationMs
	}
	if len(runs) > 0 {
		stats.AvgDurationMs = totalDuration / int64(len(runs))
	}

	return runs, stats, nil
}

// formatStepName falls back to title-casing the step name when the registry
// has no title for it
func (s *StatusService) formatStepName(name string) string {
	if desc := s.stepSource.Find(name); desc != nil && desc.Title != "" {
		return desc.Title
	}
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
