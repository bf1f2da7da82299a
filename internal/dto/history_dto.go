package dto

import "claimspipe/internal/domain"

// RunSummary is one run in the history listing
type RunSummary struct {
	ID           string              `json:"id"`
	StartedAt    int64               `json:"started_at"`
	Status       string              `json:"status"`
	DurationMs   int64               `json:"duration_ms,omitempty"`
	Files        domain.InputFiles   `json:"files"`
	Results      map[string]any      `json:"results,omitempty"`
	StartedSteps []domain.StepRecord `json:"started_steps"`
	Error        string              `json:"error,omitempty"`
}

// HistoryStats aggregates the listed runs
type HistoryStats struct {
	Total         int   `json:"total"`
	Successful    int   `json:"successful"`
	Failed        int   `json:"failed"`
	AvgDurationMs int64 `json:"avgDuration"`
}

// GetHistoryRequest has no body
type GetHistoryRequest struct{}

// GetHistoryResponse lists recent runs newest first
type GetHistoryResponse struct {
	Runs  []RunSummary `json:"runs"`
	Stats HistoryStats `json:"stats"`
}

// RetryRunRequest has no body; the run ID comes from the path
type RetryRunRequest struct{}

// RetryRunResponse acknowledges a retry that began executing
type RetryRunResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// StopRunRequest has no body; the run ID comes from the path
type StopRunRequest struct{}

// StopRunResponse reports the stop outcome
type StopRunResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	MLTaskStopped bool   `json:"ml_task_stopped"`
}
