package ml

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no ML endpoint is set
var ErrNotConfigured = errors.New("ml service not configured")

// PredictResult holds the async task handle returned by the ML service
type PredictResult struct {
	TaskID string `json:"task_id"`
}

// Client defines interface for the claims enrichment ML service
type Client interface {
	// Predict uploads a claims CSV and starts an async prediction task.
	// The service calls back on webhookURL when the task finishes.
	Predict(ctx context.Context, csvPath, runID, webhookURL string) (*PredictResult, error)

	// StopTask cancels a running prediction task
	StopTask(ctx context.Context, taskID string) error

	// FetchResult downloads a result file the service exposed at resultPath
	// into destPath
	FetchResult(ctx context.Context, resultPath, destPath string) error

	// Health checks the ML service is reachable
	Health(ctx context.Context) error
}
