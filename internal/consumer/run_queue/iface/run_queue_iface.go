package run_queue

import (
	"context"

	"claimspipe/internal/domain"
)

// RunMessage represents a queued request to start a pipeline run
type RunMessage struct {
	Files   domain.InputFiles `json:"files"`
	Options domain.RunOptions `json:"options"`
}

// PipelineStarter kicks off a pipeline run in the background
type PipelineStarter interface {
	Start(ctx context.Context, files domain.InputFiles, options domain.RunOptions) (*domain.Run, error)
}

// RunConsumer defines the interface for processing run queue messages
type RunConsumer interface {
	// ProcessMessage processes a single run request
	// Returns true if processing succeeded (message should be deleted)
	ProcessMessage(ctx context.Context, message RunMessage) bool

	// SendMessage sends a run request to the queue
	SendMessage(ctx context.Context, message RunMessage) error
}
