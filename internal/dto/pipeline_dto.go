package dto

import (
	"claimspipe/internal/domain"
	"claimspipe/internal/service"
)

// StartRunRequest starts a pipeline run over already-uploaded input files
type StartRunRequest struct {
	Files   domain.InputFiles `json:"files"`
	Options domain.RunOptions `json:"options"`
}

// StartRunResponse acknowledges a run that began executing in the background
type StartRunResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GetStatusRequest has no body; the view always covers the latest run
type GetStatusRequest struct{}

// GetStatusResponse is the live pipeline view
type GetStatusResponse struct {
	Running     bool               `json:"running"`
	Status      string             `json:"status"`
	CurrentStep string             `json:"current_step,omitempty"`
	Progress    int                `json:"progress"`
	Steps       []service.StepView `json:"steps"`
	StartedAt   int64              `json:"started_at,omitempty"`
	RunID       string             `json:"run_id,omitempty"`
	UptimeSec   int64              `json:"uptime"`
}

// MLWebhookRequest is the ML service's task completion callback
type MLWebhookRequest struct {
	TaskID        string `json:"task_id"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	CSVPath       string `json:"csv_path,omitempty"`
	NumResults    int    `json:"num_results,omitempty"`
	PipelineRunID string `json:"pipeline_run_id"`
}

// MLWebhookResponse acknowledges the callback
type MLWebhookResponse struct {
	Received      bool   `json:"received"`
	PipelineRunID string `json:"pipeline_run_id"`
}
