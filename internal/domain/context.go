package domain

import (
	"database/sql"
	"os/exec"
	"time"
)

// RunOptions are free-form knobs step actions may consult
type RunOptions struct {
	TestMode bool `json:"test_mode,omitempty"`
}

// Connections holds the external resources owned by one run's execution.
// They are established by the connect step and torn down unconditionally when
// the run finishes.
type Connections struct {
	MySQL *sql.DB
	VPN   *exec.Cmd
}

// PipelineContext is the shared mutable context passed to every step action
type PipelineContext struct {
	Files       InputFiles
	Options     RunOptions
	Connections Connections
	Outputs     map[string]any
	RunID       string
	StartedAt   time.Time
}

// NewPipelineContext builds the context for a run attempt
func NewPipelineContext(files InputFiles, options RunOptions, runID string, startedAt time.Time) *PipelineContext {
	return &PipelineContext{
		Files:     files,
		Options:   options,
		Outputs:   map[string]any{},
		RunID:     runID,
		StartedAt: startedAt,
	}
}

// StepOutcome lets a step action self-report a status other than completed,
// e.g. an async dispatch that wants its record to read running until an
// external callback resolves it. A nil outcome means completed.
type StepOutcome struct {
	Status StepStatus
}
