package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle status of a pipeline run (for GSI queries)
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusStopped   RunStatus = "stopped"
	RunStatusTimeout   RunStatus = "timeout"
)

// IsTerminal reports whether no further automatic transitions occur from s.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusStopped, RunStatusTimeout:
		return true
	}
	return false
}

// StepStatus represents the persisted outcome of one step attempt
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusError     StepStatus = "error"
	StepStatusRunning   StepStatus = "running"
	StepStatusStopped   StepStatus = "stopped"
	// StepStatusPending is a projection-only status for steps with no record yet
	StepStatusPending StepStatus = "pending"
)

// StepRecord is the persisted outcome of one step attempt within a run.
// Title and description are denormalized from the registry at run time so the
// audit trail stays stable even if the registry copy changes later.
type StepRecord struct {
	Name        string     `json:"name" dynamodbav:"name"`
	Title       string     `json:"title" dynamodbav:"title"`
	Description string     `json:"description" dynamodbav:"description"`
	Status      StepStatus `json:"status" dynamodbav:"status"`
	Timestamp   int64      `json:"timestamp" dynamodbav:"timestamp"`
	DurationMs  int64      `json:"duration_ms,omitempty" dynamodbav:"duration_ms,omitempty"`
	Error       string     `json:"error,omitempty" dynamodbav:"error,omitempty"`
}

// CurrentStepStarting is the currentStep value before the first step runs.
const CurrentStepStarting = "starting"

// RunRecordType is the constant hash key of the start_time_index GSI, so runs
// can be queried in startedAt order.
const RunRecordType = "pipeline_run"

// Run represents one end-to-end execution of the pipeline step sequence
type Run struct {
	RunID         string         `json:"run_id" dynamodbav:"run_id"`
	RecordType    string         `json:"-" dynamodbav:"record_type"`
	Status        RunStatus      `json:"status" dynamodbav:"status"`
	CurrentStep   string         `json:"current_step" dynamodbav:"current_step"`
	StartedSteps  []StepRecord   `json:"started_steps" dynamodbav:"started_steps"`
	Files         InputFiles     `json:"files" dynamodbav:"files"`
	StartedAt     int64          `json:"started_at" dynamodbav:"started_at"`
	EndedAt       int64          `json:"ended_at,omitempty" dynamodbav:"ended_at,omitempty"`
	DurationMs    int64          `json:"duration_ms,omitempty" dynamodbav:"duration_ms,omitempty"`
	Error         string         `json:"error,omitempty" dynamodbav:"error,omitempty"`
	Results       map[string]any `json:"results,omitempty" dynamodbav:"results,omitempty"`
	SlackNotified bool           `json:"slack_notified" dynamodbav:"slack_notified"`
}

// NewRun creates a new pipeline run in the running state
func NewRun(files InputFiles) *Run {
	return &Run{
		RunID:        uuid.New().String(),
		RecordType:   RunRecordType,
		Status:       RunStatusRunning,
		CurrentStep:  CurrentStepStarting,
		StartedSteps: []StepRecord{},
		Files:        files,
		StartedAt:    time.Now().UnixMilli(),
		Results:      map[string]any{},
	}
}

// FindStep returns the record for the named step, or nil if none exists yet
func (r *Run) FindStep(name string) *StepRecord {
	for i := range r.StartedSteps {
		if r.StartedSteps[i].Name == name {
			return &r.StartedSteps[i]
		}
	}
	return nil
}

// RunningStep returns the step record currently in the running state, if any
func (r *Run) RunningStep() *StepRecord {
	for i := range r.StartedSteps {
		if r.StartedSteps[i].Status == StepStatusRunning {
			return &r.StartedSteps[i]
		}
	}
	return nil
}

// CompletedStepCount counts step records that finished successfully
func (r *Run) CompletedStepCount() int {
	n := 0
	for _, s := range r.StartedSteps {
		if s.Status == StepStatusCompleted {
			n++
		}
	}
	return n
}

// StartTime returns the run's start time as a time.Time
func (r *Run) StartTime() time.Time {
	return time.UnixMilli(r.StartedAt)
}
