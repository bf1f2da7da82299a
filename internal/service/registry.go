package service

import (
	"context"

	"claimspipe/internal/domain"
	"claimspipe/internal/steps"
)

// StepAction executes one pipeline step against the shared run context.
// A nil outcome means the step completed.
type StepAction func(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error)

// StepDescriptor describes one step of the pipeline
type StepDescriptor struct {
	Name        string
	Title       string
	Description string

	// Condition gates the step on the run's input files. A nil condition
	// means the step always runs.
	Condition func(files domain.InputFiles) bool

	// Skip marks the step administratively skipped regardless of its
	// condition. Test-mode runs treat every step this way.
	Skip bool

	Run StepAction
}

// StepSource supplies the ordered pipeline step list
type StepSource interface {
	// Steps returns the full ordered step list
	Steps() []StepDescriptor

	// Names returns the step names in pipeline order
	Names() []string

	// Find returns the descriptor for the named step, or nil
	Find(name string) *StepDescriptor
}

// Registry is the canonical, ordered pipeline definition bound to a step
// runtime
type Registry struct {
	steps []StepDescriptor
}

// NewRegistry builds the pipeline step list
func NewRegistry(rt *steps.Runtime) *Registry {
	return &Registry{steps: []StepDescriptor{
		{
			Name:        steps.StepConnectVPN,
			Title:       "Connect VPN",
			Description: "Establishes secure VPN connection to access remote database and services",
			Run:         rt.ConnectVPN,
		},
		{
			Name:        steps.StepValidateInputCSVs,
			Title:       "Validate Input CSVs",
			Description: "Validates uploaded CSV files for required columns and data integrity",
			Run:         rt.ValidateInputCSVs,
		},
		{
			Name:        steps.StepBackupTables,
			Title:       "Backup Tables",
			Description: "Creates backup copies of database tables before processing",
			Run:         rt.BackupTables,
		},
		{
			Name:        steps.StepProcessClaimsMatter,
			Title:       "Process Claims (Matter Entertainment)",
			Description: "Imports and processes Matter Entertainment MCN claims",
			Condition: func(files domain.InputFiles) bool {
				return files.Claims.MatterEntertainment != ""
			},
			Run: func(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
				return rt.ProcessClaims(ctx, pc, "matter_entertainment")
			},
		},
		{
			Name:        steps.StepProcessClaimsM2,
			Title:       "Process Claims (Matter 2)",
			Description: "Imports and processes Matter 2 MCN claims",
			Condition: func(files domain.InputFiles) bool {
				return files.Claims.Matter2 != ""
			},
			Run: func(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
				return rt.ProcessClaims(ctx, pc, "matter_2")
			},
		},
		{
			Name:        steps.StepProcessMCNVerdicts,
			Title:       "Process MCN Verdicts",
			Description: "Imports MCN verdict decisions and updates claim records accordingly",
			Condition: func(files domain.InputFiles) bool {
				return files.MCNVerdicts != ""
			},
			Run: rt.ProcessMCNVerdicts,
		},
		{
			Name:        steps.StepProcessJFMVerdicts,
			Title:       "Process JFM Verdicts",
			Description: "Imports JFM verdict decisions and updates video ownership records",
			Condition: func(files domain.InputFiles) bool {
				return files.JFMVerdicts != ""
			},
			Run: rt.ProcessJFMVerdicts,
		},
		{
			Name:        steps.StepExportViews,
			Title:       "Export Views",
			Description: "Generates CSV exports of processed claims, owned videos, and unprocessed data",
			Run:         rt.ExportViews,
		},
		{
			Name:        steps.StepEnrichML,
			Title:       "Enrich ML",
			Description: "Sends unprocessed claims to ML service for verdict probability predictions",
			Condition: func(domain.InputFiles) bool {
				return rt.DriveConfigured()
			},
			Run: rt.EnrichML,
		},
		{
			Name:        steps.StepUploadDrive,
			Title:       "Upload Drive",
			Description: "Uploads generated exports and ML results to Google Drive for review",
			Run:         rt.UploadDrive,
		},
	}}
}

func (r *Registry) Steps() []StepDescriptor {
	return r.steps
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

func (r *Registry) Find(name string) *StepDescriptor {
	for i := range r.steps {
		if r.steps[i].Name == name {
			return &r.steps[i]
		}
	}
	return nil
}
