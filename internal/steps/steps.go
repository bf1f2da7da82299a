package steps

import (
	"database/sql"
	"path/filepath"
	"time"

	"claimspipe/internal/config"
	"claimspipe/internal/drive"
	"claimspipe/internal/logger"
	"claimspipe/internal/ml"
)

// Step name constants, in pipeline order
const (
	StepConnectVPN          = "connect_vpn"
	StepValidateInputCSVs   = "validate_input_csvs"
	StepBackupTables        = "backup_tables"
	StepProcessClaimsMatter = "process_claims_matter_entertainment"
	StepProcessClaimsM2     = "process_claims_matter_2"
	StepProcessMCNVerdicts  = "process_mcn_verdicts"
	StepProcessJFMVerdicts  = "process_jfm_verdicts"
	StepExportViews         = "export_views"
	StepEnrichML            = "enrich_ml"
	StepUploadDrive         = "upload_drive"
)

// Runtime holds the shared dependencies pipeline steps execute against
type Runtime struct {
	logger logger.Logger
	cfg    *config.Config
	db     *sql.DB
	ml     ml.Client
	drive  drive.Client
}

// NewRuntime creates the step runtime
func NewRuntime(log logger.Logger, cfg *config.Config, db *sql.DB, mlClient ml.Client, driveClient drive.Client) *Runtime {
	return &Runtime{
		logger: log.With(logger.String("component", "steps")),
		cfg:    cfg,
		db:     db,
		ml:     mlClient,
		drive:  driveClient,
	}
}

// DriveConfigured reports whether exports can leave the box
func (r *Runtime) DriveConfigured() bool {
	return r.drive.Configured()
}

// RunFolderName derives the export folder for a run from its start time
func (r *Runtime) RunFolderName(startedAt time.Time) string {
	return startedAt.Format(r.cfg.ExportFolderFormat)
}

// ExportDir is the local folder a run's exports are written to
func (r *Runtime) ExportDir(startedAt time.Time) string {
	return filepath.Join(r.cfg.ExportRoot, r.RunFolderName(startedAt))
}

func dateCompact(t time.Time) string {
	return t.Format("20060102")
}

func dateUnderscored(t time.Time) string {
	return t.Format("2006_01_02")
}
