package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"claimspipe/internal/config"
	"claimspipe/internal/domain"
	"claimspipe/internal/drive"
	"claimspipe/internal/logger"
	"claimspipe/internal/ml"
	repoiface "claimspipe/internal/repository/iface"
	"claimspipe/internal/steps"
)

// MLCallback is the payload the ML service posts back when a prediction
// task finishes
type MLCallback struct {
	TaskID        string `json:"task_id"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	CSVPath       string `json:"csv_path,omitempty"`
	NumResults    int    `json:"num_results,omitempty"`
	PipelineRunID string `json:"pipeline_run_id"`
}

// MLWebhookService resolves pending enrichment tasks when the ML service
// calls back
type MLWebhookService struct {
	repo        repoiface.RunRepository
	mlClient    ml.Client
	driveClient drive.Client
	runtime     *steps.Runtime
	reconciler  *Reconciler
	cfg         *config.Config
	logger      logger.Logger
}

// NewMLWebhookService creates the webhook service
func NewMLWebhookService(
	repo repoiface.RunRepository,
	mlClient ml.Client,
	driveClient drive.Client,
	runtime *steps.Runtime,
	reconciler *Reconciler,
	cfg *config.Config,
	log logger.Logger,
) *MLWebhookService {
	return &MLWebhookService{
		repo:        repo,
		mlClient:    mlClient,
		driveClient: driveClient,
		runtime:     runtime,
		reconciler:  reconciler,
		cfg:         cfg,
		logger:      log.With(logger.String("component", "ml_webhook")),
	}
}

// HandleCallback records an enrichment result against its run. Replayed
// callbacks for a task that already resolved are acknowledged without
// touching the run again.
func (s *MLWebhookService) HandleCallback(ctx context.Context, payload MLCallback) error {
	log := s.logger.With(
		logger.String("run_id", payload.PipelineRunID),
		logger.String("task_id", payload.TaskID))
	log.Info("ML callback received", logger.String("status", payload.Status))

	run, err := s.repo.GetByID(ctx, payload.PipelineRunID)
	if err != nil {
		return err
	}

	// Idempotency: a replay for the same task after it resolved is a no-op
	existing, _ := run.Results["mlEnrichment"].(map[string]any)
	if existing != nil {
		prevTask, _ := existing["task_id"].(string)
		prevStatus, _ := existing["status"].(string)
		if prevTask == payload.TaskID && prevStatus != "" && prevStatus != "running" {
			log.Info("ML callback already processed, ignoring")
			return nil
		}
	}

	var durationMs int64
	if record := run.FindStep(steps.StepEnrichML); record != nil && record.Timestamp > 0 {
		durationMs = time.Now().UnixMilli() - record.Timestamp
	}

	fileName := "unprocessed_claims_enrich_ml.csv"
	var fullCSVURL string
	if payload.CSVPath != "" {
		if s.cfg.MLAPIEndpoint != "" {
			fullCSVURL = s.cfg.MLAPIEndpoint + "/" + payload.CSVPath
		} else {
			fullCSVURL = payload.CSVPath
		}
	}

	// Pull the enriched CSV into the run's export folder and mirror it to
	// the shared drive. Upload trouble never fails the callback.
	var driveUpload map[string]any
	if payload.Status == "completed" && payload.CSVPath != "" && s.driveClient.Configured() {
		driveUpload = s.uploadResult(ctx, run, payload, fileName, log)
	}

	enrichment := map[string]any{
		"task_id":    payload.TaskID,
		"status":     payload.Status,
		"path":       fullCSVURL,
		"rows":       payload.NumResults,
		"name":       fileName,
		"updated_at": time.Now().UnixMilli(),
	}
	if payload.Error != "" {
		enrichment["error"] = payload.Error
	}
	if driveUpload != nil {
		enrichment["driveUpload"] = driveUpload
	}

	results := run.Results
	if results == nil {
		results = map[string]any{}
	}
	results["mlEnrichment"] = enrichment
	if err := s.repo.UpdateFields(ctx, run.RunID, map[string]any{"results": results}); err != nil {
		return fmt.Errorf("failed to record enrichment result: %w", err)
	}

	if err := s.repo.SetStepStatus(ctx, run.RunID, steps.StepEnrichML, domain.StepStatusCompleted, durationMs); err != nil {
		log.Error("failed to update enrich step", logger.Error(err))
	}

	return s.reconciler.Sync(ctx, run.RunID, nil)
}

func (s *MLWebhookService) uploadResult(ctx context.Context, run *domain.Run, payload MLCallback, fileName string, log logger.Logger) map[string]any {
	exportDir := s.runtime.ExportDir(run.StartTime())
	localPath := filepath.Join(exportDir, fileName)

	if err := s.mlClient.FetchResult(ctx, payload.CSVPath, localPath); err != nil {
		log.Error("failed to fetch ML result", logger.Error(err))
		return nil
	}

	folderName := s.runtime.RunFolderName(run.StartTime())
	result, err := s.driveClient.UploadFolder(ctx, exportDir, folderName)
	if err != nil {
		log.Error("failed to upload ML result", logger.Error(err))
		return nil
	}

	log.Info("ML result uploaded", logger.String("folder_url", result.FolderURL))
	return map[string]any{
		"name": fileName,
		"path": result.FolderURL,
		"rows": payload.NumResults,
	}
}
