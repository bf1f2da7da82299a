package steps

import (
	"context"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
)

// UploadDrive mirrors the run's export folder into the shared drive so the
// review team can pick the files up. Upload failures are logged but never
// fail the run; the exports still exist locally.
func (r *Runtime) UploadDrive(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	exports, _ := pc.Outputs["exports"].(map[string]any)
	if len(exports) == 0 {
		r.logger.Info("no files to upload")
		return &domain.StepOutcome{Status: domain.StepStatusSkipped}, nil
	}

	folderName := r.RunFolderName(pc.StartedAt)
	result, err := r.drive.UploadFolder(ctx, r.ExportDir(pc.StartedAt), folderName)
	if err != nil {
		r.logger.Error("drive upload failed", logger.Error(err))
		return nil, nil
	}

	pc.Outputs["driveFolderUrl"] = result.FolderURL
	r.logger.Info("exports uploaded",
		logger.Int("files", len(exports)),
		logger.String("folder_url", result.FolderURL))
	return nil, nil
}
