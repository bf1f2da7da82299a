package steps

import (
	"context"
	"fmt"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
)

// BackupTables snapshots the claims table before the run touches it
func (r *Runtime) BackupTables(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	backupTable := fmt.Sprintf("youtube_mcn_claims_bkup_%s", dateUnderscored(time.Now()))

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s AS SELECT * FROM youtube_mcn_claims`, backupTable)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to back up youtube_mcn_claims: %w", err)
	}

	r.logger.Info("backup created", logger.String("table", backupTable))
	pc.Outputs["backupTable"] = backupTable
	return nil, nil
}
