package steps

import (
	"context"
	"fmt"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
)

// EnrichML hands the unprocessed claims export to the ML service. The
// service returns a task handle right away and calls back on the webhook
// when the enrichment finishes; until then results.mlEnrichment reads
// running while the step itself counts as done.
func (r *Runtime) EnrichML(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	unprocessedPath := exportPath(pc.Outputs, "export_unprocessed_claims")
	if unprocessedPath == "" {
		r.logger.Info("no unprocessed claims to enrich")
		return &domain.StepOutcome{Status: domain.StepStatusSkipped}, nil
	}

	result, err := r.ml.Predict(ctx, unprocessedPath, pc.RunID, r.cfg.WebhookURL())
	if err != nil {
		return nil, fmt.Errorf("ML enrichment failed: %w", err)
	}

	pc.Outputs["mlEnrichment"] = map[string]any{
		"status":     "running",
		"task_id":    result.TaskID,
		"started_at": time.Now().UnixMilli(),
	}

	r.logger.Info("ML enrichment dispatched",
		logger.String("task_id", result.TaskID))
	return nil, nil
}

// exportPath digs a view's file path out of the exports output
func exportPath(outputs map[string]any, view string) string {
	exports, _ := outputs["exports"].(map[string]any)
	info, _ := exports[view].(map[string]any)
	path, _ := info["path"].(string)
	return path
}
