package handler

import (
	"context"
	"errors"
	"fmt"

	"claimspipe/commons/error_handler"
	"claimspipe/commons/handler"
	"claimspipe/internal/dto"
	"claimspipe/internal/logger"
	"claimspipe/internal/repository"
	"claimspipe/internal/service"
)

// HistoryHandler serves the run history plus the stop and retry actions
type HistoryHandler struct {
	logger  logger.Logger
	status  *service.StatusService
	control *service.ControlService
}

func NewHistoryHandler(
	log logger.Logger,
	status *service.StatusService,
	control *service.ControlService,
) *HistoryHandler {
	return &HistoryHandler{
		logger:  log.With(logger.String("component", "history_handler")),
		status:  status,
		control: control,
	}
}

func (h *HistoryHandler) GetHistoryService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.GetHistoryRequest],
) (dto.GetHistoryResponse, *error_handler.ErrorCollection) {
	runs, stats, err := h.status.History(ctx)
	if err != nil {
		h.logger.Error("failed to fetch history", logger.Error(err))
		return dto.GetHistoryResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Failed to fetch history", nil)
	}

	summaries := make([]dto.RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, dto.RunSummary{
			ID:           run.RunID,
			StartedAt:    run.StartedAt,
			Status:       string(run.Status),
			DurationMs:   run.DurationMs,
			Files:        run.Files,
			Results:      run.Results,
			StartedSteps: run.StartedSteps,
			Error:        run.Error,
		})
	}

	return dto.GetHistoryResponse{
		Runs: summaries,
		Stats: dto.HistoryStats{
			Total:         stats.Total,
			Successful:    stats.Successful,
			Failed:        stats.Failed,
			AvgDurationMs: stats.AvgDurationMs,
		},
	}, nil
}

func (h *HistoryHandler) RetryRunService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.RetryRunRequest],
) (dto.RetryRunResponse, *error_handler.ErrorCollection) {
	runID := ioutil.PathParams["id"]
	if runID == "" {
		return dto.RetryRunResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "run id is required", nil)
	}

	run, err := h.control.Retry(ctx, runID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRunNotFound):
			return dto.RetryRunResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeNotFound, "Run not found", nil)
		case errors.Is(err, service.ErrNotRetryable):
			return dto.RetryRunResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "Can only retry failed or timed out runs", nil)
		case errors.Is(err, service.ErrRunInProgress):
			return dto.RetryRunResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeConflict, "A pipeline run is already in progress", nil)
		}
		h.logger.Error("retry failed",
			logger.String("run_id", runID),
			logger.Error(err))
		return dto.RetryRunResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Retry failed", nil)
	}

	return dto.RetryRunResponse{
		Message: "Pipeline retry started",
		RunID:   run.RunID,
	}, nil
}

func (h *HistoryHandler) StopRunService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.StopRunRequest],
) (dto.StopRunResponse, *error_handler.ErrorCollection) {
	runID := ioutil.PathParams["id"]
	if runID == "" {
		return dto.StopRunResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "run id is required", nil)
	}

	result, err := h.control.Stop(ctx, runID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRunNotFound):
			return dto.StopRunResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeNotFound, "Run not found", nil)
		case errors.Is(err, service.ErrRunNotRunning):
			return dto.StopRunResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, fmt.Sprintf("%v", err), nil)
		}
		h.logger.Error("stop failed",
			logger.String("run_id", runID),
			logger.Error(err))
		return dto.StopRunResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Failed to stop pipeline", nil)
	}

	return dto.StopRunResponse{
		Success:       true,
		Message:       "Pipeline stopped",
		MLTaskStopped: result.MLTaskStopped,
	}, nil
}
