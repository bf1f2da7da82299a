package handler

import (
	"context"
	"errors"
	"time"

	"claimspipe/commons/error_handler"
	"claimspipe/commons/handler"
	"claimspipe/internal/dto"
	"claimspipe/internal/logger"
	"claimspipe/internal/repository"
	"claimspipe/internal/service"
)

// PipelineHandler serves run start, live status and the ML callback
type PipelineHandler struct {
	logger    logger.Logger
	runner    *service.PipelineRunner
	status    *service.StatusService
	mlWebhook *service.MLWebhookService
	startedAt time.Time
}

func NewPipelineHandler(
	log logger.Logger,
	runner *service.PipelineRunner,
	status *service.StatusService,
	mlWebhook *service.MLWebhookService,
) *PipelineHandler {
	return &PipelineHandler{
		logger:    log.With(logger.String("component", "pipeline_handler")),
		runner:    runner,
		status:    status,
		mlWebhook: mlWebhook,
		startedAt: time.Now(),
	}
}

func (h *PipelineHandler) StartRunService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.StartRunRequest],
) (dto.StartRunResponse, *error_handler.ErrorCollection) {
	run, err := h.runner.Start(ctx, ioutil.Body.Files, ioutil.Body.Options)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			return dto.StartRunResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeConflict, "A pipeline run is already in progress", nil)
		}
		h.logger.Error("failed to start run", logger.Error(err))
		return dto.StartRunResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Failed to start pipeline", nil)
	}

	return dto.StartRunResponse{
		RunID:   run.RunID,
		Status:  string(run.Status),
		Message: "Pipeline run started",
	}, nil
}

func (h *PipelineHandler) GetStatusService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.GetStatusRequest],
) (dto.GetStatusResponse, *error_handler.ErrorCollection) {
	view, err := h.status.Current(ctx)
	if err != nil {
		h.logger.Error("failed to get status", logger.Error(err))
		return dto.GetStatusResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Failed to get status", nil)
	}

	return dto.GetStatusResponse{
		Running:     view.Running,
		Status:      view.Status,
		CurrentStep: view.CurrentStep,
		Progress:    view.Progress,
		Steps:       view.Steps,
		StartedAt:   view.StartedAt,
		RunID:       view.RunID,
		UptimeSec:   int64(time.Since(h.startedAt).Seconds()),
	}, nil
}

func (h *PipelineHandler) MLWebhookService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.MLWebhookRequest],
) (dto.MLWebhookResponse, *error_handler.ErrorCollection) {
	body := ioutil.Body
	if body.PipelineRunID == "" {
		return dto.MLWebhookResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "pipeline_run_id is required", nil)
	}

	err := h.mlWebhook.HandleCallback(ctx, service.MLCallback{
		TaskID:        body.TaskID,
		Status:        body.Status,
		Error:         body.Error,
		CSVPath:       body.CSVPath,
		NumResults:    body.NumResults,
		PipelineRunID: body.PipelineRunID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return dto.MLWebhookResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeNotFound, "Run not found", nil)
		}
		h.logger.Error("webhook processing failed", logger.Error(err))
		return dto.MLWebhookResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Webhook processing failed", nil)
	}

	return dto.MLWebhookResponse{
		Received:      true,
		PipelineRunID: body.PipelineRunID,
	}, nil
}
