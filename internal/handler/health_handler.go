package handler

import (
	"context"
	"errors"
	"time"

	"claimspipe/commons/error_handler"
	"claimspipe/commons/handler"
	"claimspipe/internal/dto"
	"claimspipe/internal/logger"
	"claimspipe/internal/ml"
)

// HealthHandler reports service health, including the downstream ML service
type HealthHandler struct {
	logger    logger.Logger
	mlClient  ml.Client
	startedAt time.Time
}

func NewHealthHandler(log logger.Logger, mlClient ml.Client) *HealthHandler {
	return &HealthHandler{
		logger:    log.With(logger.String("component", "health_handler")),
		mlClient:  mlClient,
		startedAt: time.Now(),
	}
}

func (h *HealthHandler) GetHealthService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.GetHealthRequest],
) (dto.GetHealthResponse, *error_handler.ErrorCollection) {
	resp := dto.GetHealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UptimeSec: int64(time.Since(h.startedAt).Seconds()),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch err := h.mlClient.Health(checkCtx); {
	case err == nil:
		resp.EnrichMLStatus = "healthy"
	case errors.Is(err, ml.ErrNotConfigured):
		resp.EnrichMLStatus = "not_configured"
	default:
		resp.EnrichMLStatus = "unhealthy"
		resp.Status = "degraded"
	}

	return resp, nil
}
