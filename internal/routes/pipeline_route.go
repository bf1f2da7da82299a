package routes

import (
	"net/http"

	"claimspipe/commons/routes"
	"claimspipe/internal/dto"
	"claimspipe/internal/handler"
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitPipelineRoutes(
	router *gin.Engine,
	pipelineHandler *handler.PipelineHandler,
	log logger.Logger,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	deps := routes.RouteDependencies{
		Logger: log,
	}

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.StartRunRequest, dto.StartRunResponse]{
			Path:        "/pipeline/run",
			Method:      http.MethodPost,
			ServiceFunc: pipelineHandler.StartRunService,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.GetStatusRequest, dto.GetStatusResponse]{
			Path:        "/pipeline/status",
			Method:      http.MethodGet,
			ServiceFunc: pipelineHandler.GetStatusService,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.MLWebhookRequest, dto.MLWebhookResponse]{
			Path:        "/pipeline/ml-webhook",
			Method:      http.MethodPost,
			ServiceFunc: pipelineHandler.MLWebhookService,
		},
	)
}
