package routes

import (
	"net/http"

	"claimspipe/commons/routes"
	"claimspipe/internal/dto"
	"claimspipe/internal/handler"
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitHistoryRoutes(
	router *gin.Engine,
	historyHandler *handler.HistoryHandler,
	log logger.Logger,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	deps := routes.RouteDependencies{
		Logger: log,
	}

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.GetHistoryRequest, dto.GetHistoryResponse]{
			Path:        "/runs/history",
			Method:      http.MethodGet,
			ServiceFunc: historyHandler.GetHistoryService,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.RetryRunRequest, dto.RetryRunResponse]{
			Path:        "/runs/:id/retry",
			Method:      http.MethodPost,
			ServiceFunc: historyHandler.RetryRunService,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.StopRunRequest, dto.StopRunResponse]{
			Path:        "/runs/:id/stop",
			Method:      http.MethodPost,
			ServiceFunc: historyHandler.StopRunService,
		},
	)
}
