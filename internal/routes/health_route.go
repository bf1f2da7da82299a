package routes

import (
	"net/http"

	"claimspipe/commons/routes"
	"claimspipe/internal/dto"
	"claimspipe/internal/handler"
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitHealthRoutes(
	router *gin.Engine,
	healthHandler *handler.HealthHandler,
	log logger.Logger,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	deps := routes.RouteDependencies{
		Logger: log,
	}

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.GetHealthRequest, dto.GetHealthResponse]{
			Path:        "/health",
			Method:      http.MethodGet,
			ServiceFunc: healthHandler.GetHealthService,
		},
	)
}
