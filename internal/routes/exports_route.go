package routes

import (
	"net/http"

	"claimspipe/commons/routes"
	"claimspipe/internal/dto"
	"claimspipe/internal/handler"
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitExportsRoutes(
	router *gin.Engine,
	exportsHandler *handler.ExportsHandler,
	log logger.Logger,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	deps := routes.RouteDependencies{
		Logger: log,
	}

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.ListExportsRequest, dto.ListExportsResponse]{
			Path:        "/exports/run/:runId",
			Method:      http.MethodGet,
			ServiceFunc: exportsHandler.ListExportsService,
		},
	)

	// File download bypasses the JSON envelope
	apiV1.GET("/exports/run/:runId/:filename", exportsHandler.DownloadExport())
}
