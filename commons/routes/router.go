package routes

import (
	"net/http"

	"claimspipe/commons/handler"
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	ServiceName string
	Version     string
}

type RouteDependencies struct {
	Logger logger.Logger
}

// RouteOptions describes one endpoint: its path, method and the service
// function that backs it.
type RouteOptions[InputDto any, OutputDto any] struct {
	Path        string
	Method      string
	ServiceFunc handler.ServiceFunc[InputDto, OutputDto]
}

func NewRouter(config RouterConfig, deps RouteDependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	log := deps.Logger.With(logger.String("service", config.ServiceName))

	// Recovery first so a panic in the logging middleware is still caught
	r.Use(handler.ErrorHandlingMiddleware(log))
	r.Use(handler.LoggingMiddleware(log))
	r.Use(handler.CORSMiddleware())

	r.NoRoute(handler.NoRouteHandler())
	r.NoMethod(handler.NoMethodHandler())

	return r
}

func RegisterRoute[InputDto any, OutputDto any](
	group gin.IRouter,
	deps RouteDependencies,
	options RouteOptions[InputDto, OutputDto],
) {
	ginHandler := handler.HandleFunc(handler.HandlerDependencies{Logger: deps.Logger}, options.ServiceFunc)

	switch options.Method {
	case http.MethodGet:
		group.GET(options.Path, ginHandler)
	case http.MethodPost:
		group.POST(options.Path, ginHandler)
	case http.MethodDelete:
		group.DELETE(options.Path, ginHandler)
	default:
		deps.Logger.Error("route registered with unsupported method",
			logger.String("method", options.Method),
			logger.String("path", options.Path))
	}
}

func CreateAPIGroup(router *gin.Engine, version string) *gin.RouterGroup {
	return router.Group("/api/" + version)
}
