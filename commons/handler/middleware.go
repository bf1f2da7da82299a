package handler

import (
	"fmt"
	"net/http"
	"time"

	"claimspipe/commons/error_handler"
	"claimspipe/commons/response"
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandlingMiddleware(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if recovered == nil {
			return
		}
		log.Error("panic recovered",
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
			logger.Any("panic", recovered))

		c.JSON(http.StatusInternalServerError, response.StandardResponse{
			Status:    response.StatusFailed,
			ErrorCode: error_handler.CodeInternalServerError,
			Message:   "Internal server error",
			Errors: []response.Errors{
				error_handler.GetInternalServerError("An unexpected error occurred"),
			},
		})
		c.Abort()
	})
}

// LoggingMiddleware logs one line per completed request. The status endpoint
// is polled by the UI every few seconds and is kept out of the log.
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/v1/pipeline/status" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		log.Info("request completed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.String("remote_addr", c.ClientIP()),
			logger.Int("status_code", c.Writer.Status()),
			logger.Int64("latency_ms", time.Since(start).Milliseconds()))
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Slack-Signature, X-Slack-Request-Timestamp")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		routingError(c, http.StatusNotFound, error_handler.CodeNotFound, "Route not found",
			fmt.Sprintf("The requested route '%s %s' was not found", c.Request.Method, c.Request.URL.Path))
	}
}

func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		routingError(c, http.StatusMethodNotAllowed, error_handler.CodeValidationError, "Method not allowed",
			fmt.Sprintf("Method '%s' is not allowed for route '%s'", c.Request.Method, c.Request.URL.Path))
	}
}

func routingError(c *gin.Context, httpStatus, code int, message, detail string) {
	c.JSON(httpStatus, response.StandardResponse{
		Status:    response.StatusFailed,
		ErrorCode: code,
		Message:   message,
		Errors: []response.Errors{
			{ErrorCode: code, Message: detail},
		},
	})
}
