package handler

import (
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestIo carries the decoded request body and route parameters into a
// service function.
type RequestIo[T any] struct {
	Body       T
	PathParams map[string]string
	Query      map[string]string
}

type HandlerDependencies struct {
	Logger logger.Logger
}

func BuildRequestIo[T any](c *gin.Context) *RequestIo[T] {
	pathParams := make(map[string]string, len(c.Params))
	for _, param := range c.Params {
		pathParams[param.Key] = param.Value
	}

	query := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	return &RequestIo[T]{
		PathParams: pathParams,
		Query:      query,
	}
}
