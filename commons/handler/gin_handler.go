package handler

import (
	"context"
	"io"
	"net/http"

	"claimspipe/commons/error_handler"
	"claimspipe/commons/response"
	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
)

// ServiceFunc is the shape every JSON endpoint implements: decode in, call
// the service, encode out. The gin plumbing stays in HandleFunc.
type ServiceFunc[InputDto any, OutputDto any] func(
	ctx context.Context,
	ioutil *RequestIo[InputDto],
) (OutputDto, *error_handler.ErrorCollection)

func HandleFunc[InputDto any, OutputDto any](
	deps HandlerDependencies,
	serviceFunc ServiceFunc[InputDto, OutputDto],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ioutil := BuildRequestIo[InputDto](c)

		if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&ioutil.Body); err != nil && err != io.EOF {
				deps.Logger.Error("unable to bind request body", logger.Error(err))
				SendErrorResponse(c, *new(OutputDto), error_handler.NewErrorCollection().
					AddError(error_handler.CodeValidationError, err.Error(), nil))
				return
			}
		}

		outputDto, errorCollection := serviceFunc(ctx, ioutil)

		if errorCollection != nil && errorCollection.HasErrors() {
			SendErrorResponse(c, outputDto, errorCollection)
			return
		}
		SendSuccessResponse(c, outputDto)
	}
}

func SendSuccessResponse[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, response.StandardResponse{
		Status:  response.StatusSuccess,
		Message: "Success",
		Data:    data,
		Errors:  []response.Errors{},
	})
}

func SendErrorResponse[T any](c *gin.Context, data T, errorCollection *error_handler.ErrorCollection) {
	errors := errorCollection.GetErrors()

	primaryCode := error_handler.CodeInternalServerError
	primaryMessage := "Internal server error"
	if len(errors) > 0 {
		primaryCode = errors[0].ErrorCode
		primaryMessage = errors[0].Message
	}

	c.JSON(errorCollection.GetHTTPStatus(), response.StandardResponse{
		Status:    response.StatusFailed,
		ErrorCode: primaryCode,
		Message:   primaryMessage,
		Data:      data,
		Errors:    errors,
	})
}
