package error_handler

import (
	"net/http"

	"claimspipe/commons/response"
)

const (
	CodeValidationError     = 400
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeInternalServerError = 500
)

// ErrorCollection accumulates errors across a service call so a handler can
// report all of them in one response.
type ErrorCollection struct {
	errors []response.Errors
}

func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{errors: make([]response.Errors, 0)}
}

func (ec *ErrorCollection) AddError(code int, message string, data any) *ErrorCollection {
	ec.errors = append(ec.errors, response.Errors{
		ErrorCode: code,
		Message:   message,
		Data:      data,
	})
	return ec
}

func (ec *ErrorCollection) HasErrors() bool {
	return len(ec.errors) > 0
}

func (ec *ErrorCollection) GetErrors() []response.Errors {
	return ec.errors
}

// GetHTTPStatus derives the response status from the first recorded error.
func (ec *ErrorCollection) GetHTTPStatus() int {
	if !ec.HasErrors() {
		return http.StatusOK
	}

	switch code := ec.errors[0].ErrorCode; {
	case code >= 500:
		return http.StatusInternalServerError
	case code == CodeNotFound:
		return http.StatusNotFound
	case code == CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func GetInternalServerError(message string) response.Errors {
	return response.Errors{
		ErrorCode: CodeInternalServerError,
		Message:   message,
	}
}
