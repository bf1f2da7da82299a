package response

// StandardResponse is the envelope every JSON endpoint returns. Errors is
// always present so clients can iterate it without a nil check.
type StandardResponse struct {
	Status    StatusEnum `json:"status"`
	ErrorCode int        `json:"errorCode"`
	Message   string     `json:"message"`
	Data      any        `json:"data"`
	Errors    []Errors   `json:"errors"`
}

type StatusEnum string

const (
	StatusSuccess StatusEnum = "SUCCESS"
	StatusFailed  StatusEnum = "FAILED"
)

type Errors struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
}
