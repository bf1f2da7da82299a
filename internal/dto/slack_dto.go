package dto

// SlackInteractionRequest is unused for binding; Slack posts interactions
// as a form-encoded payload field that the handler parses from the raw body
type SlackInteractionRequest struct{}

// SlackInteractionResponse is the immediate acknowledgement Slack renders
type SlackInteractionResponse struct {
	Text            string `json:"text"`
	ReplaceOriginal bool   `json:"replace_original"`
}
