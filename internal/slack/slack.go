package slack

import "context"

// Message is a Slack chat.postMessage payload. Text is the notification
// fallback; Blocks carries the Block Kit layout when present.
type Message struct {
	Channel string           `json:"channel"`
	Text    string           `json:"text"`
	Blocks  []map[string]any `json:"blocks,omitempty"`
}

// Client defines interface for Slack notifications
type Client interface {
	SendMessage(ctx context.Context, message Message) error
}
