package slack

import (
	"context"

	"claimspipe/internal/logger"
)

type mockClient struct {
	logger logger.Logger
}

// NewMockClient creates a mock Slack client that logs messages
func NewMockClient(log logger.Logger) Client {
	return &mockClient{
		logger: log.With(logger.String("component", "slack_mock")),
	}
}

func (m *mockClient) SendMessage(ctx context.Context, message Message) error {
	m.logger.Info("MOCK: Slack message",
		logger.String("channel", message.Channel),
		logger.String("text", message.Text),
	)
	return nil
}
