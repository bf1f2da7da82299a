package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"claimspipe/internal/logger"
)

const postMessageURL = "https://slack.com/api/chat.postMessage"

type httpClient struct {
	logger logger.Logger
	token  string
	client *http.Client
}

// NewHTTPClient creates a Slack client backed by the Web API
func NewHTTPClient(log logger.Logger, token string) Client {
	return &httpClient{
		logger: log.With(logger.String("component", "slack_client")),
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *httpClient) SendMessage(ctx context.Context, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postMessageURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("slack request failed",
			logger.String("channel", message.Channel),
			logger.Error(err))
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	defer resp.Body.Close()

	var result postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode slack response: %w", err)
	}
	if !result.OK {
		c.logger.Error("slack API error",
			logger.String("channel", message.Channel),
			logger.String("error", result.Error))
		return fmt.Errorf("slack API error: %s", result.Error)
	}

	c.logger.Debug("slack message sent",
		logger.String("channel", message.Channel))
	return nil
}
