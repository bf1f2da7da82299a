package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"claimspipe/internal/logger"
)

type httpClient struct {
	logger   logger.Logger
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates an ML service client. An empty endpoint yields a
// client whose methods return ErrNotConfigured.
func NewHTTPClient(log logger.Logger, endpoint string) Client {
	return &httpClient{
		logger:   log.With(logger.String("component", "ml_client")),
		endpoint: endpoint,
		// Uploads of large claim exports can take a while
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *httpClient) Predict(ctx context.Context, csvPath, runID, webhookURL string) (*PredictResult, error) {
	if c.endpoint == "" {
		return nil, ErrNotConfigured
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open claims file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(csvPath))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read claims file: %w", err)
	}
	if err := writer.WriteField("webhook_url", webhookURL); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.WriteField("pipeline_run_id", runID); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := c.endpoint + "/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("dispatching ML prediction task",
		logger.String("run_id", runID),
		logger.String("file", filepath.Base(csvPath)))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ML service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result PredictResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}

	c.logger.Info("ML prediction task started",
		logger.String("run_id", runID),
		logger.String("task_id", result.TaskID))
	return &result, nil
}

func (c *httpClient) StopTask(ctx context.Context, taskID string) error {
	if c.endpoint == "" {
		return ErrNotConfigured
	}

	url := fmt.Sprintf("%s/tasks/%s/stop", c.endpoint, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build stop request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to stop ML task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ML service returned status %d", resp.StatusCode)
	}

	c.logger.Info("ML task stopped", logger.String("task_id", taskID))
	return nil
}

func (c *httpClient) FetchResult(ctx context.Context, resultPath, destPath string) error {
	if c.endpoint == "" {
		return ErrNotConfigured
	}

	if !strings.HasPrefix(resultPath, "/") {
		resultPath = "/" + resultPath
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+resultPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build fetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch ML result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ML service returned status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

func (c *httpClient) Health(ctx context.Context) error {
	if c.endpoint == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ML service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ML service returned status %d", resp.StatusCode)
	}
	return nil
}
