package service

import (
	"context"
	"testing"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) (Notifier, *fakeSlackClient) {
	t.Helper()
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	client := &fakeSlackClient{}
	return NewSlackNotifier(client, "#claims-pipeline", log), client
}

func finishedRun(status domain.RunStatus) *domain.Run {
	run := domain.NewRun(domain.InputFiles{
		Claims:      domain.ClaimFiles{MatterEntertainment: "uploads/me.csv"},
		MCNVerdicts: "uploads/mcn.csv",
	})
	run.Status = status
	run.StartedAt = time.Date(2026, 8, 30, 14, 30, 0, 0, time.Local).UnixMilli()
	run.DurationMs = 201_000
	return run
}

func TestNotifyRenderedSummary(t *testing.T) {
	notifier, client := newTestNotifier(t)

	run := finishedRun(domain.RunStatusCompleted)
	run.Results = map[string]any{
		"claimsProcessed": map[string]any{
			"matter_entertainment": map[string]any{"total": int64(120), "new": int64(15)},
		},
		"mcnVerdicts": map[string]any{
			"processed":    int64(40),
			"invalidMCIDs": []any{"bad-1", "bad-2"},
		},
	}

	require.NoError(t, notifier.NotifyRunFinished(context.Background(), run))
	require.Len(t, client.messages, 1)

	msg := client.messages[0]
	assert.Equal(t, "#claims-pipeline", msg.Channel)
	assert.Equal(t, "Pipeline Completed", msg.Text)
	require.NotEmpty(t, msg.Blocks)

	text := msg.Blocks[0]["text"].(map[string]any)["text"].(string)
	assert.Contains(t, text, "*Pipeline Run Completed*")
	assert.Contains(t, text, "Duration: 3m 21s")
	assert.Contains(t, text, "Files: Claims (ME), MCN Verdicts")
	assert.Contains(t, text, "Matter Entertainment: 15 new / 120 total")
	assert.Contains(t, text, "Verdicts Applied (40 total)")
	assert.Contains(t, text, "Invalid MCIDs: 2")
}

func TestNotifyAddsDriveButtonOnSuccess(t *testing.T) {
	notifier, client := newTestNotifier(t)

	run := finishedRun(domain.RunStatusCompleted)
	run.Results = map[string]any{"driveFolderUrl": "https://drive.google.com/drive/folders/run"}

	require.NoError(t, notifier.NotifyRunFinished(context.Background(), run))
	require.Len(t, client.messages, 1)

	blocks := client.messages[0].Blocks
	require.Len(t, blocks, 2)
	elements := blocks[1]["elements"].([]map[string]any)
	require.Len(t, elements, 1)
	assert.Equal(t, "https://drive.google.com/drive/folders/run", elements[0]["url"])
}

func TestNotifyAddsRerunButtonOnFailure(t *testing.T) {
	notifier, client := newTestNotifier(t)

	run := finishedRun(domain.RunStatusFailed)
	run.Error = "CSV validation failed"

	require.NoError(t, notifier.NotifyRunFinished(context.Background(), run))
	require.Len(t, client.messages, 1)

	msg := client.messages[0]
	assert.Equal(t, "Pipeline Failed", msg.Text)

	text := msg.Blocks[0]["text"].(map[string]any)["text"].(string)
	assert.Contains(t, text, "CSV validation failed")

	require.Len(t, msg.Blocks, 2)
	elements := msg.Blocks[1]["elements"].([]map[string]any)
	require.Len(t, elements, 1)
	assert.Equal(t, "rerun_pipeline", elements[0]["action_id"])
	assert.Equal(t, run.RunID, elements[0]["value"])
}

func TestNotifyTimedOutRun(t *testing.T) {
	notifier, client := newTestNotifier(t)

	run := finishedRun(domain.RunStatusTimeout)
	run.Error = "Pipeline timed out after 60 minutes"

	require.NoError(t, notifier.NotifyRunFinished(context.Background(), run))
	require.Len(t, client.messages, 1)
	assert.Equal(t, "Pipeline Timed Out", client.messages[0].Text)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3m 21s", formatDuration(201_000))
	assert.Equal(t, "45s", formatDuration(45_000))
	assert.Equal(t, "♾️", formatDuration(0))
}
