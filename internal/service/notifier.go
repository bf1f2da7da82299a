package service

import (
	"context"
	"fmt"
	"strings"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
	"claimspipe/internal/slack"
)

// Notifier announces finished pipeline runs
type Notifier interface {
	NotifyRunFinished(ctx context.Context, run *domain.Run) error
}

type slackNotifier struct {
	client  slack.Client
	channel string
	logger  logger.Logger
}

// NewSlackNotifier creates a notifier posting run summaries to Slack
func NewSlackNotifier(client slack.Client, channel string, log logger.Logger) Notifier {
	return &slackNotifier{
		client:  client,
		channel: channel,
		logger:  log.With(logger.String("component", "slack_notifier")),
	}
}

func (n *slackNotifier) NotifyRunFinished(ctx context.Context, run *domain.Run) error {
	isFailure := run.Status == domain.RunStatusFailed || run.Status == domain.RunStatusTimeout

	emoji := "✅"
	if isFailure {
		emoji = "❌"
	}
	statusText := "Completed"
	switch run.Status {
	case domain.RunStatusTimeout:
		statusText = "Timed Out"
	case domain.RunStatusFailed:
		statusText = "Failed"
	}

	filesText := "None"
	if labels := run.Files.UploadedLabels(); len(labels) > 0 {
		filesText = strings.Join(labels, ", ")
	}

	text := fmt.Sprintf("%s *Pipeline Run %s*\n━━━━━━━━━━━━━━━━━━━━━━\n⏱ Duration: %s\n📅 Started: %s\n📁 Files: %s\n🆔 Run: `%s`",
		emoji, statusText,
		formatDuration(run.DurationMs),
		run.StartTime().Format("1/2/2006, 3:04:05 PM"),
		filesText,
		run.RunID)
	text += claimsSection(run.Results)
	text += verdictsSection(run.Results)
	text += issuesSection(run.Results)
	if run.Error != "" {
		text += fmt.Sprintf("\n\n❌ *Error*\n%s", run.Error)
	}

	blocks := []map[string]any{
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": text,
			},
		},
	}

	driveFolderURL, _ := run.Results["driveFolderUrl"].(string)
	if run.Status == domain.RunStatusCompleted && driveFolderURL != "" {
		blocks = append(blocks, map[string]any{
			"type": "actions",
			"elements": []map[string]any{
				{
					"type":  "button",
					"text":  map[string]any{"type": "plain_text", "text": "📁 View in Drive"},
					"url":   driveFolderURL,
					"style": "primary",
				},
			},
		})
	}
	if isFailure {
		blocks = append(blocks, map[string]any{
			"type": "actions",
			"elements": []map[string]any{
				{
					"type":      "button",
					"text":      map[string]any{"type": "plain_text", "text": "Rerun Pipeline"},
					"action_id": "rerun_pipeline",
					"value":     run.RunID,
					"style":     "primary",
				},
			},
		})
	}

	err := n.client.SendMessage(ctx, slack.Message{
		Channel: n.channel,
		Text:    fmt.Sprintf("Pipeline %s", statusText),
		Blocks:  blocks,
	})
	if err != nil {
		return err
	}

	n.logger.Info("run notification sent",
		logger.String("run_id", run.RunID),
		logger.String("status", string(run.Status)))
	return nil
}

// formatDuration renders a millisecond duration as "3m 21s"
func formatDuration(ms int64) string {
	if ms <= 0 {
		return "♾️"
	}
	seconds := ms / 1000
	minutes := seconds / 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
	return fmt.Sprintf("%ds", seconds)
}

func claimsSection(results map[string]any) string {
	claims, _ := results["claimsProcessed"].(map[string]any)
	if len(claims) == 0 {
		return ""
	}

	var lines []string
	var totalNew int64
	for _, source := range []struct{ key, label string }{
		{"matter_entertainment", "Matter Entertainment"},
		{"matter_2", "Matter 2"},
	} {
		summary, _ := claims[source.key].(map[string]any)
		if summary == nil {
			continue
		}
		newClaims := asInt64(summary["new"])
		total := asInt64(summary["total"])
		lines = append(lines, fmt.Sprintf("  • %s: %d new / %d total", source.label, newClaims, total))
		totalNew += newClaims
	}
	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n📊 *Claims Processed (%d new)*\n%s", totalNew, strings.Join(lines, "\n"))
}

func verdictsSection(results map[string]any) string {
	mcn := asInt64(dig(results, "mcnVerdicts", "processed"))
	jfm := asInt64(dig(results, "jfmVerdicts", "processed"))
	if mcn == 0 && jfm == 0 {
		return ""
	}

	text := fmt.Sprintf("\n\n📋 *Verdicts Applied (%d total)*", mcn+jfm)
	if mcn > 0 {
		text += fmt.Sprintf("\n  • MCN: %d processed", mcn)
	}
	if jfm > 0 {
		text += fmt.Sprintf("\n  • JFM: %d processed", jfm)
	}
	return text
}

func issuesSection(results map[string]any) string {
	invalidMCIDs := listLen(dig(results, "mcnVerdicts", "invalidMCIDs")) +
		listLen(dig(results, "jfmVerdicts", "invalidMCIDs"))
	invalidLanguageIDs := listLen(dig(results, "mcnVerdicts", "invalidLanguageIDs")) +
		listLen(dig(results, "jfmVerdicts", "invalidLanguageIDs"))
	if invalidMCIDs == 0 && invalidLanguageIDs == 0 {
		return ""
	}

	var issues []string
	if invalidMCIDs > 0 {
		issues = append(issues, fmt.Sprintf("  • Invalid MCIDs: %d", invalidMCIDs))
	}
	if invalidLanguageIDs > 0 {
		issues = append(issues, fmt.Sprintf("  • Invalid Language IDs: %d", invalidLanguageIDs))
	}
	return fmt.Sprintf("\n\n⚠️ *Data Quality Issues*\n%s", strings.Join(issues, "\n"))
}

// dig walks nested map[string]any values
func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

// asInt64 tolerates the numeric types results round-trip through storage as
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func listLen(v any) int {
	switch l := v.(type) {
	case []any:
		return len(l)
	case []string:
		return len(l)
	}
	return 0
}
