package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"claimspipe/internal/config"
	"claimspipe/internal/dto"
	"claimspipe/internal/logger"
	"claimspipe/internal/service"

	"github.com/gin-gonic/gin"
)

// SlackHandler handles Slack interactivity callbacks (the rerun button)
type SlackHandler struct {
	logger  logger.Logger
	cfg     *config.Config
	control *service.ControlService
}

func NewSlackHandler(
	log logger.Logger,
	cfg *config.Config,
	control *service.ControlService,
) *SlackHandler {
	return &SlackHandler{
		logger:  log.With(logger.String("component", "slack_handler")),
		cfg:     cfg,
		control: control,
	}
}

type slackInteractionPayload struct {
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
}

// HandleInteraction parses Slack's form-encoded interaction payload. It
// bypasses the JSON envelope and is registered directly on the router.
func (h *SlackHandler) HandleInteraction() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.SlackSigningSecret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Slack not configured"})
			return
		}

		var payload slackInteractionPayload
		if err := json.Unmarshal([]byte(c.PostForm("payload")), &payload); err != nil || len(payload.Actions) == 0 {
			h.logger.Warn("malformed Slack interaction payload")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}

		action := payload.Actions[0]
		h.logger.Info("Slack interaction received",
			logger.String("action_id", action.ActionID))

		if action.ActionID != "rerun_pipeline" {
			c.JSON(http.StatusOK, dto.SlackInteractionResponse{Text: "Unknown action"})
			return
		}

		runID := action.Value
		// Acknowledge within Slack's 3 second window; the rerun proceeds on
		// its own
		go func() {
			if _, err := h.control.Rerun(context.Background(), runID); err != nil {
				h.logger.Error("pipeline rerun failed",
					logger.String("run_id", runID),
					logger.Error(err))
			}
		}()

		c.JSON(http.StatusOK, dto.SlackInteractionResponse{
			Text:            "Rerunning pipeline...",
			ReplaceOriginal: false,
		})
	}
}
