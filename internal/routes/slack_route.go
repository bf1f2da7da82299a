package routes

import (
	"claimspipe/commons/routes"
	"claimspipe/internal/handler"

	"github.com/gin-gonic/gin"
)

func InitSlackRoutes(
	router *gin.Engine,
	slackHandler *handler.SlackHandler,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	// Slack posts interactions form-encoded, so this skips the JSON envelope
	apiV1.POST("/slack/interactions", slackHandler.HandleInteraction())
}
