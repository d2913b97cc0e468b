package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/dto"
)

// webhookIngestor is the slice of the deployment service the webhook
// endpoint needs
type webhookIngestor interface {
	IngestWebhook(raw []byte, signature, eventKind string) (dto.WebhookResponse, error)
}

// WebhookController ingests code-hosting webhook deliveries
type WebhookController struct {
	deployments webhookIngestor
}

// NewWebhookController creates the webhook controller
func NewWebhookController(deployments webhookIngestor) *WebhookController {
	return &WebhookController{deployments: deployments}
}

// RegisterRoutes registers the webhook endpoint. It is deliberately
// outside the JWT-protected groups; authenticity comes from the HMAC
// signature, not a session.
func (ctrl *WebhookController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/github", ctrl.HandleGitHubWebhook)
}

// HandleGitHubWebhook verifies and routes one webhook delivery.
// The raw body is read before any parsing because the signature covers
// the exact bytes on the wire.
func (ctrl *WebhookController) HandleGitHubWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Could not read request body",
		})
		return
	}

	response, err := ctrl.deployments.IngestWebhook(
		body,
		c.GetHeader("X-Hub-Signature-256"),
		c.GetHeader("X-GitHub-Event"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	// The webhook contract is a flat body: message, triggered and the
	// optional deployment summary, with no envelope around it.
	c.JSON(http.StatusOK, response)
}
