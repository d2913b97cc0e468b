package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/lib/eventbus"
	"github.com/launchdeck-platform/models"
	"github.com/launchdeck-platform/services"
	"github.com/launchdeck-platform/utils"
)

const heartbeatInterval = 15 * time.Second

// StreamController serves the live deployment event stream over SSE
type StreamController struct {
	deployments *services.DeploymentService
}

// NewStreamController creates the stream controller
func NewStreamController(deployments *services.DeploymentService) *StreamController {
	return &StreamController{deployments: deployments}
}

// RegisterRoutes registers the stream endpoint
func (ctrl *StreamController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/deployments/:id/stream", ctrl.StreamEvents)
}

// StreamEvents attaches the caller to a deployment's event stream.
// Reconnecting clients resume from Last-Event-ID (or the lastEventId
// query parameter, since EventSource cannot set headers on a fresh URL)
// and never see an event twice. Every frame carries the event sequence
// as its SSE id so the browser's native reconnect does the bookkeeping.
func (ctrl *StreamController) StreamEvents(c *gin.Context) {
	userID, role := callerIdentity(c)

	deployment, err := ctrl.deployments.GetDeployment(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	from := resumePoint(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	utils.WriteSSEEvent(c.Writer, dto.StreamEventConnected, dto.ConnectedPayload{
		DeploymentID: deployment.ID,
		Status:       deployment.Status,
	})
	c.Writer.Flush()

	events := ctrl.deployments.StreamEvents(c.Request.Context(), deployment, from)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	// Step events are emitted only when the status actually changes, so
	// a replayed stream does not repeat identical progress frames.
	lastStatus := models.DeploymentStatus("")

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			if err := utils.WriteSSEHeartbeat(c.Writer); err != nil {
				return
			}
			c.Writer.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case eventbus.EventKindLog:
				utils.WriteSSEEventWithID(c.Writer, ev.Seq, dto.StreamEventLog, dto.LogPayload{
					ID:        ev.Seq,
					Level:     ev.Level,
					Message:   ev.Message,
					Timestamp: ev.Timestamp,
				})
			case eventbus.EventKindStatus:
				if ev.Status == lastStatus {
					continue
				}
				lastStatus = ev.Status
				utils.WriteSSEEventWithID(c.Writer, ev.Seq, dto.StreamEventStep, dto.StepForStatus(ev.Status))
			case eventbus.EventKindComplete:
				utils.WriteSSEEventWithID(c.Writer, ev.Seq, dto.StreamEventComplete, dto.CompletePayload{
					Status:   ev.Status,
					URL:      ev.URL,
					Duration: ev.Duration,
				})
				c.Writer.Flush()
				return
			}
			c.Writer.Flush()
		}
	}
}

// resumePoint derives the first sequence the client still needs.
// A client that saw event N reconnects asking for N+1.
func resumePoint(c *gin.Context) int64 {
	raw := c.GetHeader("Last-Event-ID")
	if raw == "" {
		raw = c.Query("lastEventId")
	}
	if raw == "" {
		return 0
	}
	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || last < 0 {
		return 0
	}
	return last + 1
}
