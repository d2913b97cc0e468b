package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/services"
)

var nodeStatsService = services.NewNodeStatsService()

// GetNodeStats returns cluster node capacity and utilization (admin only)
func GetNodeStats(c *gin.Context) {
	stats, err := nodeStatsService.GetNodeStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to get node statistics: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   stats,
	})
}
