package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/middleware"
	"github.com/launchdeck-platform/services"
)

// DeploymentController exposes the deployment lifecycle endpoints
type DeploymentController struct {
	deployments *services.DeploymentService
	projects    *services.ProjectService
}

// NewDeploymentController creates the deployment controller
func NewDeploymentController(deployments *services.DeploymentService, projects *services.ProjectService) *DeploymentController {
	return &DeploymentController{deployments: deployments, projects: projects}
}

// RegisterRoutes registers deployment routes. The status callback sits
// outside the JWT group because the build executor authenticates with a
// shared key instead.
func (ctrl *DeploymentController) RegisterRoutes(authed, public *gin.RouterGroup) {
	authed.GET("/projects/:id/deployments", ctrl.ListProjectDeployments)
	authed.POST("/projects/:id/deployments", ctrl.TriggerDeployment)
	authed.GET("/deployments/:id", ctrl.GetDeployment)
	authed.POST("/deployments/:id/cancel", ctrl.CancelDeployment)

	public.PATCH("/deployments/:id/status", middleware.ExecutorAuthMiddleware(), ctrl.UpdateStatus)
}

// ListProjectDeployments returns a project's deployments, newest first
func (ctrl *DeploymentController) ListProjectDeployments(c *gin.Context) {
	userID, role := callerIdentity(c)

	deployments, err := ctrl.deployments.ListProjectDeployments(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   deployments,
	})
}

// TriggerDeployment starts a deployment manually, outside the webhook flow
func (ctrl *DeploymentController) TriggerDeployment(c *gin.Context) {
	userID, role := callerIdentity(c)

	var req dto.TriggerDeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	project, err := ctrl.projects.Get(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	author := req.Author
	if author == "" {
		author = userID
	}
	deployment, err := ctrl.deployments.Trigger(project, req.Branch, req.CommitSHA,
		req.CommitMessage, author, req.IsPreview, req.PRNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   dto.NewDeploymentSummary(deployment),
	})
}

// GetDeployment returns one deployment scoped to the caller
func (ctrl *DeploymentController) GetDeployment(c *gin.Context) {
	userID, role := callerIdentity(c)

	deployment, err := ctrl.deployments.GetDeployment(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   deployment,
	})
}

// CancelDeployment cancels a running deployment. Cancelling an already
// finished deployment returns the deployment unchanged.
func (ctrl *DeploymentController) CancelDeployment(c *gin.Context) {
	userID, role := callerIdentity(c)

	// Authorization runs through the same scoped lookup as reads
	if _, err := ctrl.deployments.GetDeployment(c.Param("id"), userID, role == "admin"); err != nil {
		respondError(c, err)
		return
	}

	deployment, err := ctrl.deployments.Cancel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   deployment,
	})
}

// UpdateStatus handles build executor status callbacks
func (ctrl *DeploymentController) UpdateStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	deployment, err := ctrl.deployments.ApplyStatus(c.Param("id"), req.Status, req.URL, req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   dto.NewDeploymentSummary(deployment),
	})
}

// callerIdentity reads the identity the auth middleware stored
func callerIdentity(c *gin.Context) (string, string) {
	userID, _ := c.Get("userId")
	role, _ := c.Get("role")
	id, _ := userID.(string)
	r, _ := role.(string)
	return id, r
}
