package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/models"
	"github.com/launchdeck-platform/services"
)

var projectService = services.NewProjectService()

// ListProjects returns the caller's projects; admins see every project
func ListProjects(c *gin.Context) {
	userID, role := callerIdentity(c)

	projects, err := projectService.List(userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   projects,
	})
}

// GetProject returns one project scoped to the caller
func GetProject(c *gin.Context) {
	userID, role := callerIdentity(c)

	project, err := projectService.Get(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   project,
	})
}

// CreateProject links a repository as a new project
func CreateProject(c *gin.Context) {
	userID, _ := callerIdentity(c)

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request data: " + err.Error(),
		})
		return
	}

	project, err := projectService.Create(req.Name, req.Slug, req.RepoURL,
		req.ProductionBranch, models.PlanTier(req.Plan), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   project,
	})
}

// UpdateProject modifies mutable project fields
func UpdateProject(c *gin.Context) {
	userID, role := callerIdentity(c)

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request data: " + err.Error(),
		})
		return
	}

	project, err := projectService.Update(c.Param("id"), userID, role == "admin",
		req.Name, req.ProductionBranch, models.PlanTier(req.Plan))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   project,
	})
}

// DeleteProject removes a project and everything it owns
func DeleteProject(c *gin.Context) {
	userID, role := callerIdentity(c)

	if err := projectService.Delete(c.Param("id"), userID, role == "admin"); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Project deleted successfully",
	})
}
