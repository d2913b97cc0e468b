package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/services"
)

// ResourceController exposes the managed database resource endpoints
type ResourceController struct {
	resources *services.ManagedResourceService
}

// NewResourceController creates the resource controller
func NewResourceController(resources *services.ManagedResourceService) *ResourceController {
	return &ResourceController{resources: resources}
}

// RegisterRoutes registers resource routes on the authenticated group
func (ctrl *ResourceController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/projects/:id/resources", ctrl.CreateResource)
	router.GET("/projects/:id/resources", ctrl.ListResources)
	router.GET("/resources/:id", ctrl.GetResource)
	router.GET("/resources/:id/stats", ctrl.GetResourceStats)
	router.DELETE("/resources/:id", ctrl.DeleteResource)
}

// CreateResource provisions a new managed database instance. The
// response is the only time the generated credentials are returned.
func (ctrl *ResourceController) CreateResource(c *gin.Context) {
	userID, role := callerIdentity(c)

	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	created, err := ctrl.resources.Provision(c.Param("id"), req, userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "success",
		"data":   created,
	})
}

// ListResources returns a project's resources with credentials stripped
func (ctrl *ResourceController) ListResources(c *gin.Context) {
	userID, role := callerIdentity(c)

	resources, err := ctrl.resources.List(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   resources,
	})
}

// GetResource returns one resource with credentials stripped
func (ctrl *ResourceController) GetResource(c *gin.Context) {
	userID, role := callerIdentity(c)

	resource, err := ctrl.resources.Get(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   resource,
	})
}

// GetResourceStats returns a live utilization snapshot plus history
func (ctrl *ResourceController) GetResourceStats(c *gin.Context) {
	userID, role := callerIdentity(c)

	stats, err := ctrl.resources.Stats(c.Param("id"), userID, role == "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   stats,
	})
}

// DeleteResource tears down the backing instance and removes the resource
func (ctrl *ResourceController) DeleteResource(c *gin.Context) {
	userID, role := callerIdentity(c)

	if err := ctrl.resources.Deprovision(c.Param("id"), userID, role == "admin"); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Resource deleted successfully",
	})
}
