package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/lib/eventbus"
	"github.com/launchdeck-platform/middleware"
	"github.com/launchdeck-platform/services"
)

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, registry *eventbus.Registry) {
	deploymentService := services.NewDeploymentService(registry)
	resourceService := services.NewManagedResourceService()

	// Health check endpoint
	router.GET("/health", HealthCheck)

	// Auth endpoints
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", Register)
		authGroup.POST("/login", Login)
		authGroup.POST("/logout", Logout)
		// Use auth middleware here only for the /me endpoint
		authGroup.GET("/me", middleware.AuthMiddleware(), GetCurrentUser)
	}

	// Webhook ingestion - authenticated by HMAC signature, not JWT
	NewWebhookController(deploymentService).RegisterRoutes(router)

	// Everything below requires a valid session
	authed := router.Group("")
	authed.Use(middleware.AuthMiddleware())

	// Project endpoints
	projectGroup := authed.Group("/projects")
	{
		projectGroup.GET("", ListProjects)
		projectGroup.POST("", CreateProject)
		projectGroup.GET("/:id", GetProject)
		projectGroup.PUT("/:id", UpdateProject)
		projectGroup.DELETE("/:id", DeleteProject)
	}

	// Deployment lifecycle; the executor status callback authenticates
	// with a shared key and lives on the public group
	NewDeploymentController(deploymentService, projectService).RegisterRoutes(authed, router)

	// Live deployment event stream (SSE)
	NewStreamController(deploymentService).RegisterRoutes(authed)

	// Managed database resources
	NewResourceController(resourceService).RegisterRoutes(authed)

	// Admin endpoints
	adminGroup := authed.Group("/admin")
	adminGroup.Use(middleware.AdminMiddleware())
	{
		adminGroup.GET("/stats/nodes", GetNodeStats)
	}
}
