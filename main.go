package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	v1 "github.com/launchdeck-platform/api/v1"
	"github.com/launchdeck-platform/config"
	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/lib/eventbus"
)

func main() {
	// Load .env before anything reads configuration
	config.LoadEnv()

	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Connect to the database and run migrations
	database.Initialize()

	// Per-deployment event buses live for the process lifetime
	registry := eventbus.NewRegistry()

	// Initialize router
	router := gin.Default()

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "Last-Event-ID"},
		AllowCredentials: true,
	}))

	// Root health endpoint for load balancer probes
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "launchdeck",
			"version": "1.0.0",
		})
	})

	// API routes
	v1.RegisterRoutes(router.Group("/api/v1"), registry)

	port := config.GetEnv("PORT", "8080")

	// Start server
	log.Printf("🚀 LaunchDeck starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
