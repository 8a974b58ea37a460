package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"drip-rating-server/cache"
	"drip-rating-server/config"
	"drip-rating-server/database"
	"drip-rating-server/jobs"
	"drip-rating-server/middleware"
	"drip-rating-server/routes"
	"drip-rating-server/services"
	ws "drip-rating-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Set Gin mode
	if config.AppConfig.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security middleware stack
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.RateLimitMiddleware())

	// CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins()
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Device-ID")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Drip Rating Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// Notification hub for save-status events
	hub := ws.NewHub()
	go hub.Run()

	// Submission pipeline
	sessions := cache.NewManager()
	aiService := services.NewAIService()
	mediaService := services.NewMediaService()
	ratingService := services.NewRatingService(aiService, mediaService, sessions, hub)

	// Pending-queue replay job: periodic plus explicit triggers
	replayJob := jobs.NewReplayJob(jobs.NewGormPendingStore(), ratingService, hub, config.AppConfig.Replay.Interval)
	replayJob.Start()
	defer replayJob.Stop()

	routes.RegisterNotificationRoutes(router, hub)

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (no authentication required) - with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes, ratingService, replayJob)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protectedAuth := protected.Group("/auth")
			routes.RegisterProtectedAuthRoutes(protectedAuth, ratingService)

			routes.RegisterRatingRoutes(protected, ratingService, replayJob)
		}
	}

	// Start token cleanup job
	go func() {
		ticker := time.NewTicker(24 * time.Hour) // Run daily
		defer ticker.Stop()

		for range ticker.C {
			jwtService := services.NewJWTService()
			if err := jwtService.CleanupExpiredTokens(); err != nil {
				log.Printf("❌ Token cleanup failed: %v", err)
			}
		}
	}()

	port := config.AppConfig.Server.Port
	log.Printf("Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// allowedOrigins reads the comma-separated CORS allow list from the
// environment, defaulting to local development hosts.
func allowedOrigins() []string {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return []string{"http://localhost:3000", "http://localhost:8081"}
}
