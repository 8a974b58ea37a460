package routes

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"drip-rating-server/database"
	"drip-rating-server/jobs"
	"drip-rating-server/middleware"
	"drip-rating-server/models"
	"drip-rating-server/services"
)

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup, ratingService *services.RatingService, replayJob *jobs.ReplayJob) {
	jwtService := services.NewJWTService()

	// Sign up endpoint
	router.POST("/signup", func(c *gin.Context) {
		var req struct {
			DisplayName     string `json:"display_name" binding:"required,min=2,max=100"`
			Email           string `json:"email" binding:"required"`
			Password        string `json:"password" binding:"required,min=8,max=128"`
			ConfirmPassword string `json:"confirm_password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		// Sanitize input
		req.DisplayName = middleware.SanitizeInput(req.DisplayName)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		if !middleware.ValidateEmail(req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid email",
				"message": "Please provide a valid email address",
			})
			return
		}

		isStrong, problems := middleware.ValidatePasswordStrength(req.Password)
		if !isStrong {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password does not meet security requirements",
				"details": problems,
			})
			return
		}

		if req.Password != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Password mismatch",
				"message": "Passwords do not match",
			})
			return
		}

		// Check if user already exists
		var existingUser models.User
		if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "User already exists",
				"message": "An account with this email already exists",
			})
			return
		}

		// Hash password
		hashedPassword, err := jwtService.HashPassword(req.Password)
		if err != nil {
			log.Printf("❌ Password hashing failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to process password",
			})
			return
		}

		// Create user with a generated avatar
		user := models.User{
			DisplayName:  req.DisplayName,
			Email:        req.Email,
			PasswordHash: hashedPassword,
			AvatarURL:    models.DefaultAvatarURL(req.Email),
			IsActive:     true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("❌ User creation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to create account",
			})
			return
		}

		// Generate tokens
		deviceID := c.GetHeader("X-Device-ID")
		userAgent := c.GetHeader("User-Agent")
		ipAddress := c.ClientIP()

		tokenPair, err := jwtService.GenerateTokenPair(user.ID, deviceID, userAgent, ipAddress)
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication tokens",
			})
			return
		}

		log.Printf("✅ User created successfully: %d", user.ID)

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Account created successfully",
			"data": gin.H{
				"user": gin.H{
					"id":           user.ID,
					"display_name": user.DisplayName,
					"email":        user.Email,
					"avatar_url":   user.AvatarURL,
					"created_at":   user.CreatedAt,
				},
				"tokens": tokenPair,
			},
		})
	})

	// Sign in endpoint
	router.POST("/signin", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var user models.User
		if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Account deactivated",
				"message": "Your account has been deactivated",
			})
			return
		}

		if !jwtService.CheckPasswordHash(req.Password, user.PasswordHash) {
			log.Printf("❌ Invalid password for user: %d", user.ID)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		// Revoke all existing tokens for security
		if err := jwtService.RevokeAllUserTokens(user.ID); err != nil {
			log.Printf("⚠️ Failed to revoke existing tokens for user %d: %v", user.ID, err)
		}

		deviceID := c.GetHeader("X-Device-ID")
		userAgent := c.GetHeader("User-Agent")
		ipAddress := c.ClientIP()

		tokenPair, err := jwtService.GenerateTokenPair(user.ID, deviceID, userAgent, ipAddress)
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication tokens",
			})
			return
		}

		// Session start: warm the rating cache and kick the pending-queue
		// drain so earlier failed saves replay now
		go ratingService.WarmSession(user.ID)
		replayJob.Trigger()

		log.Printf("✅ User signed in: %d", user.ID)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"user": gin.H{
					"id":           user.ID,
					"display_name": user.DisplayName,
					"email":        user.Email,
					"avatar_url":   user.AvatarURL,
				},
				"tokens": tokenPair,
			},
		})
	})

	// Refresh access token endpoint
	router.POST("/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		tokenPair, err := jwtService.RefreshAccessToken(req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid refresh token",
				"message": "Please sign in again",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"tokens": tokenPair},
		})
	})
}

// RegisterProtectedAuthRoutes registers auth routes that require a session
func RegisterProtectedAuthRoutes(router *gin.RouterGroup, ratingService *services.RatingService) {
	jwtService := services.NewJWTService()

	router.GET("/me", func(c *gin.Context) {
		user := c.MustGet("user").(models.User)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"id":           user.ID,
				"display_name": user.DisplayName,
				"email":        user.Email,
				"avatar_url":   user.AvatarURL,
				"created_at":   user.CreatedAt,
			},
		})
	})

	router.POST("/logout", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		if err := jwtService.RevokeAllUserTokens(userID); err != nil {
			log.Printf("⚠️ Failed to revoke tokens for user %d: %v", userID, err)
		}
		ratingService.DropSession(userID)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Signed out successfully",
		})
	})
}
