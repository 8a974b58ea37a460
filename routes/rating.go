package routes

import (
	"encoding/base64"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"drip-rating-server/database"
	"drip-rating-server/jobs"
	"drip-rating-server/models"
	"drip-rating-server/services"
	"drip-rating-server/types"
)

// RegisterRatingRoutes registers the rating pipeline routes
func RegisterRatingRoutes(router *gin.RouterGroup, ratingService *services.RatingService, replayJob *jobs.ReplayJob) {
	ratingRoutes := router.Group("/ratings")
	{
		// Rate an outfit photo
		ratingRoutes.POST("/rate", rateOutfit(ratingService))

		// Rating history, newest first
		ratingRoutes.GET("", getRatingHistory(ratingService))
		ratingRoutes.GET("/", getRatingHistory(ratingService))

		// Profile statistics derived from the history
		ratingRoutes.GET("/stats", getUserStats(ratingService))

		// Pending-queue size for the current user
		ratingRoutes.GET("/pending", getPendingCount)

		// Connectivity-restored signal: drain the pending queue now
		ratingRoutes.POST("/replay", func(c *gin.Context) {
			replayJob.Trigger()
			c.JSON(http.StatusAccepted, gin.H{
				"success": true,
				"message": "Replay scheduled",
			})
		})
	}
}

// rateOutfit accepts either a JSON body {image, mimeType} with raw base64,
// or a multipart form with a "photo" file, and runs the submission pipeline.
func rateOutfit(ratingService *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		callerToken := c.GetString("access_token")

		imageBytes, err := readSubmittedImage(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid image payload",
			})
			return
		}

		record, err := ratingService.Submit(c.Request.Context(), userID, callerToken, imageBytes)
		if err != nil {
			status, message := statusForError(err)
			log.Printf("❌ Rating submission failed for user %d: %v", userID, err)
			c.JSON(status, gin.H{
				"success": false,
				"error":   message,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"rating":  record,
		})
	}
}

func readSubmittedImage(c *gin.Context) ([]byte, error) {
	// Camera snaps arrive as JSON base64; file uploads as multipart
	if file, err := c.FormFile("photo"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	var req struct {
		Image    string `json:"image" binding:"required"`
		MimeType string `json:"mimeType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(req.Image)
}

func getRatingHistory(ratingService *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		ratings, err := ratingService.History(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Failed to fetch rating history",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"ratings": ratings,
		})
	}
}

func getUserStats(ratingService *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		stats, err := ratingService.Stats(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Failed to compute stats",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"stats":   stats,
		})
	}
}

func getPendingCount(c *gin.Context) {
	userID := c.GetUint("user_id")

	var count int64
	if err := database.DB.Model(&models.PendingSubmission{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to count pending submissions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pending": count,
	})
}

// statusForError maps the pipeline error taxonomy onto HTTP statuses.
func statusForError(err error) (int, string) {
	switch types.KindOf(err) {
	case types.KindUnauthorized:
		return http.StatusUnauthorized, "Please sign in again"
	case types.KindValidation:
		return http.StatusBadRequest, "Please try a different photo"
	case types.KindResponseFormat:
		return http.StatusBadGateway, "Failed to get rating"
	case types.KindTransient:
		return http.StatusServiceUnavailable, "Rating service is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}
