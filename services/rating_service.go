package services

import (
	"context"
	"log"
	"time"

	"drip-rating-server/cache"
	"drip-rating-server/config"
	"drip-rating-server/database"
	"drip-rating-server/models"
	"drip-rating-server/types"
	"drip-rating-server/utils"
)

// Notifier delivers non-blocking notifications to a connected user. A nil
// or disconnected target drops the message; persistence never waits on it.
type Notifier interface {
	NotifyUser(userID uint, event string, data map[string]interface{})
}

// RatingService runs the submission pipeline: normalize the image, get the
// model's critique, insert the result into the session cache immediately,
// then persist in the background. Durable-write failures are masked from
// the user; the record stays visible and lands in the pending queue.
type RatingService struct {
	ai       *AIService
	media    *MediaService
	sessions *cache.Manager
	notifier Notifier

	persistPolicy utils.RetryPolicy
	maxWidth      uint
	thumbWidth    uint
	jpegQuality   int
}

// NewRatingService wires the pipeline. notifier may be nil.
func NewRatingService(ai *AIService, media *MediaService, sessions *cache.Manager, notifier Notifier) *RatingService {
	cfg := config.AppConfig
	return &RatingService{
		ai:       ai,
		media:    media,
		sessions: sessions,
		notifier: notifier,
		persistPolicy: utils.RetryPolicy{
			MaxAttempts: cfg.Gemini.MaxAttempts,
			BaseDelay:   cfg.Gemini.BaseDelay,
			// Constraint and data errors repeat identically; retrying them
			// only delays the enqueue
			Retryable: database.IsRetryableWrite,
		},
		maxWidth:    cfg.Image.MaxWidth,
		thumbWidth:  cfg.Image.ThumbnailWidth,
		jpegQuality: cfg.Image.JPEGQuality,
	}
}

// Submit rates raw image bytes for the given user and returns the record
// already visible in their session cache. The durable write continues in
// the background after this returns.
func (s *RatingService) Submit(ctx context.Context, userID uint, callerToken string, imageBytes []byte) (*models.OutfitRating, error) {
	// Bounded-dimension JPEG for the scoring endpoint
	normalized, err := utils.NormalizeImage(imageBytes, s.maxWidth, s.jpegQuality)
	if err != nil {
		return nil, err
	}

	result, err := s.ai.RateOutfit(ctx, callerToken, normalized)
	if err != nil {
		return nil, err
	}

	// Small thumbnail for history storage
	thumb, err := utils.NormalizeImage(imageBytes, s.thumbWidth, 75)
	if err != nil {
		// Decode already succeeded above; fall back to the scoring payload
		thumb = normalized
	}

	sess := s.sessions.Session(userID)
	record := models.OutfitRating{
		ID:           sess.NextPlaceholderID(),
		UserID:       userID,
		ImageURL:     thumb.DataURL(),
		OutfitVibe:   result.OutfitVibe,
		LookScore:    result.LookScore,
		LookComment:  result.LookComment,
		ColorScore:   result.ColorScore,
		ColorComment: result.ColorComment,
		Suggestions:  result.Suggestions,
		Observations: result.Observations,
		CreatedAt:    time.Now().UTC(),
	}

	// Optimistic insert happens-before the durable write
	sess.Insert(record)

	go s.persistInBackground(record)

	return &record, nil
}

// persistInBackground attempts the durable write with retry, reconciles the
// session cache on success and enqueues the payload on terminal failure.
// Once started it runs to completion; navigation away on the client does
// not cancel it.
func (s *RatingService) persistInBackground(record models.OutfitRating) {
	ctx := context.Background()
	placeholderID := record.ID

	// Canonicalize the image reference once, outside the retry loop. Upload
	// failure is not fatal: the inline data URL is already durable.
	imageURL := record.ImageURL
	if url, err := s.media.UploadThumbnail(ctx, record.UserID, record.ImageURL); err != nil {
		log.Printf("⚠️ Thumbnail upload failed for user %d, storing inline: %v", record.UserID, err)
	} else if url != "" {
		imageURL = url
	}

	row := models.OutfitRating{
		UserID:       record.UserID,
		ImageURL:     imageURL,
		OutfitVibe:   record.OutfitVibe,
		LookScore:    record.LookScore,
		LookComment:  record.LookComment,
		ColorScore:   record.ColorScore,
		ColorComment: record.ColorComment,
		Suggestions:  record.Suggestions,
		Observations: record.Observations,
	}

	err := s.persistPolicy.Do(ctx, func() error {
		row.ID = 0
		return database.DB.Create(&row).Error
	})
	if err != nil {
		log.Printf("❌ Durable write failed for user %d after retries: %v", record.UserID, err)
		s.enqueuePending(record)
		return
	}

	sess := s.sessions.Session(record.UserID)
	sess.Reconcile(placeholderID, row.ID, row.ImageURL, row.CreatedAt)
	s.notify(record.UserID, "rating_saved", map[string]interface{}{
		"id":        row.ID,
		"image_url": row.ImageURL,
	})
	log.Printf("✅ Rating %d persisted for user %d", row.ID, record.UserID)
}

// enqueuePending appends the fully-normalized payload to the durable
// overflow queue and tells the user without blocking anything.
func (s *RatingService) enqueuePending(record models.OutfitRating) {
	pending := models.PendingSubmission{
		UserID:       record.UserID,
		ImageDataURL: record.ImageURL,
		OutfitVibe:   record.OutfitVibe,
		LookScore:    record.LookScore,
		LookComment:  record.LookComment,
		ColorScore:   record.ColorScore,
		ColorComment: record.ColorComment,
		Suggestions:  record.Suggestions,
		Observations: record.Observations,
	}
	if err := database.DB.Create(&pending).Error; err != nil {
		// The record is still visible in the session cache; nothing else to do
		log.Printf("❌ Failed to enqueue pending submission for user %d: %v", record.UserID, err)
		return
	}

	s.notify(record.UserID, "rating_queued", map[string]interface{}{
		"message": "Saving failed. Will retry automatically.",
	})
	log.Printf("📥 Rating queued for replay (user %d, pending %d)", record.UserID, pending.ID)
}

// PersistPending replays one queued submission. Used by the replay job;
// retries inside a single item the same way the foreground write does.
func (s *RatingService) PersistPending(ctx context.Context, item models.PendingSubmission) error {
	row := item.ToRating()

	if url, err := s.media.UploadThumbnail(ctx, item.UserID, item.ImageDataURL); err == nil && url != "" {
		row.ImageURL = url
	}

	return s.persistPolicy.Do(ctx, func() error {
		row.ID = 0
		return database.DB.Create(&row).Error
	})
}

// History returns the user's rating list newest first, warming the session
// cache from the durable store on first access.
func (s *RatingService) History(userID uint) ([]models.OutfitRating, error) {
	sess := s.sessions.Session(userID)
	if !sess.Loaded() {
		if err := s.warmSession(userID, sess); err != nil {
			return nil, err
		}
	}
	return sess.Ratings(), nil
}

// Stats returns the summary derived from the current rating list.
func (s *RatingService) Stats(userID uint) (models.UserStats, error) {
	sess := s.sessions.Session(userID)
	if !sess.Loaded() {
		if err := s.warmSession(userID, sess); err != nil {
			return models.UserStats{}, err
		}
	}
	return sess.Stats(), nil
}

// WarmSession preloads the cache, used at authenticated session start.
func (s *RatingService) WarmSession(userID uint) {
	sess := s.sessions.Session(userID)
	if err := s.warmSession(userID, sess); err != nil {
		log.Printf("⚠️ Failed to warm session cache for user %d: %v", userID, err)
	}
}

// DropSession discards the cache on sign-out.
func (s *RatingService) DropSession(userID uint) {
	s.sessions.Drop(userID)
}

func (s *RatingService) warmSession(userID uint, sess *cache.SessionCache) error {
	var rows []models.OutfitRating
	if err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return types.NewError(types.KindPersistence, "failed to load rating history", err)
	}
	sess.Load(rows)
	return nil
}

func (s *RatingService) notify(userID uint, event string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyUser(userID, event, data)
}
