package jobs

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"drip-rating-server/database"
	"drip-rating-server/models"
)

// PendingStore is the durable overflow queue of submissions awaiting a
// successful write to the backing store.
type PendingStore interface {
	// All returns the queue front-to-back (FIFO by insertion order).
	All() ([]models.PendingSubmission, error)
	// Remove drops a successfully replayed item.
	Remove(id uint) error
	// MarkFailed bumps the attempt counter of an item that failed a pass.
	MarkFailed(id uint) error
}

// Replayer persists one queued submission.
type Replayer interface {
	PersistPending(ctx context.Context, item models.PendingSubmission) error
}

// Notifier mirrors services.Notifier without importing it.
type Notifier interface {
	NotifyUser(userID uint, event string, data map[string]interface{})
}

// ReplayJob drains the pending-submission queue on a periodic tick and on
// explicit triggers (connectivity restored, session start). A single item
// failure halts the whole pass: order is preserved and a struggling backend
// is not hammered with the rest of the queue. The failed item stays queued
// for the next trigger.
type ReplayJob struct {
	store    PendingStore
	replayer Replayer
	notifier Notifier
	interval time.Duration
	trigger  chan struct{}
	stopChan chan bool
}

// NewReplayJob creates a replay job. notifier may be nil.
func NewReplayJob(store PendingStore, replayer Replayer, notifier Notifier, interval time.Duration) *ReplayJob {
	return &ReplayJob{
		store:    store,
		replayer: replayer,
		notifier: notifier,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopChan: make(chan bool),
	}
}

// Start begins the replay job
func (j *ReplayJob) Start() {
	go j.run()
	log.Println("🚀 Replay job started")
}

// Stop stops the replay job
func (j *ReplayJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Replay job stopped")
}

// Trigger requests an immediate drain pass without blocking the caller.
// A pass already pending coalesces with this one.
func (j *ReplayJob) Trigger() {
	select {
	case j.trigger <- struct{}{}:
	default:
	}
}

// run executes the replay job
func (j *ReplayJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Drain(context.Background())
		case <-j.trigger:
			j.Drain(context.Background())
		case <-j.stopChan:
			return
		}
	}
}

// Drain replays queued submissions front-to-back. Successes are removed
// individually; the first failure ends the pass with the remaining items
// still queued in their original order.
func (j *ReplayJob) Drain(ctx context.Context) {
	items, err := j.store.All()
	if err != nil {
		log.Printf("❌ Failed to read pending submissions: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	log.Printf("🔁 Draining %d pending submissions", len(items))
	for _, item := range items {
		if err := j.replayer.PersistPending(ctx, item); err != nil {
			log.Printf("⚠️ Replay of pending %d failed, halting pass: %v", item.ID, err)
			if markErr := j.store.MarkFailed(item.ID); markErr != nil {
				log.Printf("❌ Failed to record replay attempt for %d: %v", item.ID, markErr)
			}
			return
		}

		if err := j.store.Remove(item.ID); err != nil {
			// Leaving the row risks a duplicate on the next pass, so stop here
			log.Printf("❌ Failed to remove replayed pending %d: %v", item.ID, err)
			return
		}

		if j.notifier != nil {
			j.notifier.NotifyUser(item.UserID, "rating_replayed", map[string]interface{}{
				"pending_id": item.ID,
			})
		}
		log.Printf("✅ Pending submission %d replayed for user %d", item.ID, item.UserID)
	}
}

// GormPendingStore is the Postgres-backed queue implementation.
type GormPendingStore struct{}

func NewGormPendingStore() *GormPendingStore {
	return &GormPendingStore{}
}

func (s *GormPendingStore) All() ([]models.PendingSubmission, error) {
	var items []models.PendingSubmission
	err := database.DB.Order("id ASC").Find(&items).Error
	return items, err
}

func (s *GormPendingStore) Remove(id uint) error {
	return database.DB.Delete(&models.PendingSubmission{}, id).Error
}

func (s *GormPendingStore) MarkFailed(id uint) error {
	return database.DB.Model(&models.PendingSubmission{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}
