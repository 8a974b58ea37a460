package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"drip-rating-server/models"
)

type fakeStore struct {
	items      []models.PendingSubmission
	removed    []uint
	markFailed []uint
	allErr     error
	removeErr  error
}

func (s *fakeStore) All() ([]models.PendingSubmission, error) {
	if s.allErr != nil {
		return nil, s.allErr
	}
	out := make([]models.PendingSubmission, 0, len(s.items))
	for _, item := range s.items {
		if !contains(s.removed, item.ID) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fakeStore) Remove(id uint) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, id)
	return nil
}

func (s *fakeStore) MarkFailed(id uint) error {
	s.markFailed = append(s.markFailed, id)
	return nil
}

func contains(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeReplayer struct {
	attempted []uint
	failOn    map[uint]error
}

func (r *fakeReplayer) PersistPending(ctx context.Context, item models.PendingSubmission) error {
	r.attempted = append(r.attempted, item.ID)
	if err, ok := r.failOn[item.ID]; ok {
		return err
	}
	return nil
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) NotifyUser(userID uint, event string, data map[string]interface{}) {
	n.events = append(n.events, event)
}

func threeItems() []models.PendingSubmission {
	return []models.PendingSubmission{
		{ID: 1, UserID: 10},
		{ID: 2, UserID: 10},
		{ID: 3, UserID: 11},
	}
}

func TestDrainReplaysAllInOrder(t *testing.T) {
	store := &fakeStore{items: threeItems()}
	replayer := &fakeReplayer{}
	notifier := &fakeNotifier{}
	job := NewReplayJob(store, replayer, notifier, time.Hour)

	job.Drain(context.Background())

	if len(replayer.attempted) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(replayer.attempted))
	}
	for i, want := range []uint{1, 2, 3} {
		if replayer.attempted[i] != want {
			t.Errorf("attempt %d was item %d, want %d", i, replayer.attempted[i], want)
		}
	}
	if len(store.removed) != 3 {
		t.Errorf("expected 3 removals, got %d", len(store.removed))
	}
	if len(notifier.events) != 3 {
		t.Errorf("expected 3 notifications, got %d", len(notifier.events))
	}
}

func TestDrainHaltsOnFirstFailure(t *testing.T) {
	store := &fakeStore{items: threeItems()}
	replayer := &fakeReplayer{failOn: map[uint]error{2: errors.New("write failed")}}
	job := NewReplayJob(store, replayer, nil, time.Hour)

	job.Drain(context.Background())

	if len(replayer.attempted) != 2 {
		t.Fatalf("expected attempts to stop at item 2, got %d attempts", len(replayer.attempted))
	}
	if !contains(store.removed, 1) {
		t.Error("item 1 succeeded and should be removed")
	}
	if contains(store.removed, 2) || contains(store.removed, 3) {
		t.Error("items 2 and 3 must stay queued")
	}
	if !contains(store.markFailed, 2) {
		t.Error("failed item should have its attempt counter bumped")
	}

	// The failed item and its successors survive in order for the next pass.
	remaining, _ := store.All()
	if len(remaining) != 2 || remaining[0].ID != 2 || remaining[1].ID != 3 {
		t.Errorf("unexpected queue after failed pass: %+v", remaining)
	}
}

func TestDrainRetriesHaltedItemNextPass(t *testing.T) {
	store := &fakeStore{items: threeItems()}
	replayer := &fakeReplayer{failOn: map[uint]error{2: errors.New("write failed")}}
	job := NewReplayJob(store, replayer, nil, time.Hour)

	job.Drain(context.Background())

	// Backend recovers
	replayer.failOn = nil
	job.Drain(context.Background())

	want := []uint{1, 2, 2, 3}
	if len(replayer.attempted) != len(want) {
		t.Fatalf("attempts = %v, want %v", replayer.attempted, want)
	}
	for i := range want {
		if replayer.attempted[i] != want[i] {
			t.Fatalf("attempts = %v, want %v", replayer.attempted, want)
		}
	}
	if remaining, _ := store.All(); len(remaining) != 0 {
		t.Errorf("queue should be empty, got %+v", remaining)
	}
}

func TestDrainStopsWhenRemoveFails(t *testing.T) {
	store := &fakeStore{items: threeItems(), removeErr: errors.New("delete failed")}
	replayer := &fakeReplayer{}
	job := NewReplayJob(store, replayer, nil, time.Hour)

	job.Drain(context.Background())

	if len(replayer.attempted) != 1 {
		t.Errorf("a failed removal must end the pass, got %d attempts", len(replayer.attempted))
	}
}

func TestDrainEmptyQueueIsQuiet(t *testing.T) {
	store := &fakeStore{}
	replayer := &fakeReplayer{}
	job := NewReplayJob(store, replayer, nil, time.Hour)

	job.Drain(context.Background())

	if len(replayer.attempted) != 0 {
		t.Errorf("empty queue should attempt nothing, got %d", len(replayer.attempted))
	}
}

func TestDrainStoreReadFailure(t *testing.T) {
	store := &fakeStore{allErr: errors.New("db down")}
	replayer := &fakeReplayer{}
	job := NewReplayJob(store, replayer, nil, time.Hour)

	job.Drain(context.Background())

	if len(replayer.attempted) != 0 {
		t.Errorf("unreadable queue should attempt nothing, got %d", len(replayer.attempted))
	}
}

func TestTriggerCoalesces(t *testing.T) {
	job := NewReplayJob(&fakeStore{}, &fakeReplayer{}, nil, time.Hour)

	// Repeated triggers before a pass runs must not block.
	for i := 0; i < 10; i++ {
		job.Trigger()
	}
	if len(job.trigger) != 1 {
		t.Errorf("trigger channel holds %d signals, want 1", len(job.trigger))
	}
}
