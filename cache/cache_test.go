package cache

import (
	"testing"
	"time"

	"drip-rating-server/models"
)

func TestInsertKeepsNewestFirst(t *testing.T) {
	c := newSessionCache()

	for i := 1; i <= 3; i++ {
		c.Insert(models.OutfitRating{
			ID:         c.NextPlaceholderID(),
			OutfitVibe: "Streetwear",
			LookScore:  float64(i),
			ColorScore: float64(i),
		})
	}

	got := c.Ratings()
	if len(got) != 3 {
		t.Fatalf("expected 3 ratings, got %d", len(got))
	}
	for i, want := range []float64{3, 2, 1} {
		if got[i].LookScore != want {
			t.Errorf("position %d has score %v, want %v", i, got[i].LookScore, want)
		}
	}
	if c.Stats().TotalRatings != 3 {
		t.Errorf("stats not recomputed on insert, TotalRatings = %d", c.Stats().TotalRatings)
	}
}

func TestNextPlaceholderIDIsUnique(t *testing.T) {
	c := newSessionCache()

	seen := make(map[uint]bool)
	for i := 0; i < 100; i++ {
		id := c.NextPlaceholderID()
		if seen[id] {
			t.Fatalf("placeholder ID %d issued twice", id)
		}
		seen[id] = true
	}
}

func TestReconcileSwapsInPlace(t *testing.T) {
	c := newSessionCache()

	first := c.NextPlaceholderID()
	c.Insert(models.OutfitRating{ID: first, OutfitVibe: "Formal", ImageURL: "data:image/jpeg;base64,xxx"})
	second := c.NextPlaceholderID()
	c.Insert(models.OutfitRating{ID: second, OutfitVibe: "Y2K", ImageURL: "data:image/jpeg;base64,yyy"})

	savedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !c.Reconcile(first, 42, "https://cdn.example/outfit.jpg", savedAt) {
		t.Fatal("reconcile of known placeholder returned false")
	}

	got := c.Ratings()
	if got[0].ID != second {
		t.Errorf("newest record moved, got ID %d", got[0].ID)
	}
	if got[1].ID != 42 {
		t.Errorf("reconciled record has ID %d, want 42", got[1].ID)
	}
	if got[1].ImageURL != "https://cdn.example/outfit.jpg" {
		t.Errorf("image URL not swapped, got %q", got[1].ImageURL)
	}
	if !got[1].CreatedAt.Equal(savedAt) {
		t.Errorf("timestamp not swapped, got %v", got[1].CreatedAt)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	c := newSessionCache()

	id := c.NextPlaceholderID()
	c.Insert(models.OutfitRating{ID: id, OutfitVibe: "Minimalist"})

	if !c.Reconcile(id, 7, "https://cdn.example/a.jpg", time.Now()) {
		t.Fatal("first reconcile failed")
	}
	if c.Reconcile(id, 99, "https://cdn.example/b.jpg", time.Now()) {
		t.Error("second reconcile of the same placeholder must be a no-op")
	}

	got := c.Ratings()
	if got[0].ID != 7 || got[0].ImageURL != "https://cdn.example/a.jpg" {
		t.Errorf("record changed by repeated reconcile: %+v", got[0])
	}
}

func TestReconcileUnknownPlaceholder(t *testing.T) {
	c := newSessionCache()
	if c.Reconcile(12345, 1, "url", time.Now()) {
		t.Error("reconcile of unknown placeholder must return false")
	}
}

func TestLoadKeepsInFlightRecordsAtFront(t *testing.T) {
	c := newSessionCache()

	pending := c.NextPlaceholderID()
	c.Insert(models.OutfitRating{ID: pending, OutfitVibe: "Streetwear"})

	c.Load([]models.OutfitRating{
		{ID: 10, OutfitVibe: "Formal"},
		{ID: 9, OutfitVibe: "Y2K"},
	})

	got := c.Ratings()
	if len(got) != 3 {
		t.Fatalf("expected 3 ratings after load, got %d", len(got))
	}
	if got[0].ID != pending {
		t.Errorf("in-flight record not at front, got ID %d", got[0].ID)
	}
	if got[1].ID != 10 || got[2].ID != 9 {
		t.Errorf("durable rows out of order: %d, %d", got[1].ID, got[2].ID)
	}
	if !c.Loaded() {
		t.Error("cache should report loaded after Load")
	}
}

func TestLoadDropsReconciledRecords(t *testing.T) {
	c := newSessionCache()

	id := c.NextPlaceholderID()
	c.Insert(models.OutfitRating{ID: id, OutfitVibe: "Formal"})
	c.Reconcile(id, 5, "https://cdn.example/x.jpg", time.Now())

	// The durable store now owns this record; Load replaces it.
	c.Load([]models.OutfitRating{{ID: 5, OutfitVibe: "Formal"}})

	got := c.Ratings()
	if len(got) != 1 {
		t.Fatalf("expected 1 rating, got %d", len(got))
	}
	if got[0].ID != 5 {
		t.Errorf("got ID %d, want 5", got[0].ID)
	}
}

func TestManagerSessionPerUser(t *testing.T) {
	m := NewManager()

	a := m.Session(1)
	b := m.Session(2)
	if a == b {
		t.Fatal("distinct users must get distinct caches")
	}
	if m.Session(1) != a {
		t.Error("repeated lookup must return the same cache")
	}

	m.Drop(1)
	if m.Session(1) == a {
		t.Error("dropped session should be recreated fresh")
	}
}
