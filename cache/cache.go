// Package cache holds the per-user session cache of rating records.
//
// A rating appears here immediately after the scoring model answers, before
// the durable write completes, so the client always sees its result. Once
// the row is persisted the placeholder fields are reconciled in place; the
// record's position in the list never changes.
package cache

import (
	"sync"
	"time"

	"drip-rating-server/models"
)

// SessionCache is the in-memory, newest-first rating list for one user.
// The submission flow is the only writer per rating, but handlers run on
// separate goroutines, so every mutation goes through the mutex.
type SessionCache struct {
	mu              sync.Mutex
	ratings         []models.OutfitRating
	placeholders    map[uint]bool
	stats           models.UserStats
	lastPlaceholder uint
	loaded          bool
}

func newSessionCache() *SessionCache {
	return &SessionCache{
		placeholders: make(map[uint]bool),
		stats:        models.UserStats{StyleFrequency: make(map[string]int)},
	}
}

// NextPlaceholderID returns a clock-derived identifier guaranteed unique
// within this session. Millisecond values sit far above any serial row ID,
// so a placeholder can never shadow a durable identifier.
func (c *SessionCache) NextPlaceholderID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uint(time.Now().UnixMilli())
	if id <= c.lastPlaceholder {
		id = c.lastPlaceholder + 1
	}
	c.lastPlaceholder = id
	return id
}

// Insert prepends the record before any durable write completes. It is a
// pure in-memory mutation and always succeeds.
func (c *SessionCache) Insert(r models.OutfitRating) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ratings = append([]models.OutfitRating{r}, c.ratings...)
	c.placeholders[r.ID] = true
	c.stats = CalculateUserStats(c.ratings)
}

// Reconcile swaps the placeholder identifier, image reference and timestamp
// for the server-confirmed values. The record keeps its list position. A
// second call with the same placeholder is a no-op, so reconciliation is
// idempotent.
func (c *SessionCache) Reconcile(placeholderID, durableID uint, imageURL string, createdAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.placeholders[placeholderID] {
		return false
	}
	for i := range c.ratings {
		if c.ratings[i].ID == placeholderID {
			c.ratings[i].ID = durableID
			c.ratings[i].ImageURL = imageURL
			c.ratings[i].CreatedAt = createdAt
			delete(c.placeholders, placeholderID)
			c.stats = CalculateUserStats(c.ratings)
			return true
		}
	}
	delete(c.placeholders, placeholderID)
	return false
}

// Load replaces the cached list with rows from the durable store. Records
// still awaiting reconciliation are kept at the front so an optimistic
// result is never dropped from the visible list.
func (c *SessionCache) Load(rows []models.OutfitRating) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var inFlight []models.OutfitRating
	for _, r := range c.ratings {
		if c.placeholders[r.ID] {
			inFlight = append(inFlight, r)
		}
	}
	c.ratings = append(inFlight, rows...)
	c.stats = CalculateUserStats(c.ratings)
	c.loaded = true
}

// Loaded reports whether the cache has been warmed from the durable store.
func (c *SessionCache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Ratings returns a copy of the current list, newest first.
func (c *SessionCache) Ratings() []models.OutfitRating {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.OutfitRating, len(c.ratings))
	copy(out, c.ratings)
	return out
}

// Stats returns the summary recomputed at the last list mutation.
func (c *SessionCache) Stats() models.UserStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Manager hands out one SessionCache per user ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uint]*SessionCache
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uint]*SessionCache)}
}

// Session returns the cache for userID, creating it on first use.
func (m *Manager) Session(userID uint) *SessionCache {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s = newSessionCache()
	m.sessions[userID] = s
	return s
}

// Drop discards a user's session cache, e.g. on sign-out.
func (m *Manager) Drop(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
