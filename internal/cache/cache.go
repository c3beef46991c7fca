// package cache implements the per-conversation search result cache
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
)

// DefaultTTL is the process-wide expiry for cached result sets.
const DefaultTTL = 30 * time.Minute

// ResultSet is an ordered sequence of tracks cached for one conversation.
type ResultSet struct {
	Tracks    []models.Track
	CreatedAt time.Time
}

// SearchCache maps conversation ids to their most recent search results.
//
// Entries expire after the configured TTL or when replaced by a newer search
// in the same conversation (last write wins, no append semantics). The cache
// is the only structure mutated by concurrent conversation handlers, so all
// access goes through the mutex; a Resolve never observes a half-written
// entry.
type SearchCache struct {
	mu      sync.RWMutex
	entries map[int64]ResultSet
	ttl     time.Duration
	now     func() time.Time
}

// Opt customizes a [SearchCache].
type Opt func(*SearchCache)

// WithTTL overrides the default entry TTL.
func WithTTL(ttl time.Duration) Opt {
	return func(c *SearchCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source, used by tests to simulate expiry.
func WithClock(now func() time.Time) Opt {
	return func(c *SearchCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewSearchCache creates an empty cache with the given options.
func NewSearchCache(opts ...Opt) *SearchCache {
	c := &SearchCache{
		entries: make(map[int64]ResultSet),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores results for a conversation, replacing any existing entry and
// stamping the current time.
func (c *SearchCache) Put(conversationID int64, tracks []models.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[conversationID] = ResultSet{Tracks: tracks, CreatedAt: c.now()}
}

// Get returns the live result set for a conversation, or
// [shared.ErrExpiredSelection] when none exists or the entry has expired.
func (c *SearchCache) Get(conversationID int64) ([]models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[conversationID]
	if !ok || c.expired(entry) {
		return nil, fmt.Errorf("%w: no cached results for conversation %d", shared.ErrExpiredSelection, conversationID)
	}
	return entry.Tracks, nil
}

// Resolve returns the track at the given zero-based slot index of the
// conversation's most recent results.
//
// The index is a dense position into the exact sequence last stored, not a
// stable identifier across searches. Fails with [shared.ErrExpiredSelection]
// when no entry exists, the entry expired, or the index is out of range.
func (c *SearchCache) Resolve(conversationID int64, index int) (models.Track, error) {
	tracks, err := c.Get(conversationID)
	if err != nil {
		return models.Track{}, err
	}
	if index < 0 || index >= len(tracks) {
		return models.Track{}, fmt.Errorf("%w: index %d out of range [0,%d)", shared.ErrExpiredSelection, index, len(tracks))
	}
	return tracks[index], nil
}

// Drop removes a conversation's entry, if any.
func (c *SearchCache) Drop(conversationID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, conversationID)
}

func (c *SearchCache) expired(entry ResultSet) bool {
	return c.now().Sub(entry.CreatedAt) > c.ttl
}
