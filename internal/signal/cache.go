package signal

import (
	"sort"
	"sync"
	"time"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// DefaultFreshness is how long a computed record is served without refetching.
const DefaultFreshness = 300 * time.Second

// Cache maps normalized tickers to their latest SignalRecord. Entries are
// only ever overwritten, never evicted; the tracked universe is small.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]model.SignalRecord
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given freshness window. now may be nil.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultFreshness
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]model.SignalRecord),
		ttl:     ttl,
		now:     now,
	}
}

// GetIfFresh returns the record for ticker if it was computed less than the
// freshness window ago.
func (c *Cache) GetIfFresh(ticker string) (model.SignalRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[ticker]
	if !ok || c.now().Sub(rec.ComputedAt) >= c.ttl {
		return model.SignalRecord{}, false
	}
	return rec, true
}

// GetStale returns the record for ticker regardless of age.
func (c *Cache) GetStale(ticker string) (model.SignalRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[ticker]
	return rec, ok
}

// Put overwrites the record for ticker.
func (c *Cache) Put(ticker string, rec model.SignalRecord) {
	c.mu.Lock()
	c.entries[ticker] = rec
	n := len(c.entries)
	c.mu.Unlock()
	metrics.CacheEntries.Set(float64(n))
}

// Len returns the number of cached tickers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns every cached record ordered by ticker.
func (c *Cache) Snapshot() []model.SignalRecord {
	c.mu.RLock()
	out := make([]model.SignalRecord, 0, len(c.entries))
	for _, rec := range c.entries {
		out = append(out, rec)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
