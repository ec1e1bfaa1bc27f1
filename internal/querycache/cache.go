package querycache

import (
	"sort"
	"sync"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/rs/zerolog"
)

type entry struct {
	value      any
	owner      string
	stale      bool
	lastAccess time.Time
}

// Cache holds server read models keyed by Key.
//
// An invalidated entry keeps its value for placeholder display (ReadStale)
// but Read reports a miss until it is written again. The mutex exists for
// the background garbage collector; callers still follow the single
// writer model.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	metrics *Metrics
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithMetrics records activity on m
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache
func New(log zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*entry),
		now:     time.Now,
		log:     log.With().Str("component", "querycache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the value for key if present and fresh
func (c *Cache) Read(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.stale {
		c.count(func(m *Metrics) { m.Misses.Inc() })
		return nil, false
	}
	e.lastAccess = c.now()
	c.count(func(m *Metrics) { m.Hits.Inc() })
	return e.value, true
}

// ReadStale returns the last value written for key even if it has been
// invalidated, so callers can show something while a refetch runs
func (c *Cache) ReadStale(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e.lastAccess = c.now()
	return e.value, true
}

// Write stores a fresh value. The owning journal is taken from the key,
// or from the value when it is a trade.
func (c *Cache) Write(key Key, value any) {
	c.WriteOwned(key, ownerOf(key, value), value)
}

// WriteOwned stores a fresh value with an explicit owning journal
func (c *Cache) WriteOwned(key Key, journalID string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if journalID == "" {
		journalID = key.journalOf()
	}
	c.entries[key] = &entry{
		value:      value,
		owner:      journalID,
		lastAccess: c.now(),
	}
}

// Invalidate marks key stale; reports whether an entry existed
func (c *Cache) Invalidate(key Key) bool {
	return len(c.InvalidateSubtree(Exact(key))) > 0
}

// InvalidateSubtree marks every entry the selector matches as stale and
// returns the affected keys in a stable order
func (c *Cache) InvalidateSubtree(sel Selector) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.invalidateLocked(sel)
	sortKeys(keys)
	return keys
}

func (c *Cache) invalidateLocked(sel Selector) []Key {
	var keys []Key
	for key, e := range c.entries {
		if !sel.matches(key, e.owner) {
			continue
		}
		if !e.stale {
			e.stale = true
			c.count(func(m *Metrics) { m.Invalidations.Inc() })
		}
		keys = append(keys, key)
	}
	return keys
}

// Owner returns the journal recorded for key's entry
func (c *Cache) Owner(key Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.owner == "" {
		return "", false
	}
	return e.owner, true
}

// IsStale reports whether key holds an invalidated entry
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.stale
}

// Keys returns every key present, fresh or stale
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Collect drops entries not read or written within olderThan and returns
// how many were removed
func (c *Cache) Collect(olderThan time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-olderThan)
	removed := 0
	for key, e := range c.entries {
		if e.lastAccess.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.count(func(m *Metrics) { m.Collected.Add(float64(removed)) })
		c.log.Debug().Int("removed", removed).Int("remaining", len(c.entries)).Msg("Collected idle cache entries")
	}
	return removed
}

func (c *Cache) count(f func(*Metrics)) {
	if c.metrics != nil {
		f(c.metrics)
	}
}

func ownerOf(key Key, value any) string {
	if key.Kind != KindTradeDetail {
		return key.journalOf()
	}
	switch t := value.(type) {
	case domain.Trade:
		return t.JournalID
	case *domain.Trade:
		if t != nil {
			return t.JournalID
		}
	}
	return ""
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
}
