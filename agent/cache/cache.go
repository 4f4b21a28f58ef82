// Package cache implements the category-scoped TTL cache that sits in
// front of every tool invocation. Staleness is indistinguishable from
// absence to callers; expired entries are purged opportunistically on
// writes rather than on a timer.
package cache

import (
	"hash/fnv"
	"sync"
	"time"

	metricsx "github.com/lenoxhq/lenox/pkg/metrics"
)

const (
	shardCount = 16

	// defaultSweepEvery is how many writes a shard absorbs between
	// expired-entry sweeps.
	defaultSweepEvery = 64
)

// DefaultTTLs maps the built-in cache categories to their windows.
// Fast-moving trending data expires quickly, wallet analytics slowly.
var DefaultTTLs = map[string]time.Duration{
	"trending": 120 * time.Second,
	"news":     180 * time.Second,
	"price":    300 * time.Second,
	"wallet":   600 * time.Second,
}

const DefaultTTL = 300 * time.Second

type entry struct {
	value    any
	category string
	storedAt time.Time
	ttl      time.Duration
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
	puts    int
}

// Manager is a sharded TTL cache. Values are immutable once stored;
// an overwrite replaces the entry atomically under the shard lock.
type Manager struct {
	shards     [shardCount]*shard
	ttls       map[string]time.Duration
	defaultTTL time.Duration
	sweepEvery int
	now        func() time.Time
}

type Option func(*Manager)

func WithCategoryTTL(category string, ttl time.Duration) Option {
	return func(m *Manager) {
		if category != "" && ttl > 0 {
			m.ttls[category] = ttl
		}
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.defaultTTL = ttl
		}
	}
}

func WithSweepEvery(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.sweepEvery = n
		}
	}
}

// WithClock overrides the time source. Tests use this to age entries.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func New(opts ...Option) *Manager {
	m := &Manager{
		ttls:       make(map[string]time.Duration, len(DefaultTTLs)),
		defaultTTL: DefaultTTL,
		sweepEvery: defaultSweepEvery,
		now:        time.Now,
	}
	for cat, ttl := range DefaultTTLs {
		m.ttls[cat] = ttl
	}
	for i := range m.shards {
		m.shards[i] = &shard{entries: make(map[string]entry)}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// TTL reports the window applied to a category.
func (m *Manager) TTL(category string) time.Duration {
	if ttl, ok := m.ttls[category]; ok {
		return ttl
	}
	return m.defaultTTL
}

// Get returns the stored value when present and fresh. Absent and
// expired keys both report not-found. Any successfully stored value,
// including nil and empty collections, counts as a hit while fresh.
func (m *Manager) Get(key string) (any, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		metricsx.CacheMisses.WithLabelValues("").Inc()
		return nil, false
	}
	if m.now().Sub(e.storedAt) >= e.ttl {
		delete(s.entries, key)
		metricsx.CacheMisses.WithLabelValues(e.category).Inc()
		return nil, false
	}
	metricsx.CacheHits.WithLabelValues(e.category).Inc()
	return e.value, true
}

// Put stores a value under its category's TTL, replacing any previous
// entry. Every sweepEvery-th write to a shard drops that shard's
// expired entries to bound memory.
func (m *Manager) Put(key string, value any, category string) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:    value,
		category: category,
		storedAt: m.now(),
		ttl:      m.TTL(category),
	}
	s.puts++
	if s.puts%m.sweepEvery == 0 {
		m.sweepLocked(s)
	}
}

// Len reports the number of stored entries, expired or not.
func (m *Manager) Len() int {
	total := 0
	for _, s := range m.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

func (m *Manager) sweepLocked(s *shard) {
	now := m.now()
	for k, e := range s.entries {
		if now.Sub(e.storedAt) >= e.ttl {
			delete(s.entries, k)
		}
	}
}

func (m *Manager) shardFor(key string) *shard {
	return m.shards[fnv32(key)%shardCount]
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
