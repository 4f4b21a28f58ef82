package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultIdleTTL = 2 * time.Hour

// Session pairs a session id with its conversation memory.
type Session struct {
	ID           string
	Conversation *Conversation
}

// Manager owns all live sessions. Sessions are created on first use and
// garbage-collected by the reaper after sitting idle.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	lastAccess map[string]time.Time

	cfg     settings
	idleTTL time.Duration
	now     func() time.Time
}

type Option func(*Manager)

func WithSummarizeAfter(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cfg.summarizeAfter = n
		}
	}
}

func WithKeepRecent(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cfg.keepRecent = n
		}
	}
}

func WithDigestBudget(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cfg.digestBudget = n
		}
	}
}

func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:   make(map[string]*Session),
		lastAccess: make(map[string]time.Time),
		cfg: settings{
			summarizeAfter: defaultSummarizeAfter,
			keepRecent:     defaultKeepRecent,
			digestBudget:   defaultDigestBudget,
		},
		idleTTL: defaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Acquire returns the session for id, creating it on first use. An
// empty id means the client has no session yet; a fresh one is minted.
func (m *Manager) Acquire(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	sess, ok := m.sessions[id]
	if !ok {
		sess = &Session{ID: id, Conversation: newConversation(m.cfg)}
		m.sessions[id] = sess
	}
	m.lastAccess[id] = m.now()
	return sess
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap drops sessions idle longer than the configured TTL and returns
// how many were removed.
func (m *Manager) Reap() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleTTL)
	removed := 0
	for id, seen := range m.lastAccess {
		if seen.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.lastAccess, id)
			removed++
		}
	}
	return removed
}

// StartReaper runs Reap on the given interval until ctx is cancelled.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := m.Reap(); removed > 0 {
					log.Debug().Int("removed", removed).Msg("reaped idle sessions")
				}
			}
		}
	}()
}
