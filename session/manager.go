package session

import (
	"context"
	"sync"
	"time"

	"promptcoach/models"
)

const defaultIdleTTL = 2 * time.Hour

// Manager keeps one Controller per identity, created on first use. Sessions
// idle for longer than the TTL are evicted unless a round is in flight.
type Manager struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	sessions  map[models.Owner]*managedSession
	lastSweep time.Time
}

type managedSession struct {
	ctrl     *Controller
	lastUsed time.Time
}

type ManagerOption func(*Manager)

// WithIdleTTL sets how long an unused session is kept. Zero or negative
// disables eviction.
func WithIdleTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

func withClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(deps Deps, opts ...ManagerOption) *Manager {
	m := &Manager{
		deps:     deps,
		ttl:      defaultIdleTTL,
		now:      time.Now,
		sessions: make(map[models.Owner]*managedSession),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.now()
	return m
}

// Get returns the owner's controller. The stored preferences of a new session
// are loaded without holding the manager lock.
func (m *Manager) Get(ctx context.Context, owner models.Owner) (*Controller, error) {
	if c, ok := m.lookup(owner); ok {
		return c, nil
	}

	fresh := NewController(owner, m.deps)
	if err := fresh.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if s, ok := m.sessions[owner]; ok {
		// Another request created it while we were loading.
		s.lastUsed = now
		return s.ctrl, nil
	}
	m.sessions[owner] = &managedSession{ctrl: fresh, lastUsed: now}
	return fresh, nil
}

func (m *Manager) lookup(owner models.Owner) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)
	s, ok := m.sessions[owner]
	if !ok {
		return nil, false
	}
	s.lastUsed = now
	return s.ctrl, true
}

// sweepLocked evicts idle sessions, at most once per quarter TTL.
func (m *Manager) sweepLocked(now time.Time) {
	if m.ttl <= 0 || now.Sub(m.lastSweep) < m.ttl/4 {
		return
	}
	m.lastSweep = now
	for owner, s := range m.sessions {
		if now.Sub(s.lastUsed) > m.ttl && !s.ctrl.State().Busy {
			delete(m.sessions, owner)
		}
	}
}
