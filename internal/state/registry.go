package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry maps session ids to sessions and drops idle ones.
type Registry struct {
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*Session
	nowFunc  func() time.Time
}

// NewRegistry creates a Registry. Sessions idle longer than ttl are removed
// by Sweep; a non-positive ttl defaults to two hours.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Registry{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		nowFunc:  time.Now,
	}
}

// Get returns the session for id, or nil.
func (r *Registry) Get(id string) *Session {
	if id == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// New creates and registers a session with a fresh random id.
func (r *Registry) New() *Session {
	s := NewSession(uuid.NewString())
	s.nowFunc = r.nowFunc
	s.lastSeen = r.nowFunc()
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle longer than the ttl, cancelling any analysis
// they still have in flight. It returns the number removed.
func (r *Registry) Sweep() int {
	cutoff := r.nowFunc().Add(-r.ttl)
	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Reset()
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				zap.L().Debug("state: swept idle sessions", zap.Int("removed", n), zap.Int("live", r.Len()))
			}
		}
	}
}
