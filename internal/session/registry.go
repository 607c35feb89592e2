// Package session keeps one root store per browsing session and evicts
// sessions that stay idle too long.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/metrics"
	"github.com/cranach-archive/lighttable/internal/rootstore"
)

// DefaultMaxIdle is the idle timeout used when none is configured.
const DefaultMaxIdle = 30 * time.Minute

// Factory builds the root store of a new session.
type Factory func(ctx context.Context, id string) (*rootstore.RootStore, error)

// Session is one live root store.
type Session struct {
	ID    string
	Store *rootstore.RootStore

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry owns every live session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  Factory
	maxIdle  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewRegistry creates a registry. A zero maxIdle uses DefaultMaxIdle.
func NewRegistry(factory Factory, maxIdle time.Duration, logger *zap.Logger) *Registry {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		maxIdle:  maxIdle,
		now:      time.Now,
		logger:   logger.Named("sessions"),
	}
}

// Create builds a session and initializes it from rawQuery.
func (r *Registry) Create(ctx context.Context, rawQuery string) (*Session, error) {
	id := uuid.NewString()
	store, err := r.factory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := store.Init(rawQuery); err != nil {
		store.Close()
		return nil, fmt.Errorf("init session: %w", err)
	}

	s := &Session{ID: id, Store: store, lastSeen: r.now()}
	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	r.logger.Debug("session created", zap.String("session", id))
	return s, nil
}

// Get returns a session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	s.touch(r.now())
	return s, nil
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	s.Store.Close()
	metrics.SessionsActive.Set(float64(n))
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes sessions idle for longer than maxIdle and returns how
// many were evicted.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.maxIdle)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range stale {
		s.Store.Close()
		r.logger.Debug("session evicted", zap.String("session", s.ID))
	}
	if len(stale) > 0 {
		metrics.SessionsEvictedTotal.Add(float64(len(stale)))
		metrics.SessionsActive.Set(float64(n))
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				r.logger.Info("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Store.Close()
	}
	metrics.SessionsActive.Set(0)
}
