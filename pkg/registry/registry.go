// Package registry keeps the live sessions driven by remote clients and
// serializes access to each of them.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/ports"
	"github.com/aretw0/drills/pkg/session"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Factory builds a new session with the given id.
type Factory func(ctx context.Context, id string) (*session.Session, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Registry maps session ids to live sessions. Calls on different sessions
// run in parallel; calls on the same session are serialized.
// It uses reference counting to garbage collect unused locks.
type Registry struct {
	factory Factory

	mu       sync.Mutex
	sessions map[string]*session.Session
	locks    map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLocker additionally holds a distributed lock while a session is used,
// so replicas sharing a playground never run the same session twice.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(r *Registry) {
		r.locker = locker
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(factory Factory, opts ...Option) *Registry {
	r := &Registry{
		factory:  factory,
		sessions: make(map[string]*session.Session),
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create builds and registers a new session, returning its id.
func (r *Registry) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	s, err := r.factory(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", id)
	return id, nil
}

// WithSession runs fn while holding the lock of session id.
// It returns domain.ErrSessionNotFound for unknown ids.
func (r *Registry) WithSession(ctx context.Context, id string, fn func(context.Context, *session.Session) error) error {
	entry := r.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.release(id)
	}()

	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, id, r.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				r.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", id,
					"error", err,
				)
			}
		}()
	}

	return fn(ctx, s)
}

// Delete closes and forgets session id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.WithSession(ctx, id, func(_ context.Context, s *session.Session) error {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		r.logger.Info("session deleted", "session_id", id)
		return s.Close()
	})
}

// List returns the ids of live sessions in lexical order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every session.
func (r *Registry) Close(ctx context.Context) error {
	var firstErr error
	for _, id := range r.List() {
		if err := r.Delete(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and then call release(id) after unlocking.
func (r *Registry) acquire(id string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[id]
	if !exists {
		entry = &lockEntry{}
		r.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (r *Registry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, id)
	}
}
