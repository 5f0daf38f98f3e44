package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/drills/internal/testutils"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/ports"
	"github.com/aretw0/drills/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r := New(testutils.SessionFactory(t.TempDir(), 50, 10), opts...)
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestRegistry_CreateAndUse(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, []string{id}, r.List())

	err = r.WithSession(ctx, id, func(ctx context.Context, s *session.Session) error {
		if _, err := s.Reset(ctx); err != nil {
			return err
		}
		_, err := s.Step(ctx, 0)
		return err
	})
	require.NoError(t, err)

	err = r.WithSession(ctx, id, func(_ context.Context, s *session.Session) error {
		assert.Equal(t, 1, s.Iteration())
		assert.Equal(t, id, s.ID())
		return nil
	})
	require.NoError(t, err)
}

func TestRegistry_UnknownSession(t *testing.T) {
	r := newRegistry(t)
	err := r.WithSession(context.Background(), "missing", func(context.Context, *session.Session) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Empty(t, r.locks, "lookups of unknown ids must not leak locks")
}

func TestRegistry_Delete(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()
	id, err := r.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, id))
	assert.Empty(t, r.List())
	assert.ErrorIs(t, r.Delete(ctx, id), domain.ErrSessionNotFound)
}

func TestRegistry_FactoryError(t *testing.T) {
	r := New(func(context.Context, string) (*session.Session, error) {
		return nil, errors.New("no design")
	})
	_, err := r.Create(context.Background())
	assert.ErrorContains(t, err, "no design")
	assert.Empty(t, r.List())
}

func TestRegistry_SerializesSameSession(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()
	id, err := r.Create(ctx)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inside   int
		overlaps int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.WithSession(ctx, id, func(context.Context, *session.Session) error {
				mu.Lock()
				inside++
				if inside > 1 {
					overlaps++
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Zero(t, overlaps)
	assert.Empty(t, r.locks, "all lock entries are released")
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestRegistry_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	r := newRegistry(t, WithLocker(locker, time.Second))
	ctx := context.Background()
	id, err := r.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, r.WithSession(ctx, id, func(context.Context, *session.Session) error { return nil }))
	assert.Equal(t, []string{id}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
}
