package redis_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/drills/pkg/adapters/redis"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunRecordStoreContract(t, store)
}

func TestRedisStore_EmptyRecordsRoundTrip(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "adder.v", domain.EmptyRecords()))
	loaded, err := store.Load(ctx, "adder.v")
	require.NoError(t, err)

	assert.True(t, math.IsInf(loaded.Primary.Optimization, 1))
	assert.Equal(t, -1, loaded.MeetsConstraint.Episode)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ttl", domain.EmptyRecords()))
	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "ttl")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// The index is pruned against wall-clock time.
	time.Sleep(1200 * time.Millisecond)
	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "my-design", domain.EmptyRecords()))
	assert.True(t, mr.Exists("custom:app:my-design"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")
}

func TestRedisStore_ConcurrentMerge(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records := domain.EmptyRecords()
			records.Primary = domain.Record{Optimization: float64(20 - i), Constraint: 100, Episode: i, Iteration: 1}
			_, err := store.Merge(ctx, "adder.v", records)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := store.Load(ctx, "adder.v")
	require.NoError(t, err)
	assert.Equal(t, 13.0, loaded.Primary.Optimization)
	assert.Equal(t, 7, loaded.Primary.Episode)
}
