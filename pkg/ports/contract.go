package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/drills/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordStoreContract runs a suite of tests to verify that a RecordStore implementation
// adheres to the defined interface contract.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	sample := domain.EmptyRecords()
	sample.Primary = domain.Record{Optimization: 1520.25, Constraint: 98.4, Episode: 3, Iteration: 12}
	sample.Constraint = domain.Record{Optimization: 1700, Constraint: 80.1, Episode: 1, Iteration: 4}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, sample.Primary, loaded.Primary)
		assert.Equal(t, sample.Constraint, loaded.Constraint)
		assert.True(t, loaded.MeetsConstraint.IsEmpty())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("Merge Keeps Best", func(t *testing.T) {
		mergeKey := key + "-merge"
		defer func() { _ = store.Delete(ctx, mergeKey) }()

		better := domain.EmptyRecords()
		better.Primary = domain.Record{Optimization: 5, Constraint: 90, Episode: 1, Iteration: 2}
		merged, err := store.Merge(ctx, mergeKey, better)
		require.NoError(t, err)
		assert.Equal(t, better.Primary, merged.Primary)

		worse := domain.EmptyRecords()
		worse.Primary = domain.Record{Optimization: 8, Constraint: 70, Episode: 1, Iteration: 1}
		worse.Constraint = worse.Primary
		merged, err = store.Merge(ctx, mergeKey, worse)
		require.NoError(t, err)
		assert.Equal(t, 5.0, merged.Primary.Optimization)
		assert.Equal(t, 70.0, merged.Constraint.Constraint)

		loaded, err := store.Load(ctx, mergeKey)
		require.NoError(t, err)
		assert.Equal(t, merged.Primary, loaded.Primary)
		assert.Equal(t, merged.Constraint, loaded.Constraint)
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, sample)
		_ = store.Save(ctx, id2, sample)
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
