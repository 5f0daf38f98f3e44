package ports

import (
	"context"

	"github.com/aretw0/drills/pkg/domain"
)

// RecordStore defines the interface for persisting best-known records.
type RecordStore interface {
	// Save persists the records for a given key (usually the design name).
	Save(ctx context.Context, key string, records domain.Records) error

	// Merge folds records into the ones saved under key, keeping the better
	// value of each record, and returns the result. Concurrent merges on the
	// same key never lose an improvement.
	Merge(ctx context.Context, key string, records domain.Records) (domain.Records, error)

	// Load retrieves the records for a given key.
	// Returns domain.ErrSessionNotFound if nothing was saved under the key.
	Load(ctx context.Context, key string) (domain.Records, error)

	// Delete removes the records for a given key.
	Delete(ctx context.Context, key string) error

	// List returns the keys with saved records.
	List(ctx context.Context) ([]string, error)
}
