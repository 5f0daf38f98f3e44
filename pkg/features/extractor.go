// Package features builds the observation of a design artifact by merging
// the results of independent structural analyzers.
package features

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Extractor runs every analyzer over the same artifact and merges the results.
type Extractor struct {
	analyzers  []ports.Analyzer
	sequential bool
}

// Option configures the Extractor.
type Option func(*Extractor)

// WithSequential runs analyzers one after the other. The result is identical.
func WithSequential() Option {
	return func(e *Extractor) {
		e.sequential = true
	}
}

// NewExtractor creates an extractor over the given analyzers.
func NewExtractor(analyzers []ports.Analyzer, opts ...Option) *Extractor {
	e := &Extractor{analyzers: analyzers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the observation for artifact. Every analyzer must succeed,
// no two analyzers may report the same feature, and the merged record must
// cover domain.FeatureNames.
func (e *Extractor) Extract(ctx context.Context, artifact string) (domain.Observation, error) {
	if len(e.analyzers) == 0 {
		return domain.Observation{}, fmt.Errorf("no analyzers configured")
	}

	results := make([]map[string]float64, len(e.analyzers))
	if e.sequential {
		for i, a := range e.analyzers {
			out, err := a.Analyze(ctx, artifact)
			if err != nil {
				return domain.Observation{}, fmt.Errorf("analyzer %s: %w", a.Name(), err)
			}
			results[i] = out
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)
		for i, a := range e.analyzers {
			g.Go(func() error {
				out, err := a.Analyze(gCtx, artifact)
				if err != nil {
					return fmt.Errorf("analyzer %s: %w", a.Name(), err)
				}
				results[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return domain.Observation{}, err
		}
	}

	merged, err := merge(e.analyzers, results)
	if err != nil {
		return domain.Observation{}, err
	}
	obs := domain.Observation{Features: merged}
	if err := obs.Validate(); err != nil {
		return domain.Observation{}, err
	}
	return obs, nil
}

func merge(analyzers []ports.Analyzer, results []map[string]float64) (map[string]float64, error) {
	merged := make(map[string]float64)
	owner := make(map[string]string)
	for i, res := range results {
		keys := make([]string, 0, len(res))
		for k := range res {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if prev, dup := owner[k]; dup {
				return nil, fmt.Errorf("feature %q reported by both %s and %s", k, prev, analyzers[i].Name())
			}
			owner[k] = analyzers[i].Name()
			merged[k] = res[k]
		}
	}
	return merged, nil
}
