// Package tracker keeps the best-known results of a session.
package tracker

import (
	"github.com/aretw0/drills/pkg/domain"
)

// Bound selects the metric compared against the threshold.
type Bound int

const (
	BoundConstraint Bound = iota
	BoundPrimary
)

func (b Bound) value(m domain.Metrics) float64 {
	if b == BoundPrimary {
		return m.Primary
	}
	return m.Constraint
}

// Option configures the Tracker.
type Option func(*Tracker)

// WithBound selects the metric the threshold applies to. The default is
// BoundConstraint.
func WithBound(b Bound) Option {
	return func(t *Tracker) {
		t.bound = b
	}
}

// Tracker maintains three monotone records. A record is replaced only by a
// strictly better run, so the first run to reach a value keeps it.
// It is not safe for concurrent use.
type Tracker struct {
	threshold    float64
	hasThreshold bool
	bound        Bound
	records      domain.Records
}

// New creates an empty tracker. Without a threshold no run meets the
// constraint and the best-meets-constraint record stays empty.
func New(threshold float64, hasThreshold bool, opts ...Option) *Tracker {
	t := &Tracker{
		threshold:    threshold,
		hasThreshold: hasThreshold,
		records:      domain.EmptyRecords(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe folds one run into the records and reports whether any changed.
func (t *Tracker) Observe(m domain.Metrics, episode, iteration int) bool {
	rec := domain.Record{
		Optimization: m.Primary,
		Constraint:   m.Constraint,
		Episode:      episode,
		Iteration:    iteration,
	}

	changed := false
	if m.Primary < t.records.Primary.Optimization {
		t.records.Primary = rec
		changed = true
	}
	if m.Constraint < t.records.Constraint.Constraint {
		t.records.Constraint = rec
		changed = true
	}
	if t.Meets(m) && m.Primary < t.records.MeetsConstraint.Optimization {
		t.records.MeetsConstraint = rec
		changed = true
	}
	return changed
}

// Meets reports whether a run satisfies the threshold on the bounded metric.
func (t *Tracker) Meets(m domain.Metrics) bool {
	return t.hasThreshold && t.bound.value(m) <= t.threshold
}

// Records returns a copy of the current records.
func (t *Tracker) Records() domain.Records {
	return t.records
}

// Restore replaces the records, typically with ones loaded from a store.
func (t *Tracker) Restore(r domain.Records) {
	t.records = r
}
