package tracker_test

import (
	"math"
	"testing"

	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/tracker"
	"github.com/stretchr/testify/assert"
)

func TestTracker_Empty(t *testing.T) {
	tr := tracker.New(5, true)
	r := tr.Records()
	assert.True(t, r.Primary.IsEmpty())
	assert.True(t, r.Constraint.IsEmpty())
	assert.True(t, r.MeetsConstraint.IsEmpty())
	assert.True(t, math.IsInf(r.Primary.Optimization, 1))
}

func TestTracker_Monotone(t *testing.T) {
	tr := tracker.New(5, true)
	primaries := []float64{10, 8, 9, 8, 5, 7}
	best := math.Inf(1)
	for i, p := range primaries {
		tr.Observe(domain.Metrics{Primary: p, Constraint: 6}, 1, i+1)
		if p < best {
			best = p
		}
		assert.Equal(t, best, tr.Records().Primary.Optimization, "after run %d", i+1)
	}
}

func TestTracker_FirstSeenTieBreak(t *testing.T) {
	tr := tracker.New(5, true)
	assert.True(t, tr.Observe(domain.Metrics{Primary: 8, Constraint: 4}, 1, 1))
	assert.False(t, tr.Observe(domain.Metrics{Primary: 8, Constraint: 4}, 1, 2))

	r := tr.Records()
	assert.Equal(t, domain.Record{Optimization: 8, Constraint: 4, Episode: 1, Iteration: 1}, r.Primary)
	assert.Equal(t, 1, r.Constraint.Iteration)
	assert.Equal(t, 1, r.MeetsConstraint.Iteration)
}

func TestTracker_IndependentRecords(t *testing.T) {
	tr := tracker.New(5, true)
	tr.Observe(domain.Metrics{Primary: 10, Constraint: 3}, 1, 1) // meets
	tr.Observe(domain.Metrics{Primary: 6, Constraint: 9}, 1, 2)  // lower primary, violates
	tr.Observe(domain.Metrics{Primary: 12, Constraint: 2}, 2, 1) // lower constraint, meets

	r := tr.Records()
	assert.Equal(t, domain.Record{Optimization: 6, Constraint: 9, Episode: 1, Iteration: 2}, r.Primary)
	assert.Equal(t, domain.Record{Optimization: 12, Constraint: 2, Episode: 2, Iteration: 1}, r.Constraint)
	assert.Equal(t, domain.Record{Optimization: 10, Constraint: 3, Episode: 1, Iteration: 1}, r.MeetsConstraint)
}

func TestTracker_ThresholdInclusive(t *testing.T) {
	tr := tracker.New(5, true)
	assert.True(t, tr.Meets(domain.Metrics{Constraint: 5}))
	assert.False(t, tr.Meets(domain.Metrics{Constraint: 5.01}))
}

func TestTracker_NoThreshold(t *testing.T) {
	tr := tracker.New(0, false)
	tr.Observe(domain.Metrics{Primary: 1, Constraint: 0}, 1, 1)
	assert.True(t, tr.Records().MeetsConstraint.IsEmpty())
	assert.False(t, tr.Records().Primary.IsEmpty())
}

func TestTracker_Restore(t *testing.T) {
	tr := tracker.New(5, true)
	saved := domain.EmptyRecords()
	saved.Primary = domain.Record{Optimization: 3, Constraint: 7, Episode: 4, Iteration: 2}
	tr.Restore(saved)

	tr.Observe(domain.Metrics{Primary: 3, Constraint: 8}, 5, 1)
	assert.Equal(t, 4, tr.Records().Primary.Episode)
	assert.Equal(t, 5, tr.Records().Constraint.Episode)
}

func TestTracker_BoundPrimary(t *testing.T) {
	tr := tracker.New(100, true, tracker.WithBound(tracker.BoundPrimary))
	assert.True(t, tr.Meets(domain.Metrics{Primary: 50, Constraint: 200}))
	assert.False(t, tr.Meets(domain.Metrics{Primary: 101, Constraint: 1}))

	tr.Observe(domain.Metrics{Primary: 50, Constraint: 200}, 1, 1)
	assert.Equal(t, 50.0, tr.Records().MeetsConstraint.Optimization)
}
