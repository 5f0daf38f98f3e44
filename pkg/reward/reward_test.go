package reward_test

import (
	"math"
	"testing"

	"github.com/aretw0/drills/pkg/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	inf := math.Inf(1)
	assert.Equal(t, reward.Improved, reward.Compare(10, 8))
	assert.Equal(t, reward.Unchanged, reward.Compare(8, 8))
	assert.Equal(t, reward.Worsened, reward.Compare(8, 10))
	assert.Equal(t, reward.Improved, reward.Compare(inf, 100))
	assert.Equal(t, reward.Unchanged, reward.Compare(inf, inf))
}

// level maps a tri-state to a (prev, cur) pair.
func level(i reward.Improvement) (float64, float64) {
	switch i {
	case reward.Improved:
		return 10, 8
	case reward.Worsened:
		return 8, 10
	default:
		return 9, 9
	}
}

func TestCompute_DualConstraintMet(t *testing.T) {
	want := map[reward.Improvement]float64{reward.Improved: 3, reward.Unchanged: 0, reward.Worsened: -1}
	for opt, expected := range want {
		for _, cons := range []reward.Improvement{reward.Improved, reward.Unchanged, reward.Worsened} {
			prevP, curP := level(opt)
			prevC, curC := level(cons)
			in := reward.Input{
				PrevPrimary: prevP, CurPrimary: curP,
				PrevConstraint: prevC, CurConstraint: curC,
				Threshold: 100, HasThreshold: true,
			}
			assert.Equal(t, expected, reward.Compute(reward.ShapeDual, in), "opt=%s cons=%s", opt, cons)
		}
	}
}

func TestCompute_DualConstraintUnmet(t *testing.T) {
	tests := []struct {
		cons, opt reward.Improvement
		want      float64
	}{
		{reward.Improved, reward.Improved, 3},
		{reward.Improved, reward.Unchanged, 2},
		{reward.Improved, reward.Worsened, 1},
		{reward.Unchanged, reward.Improved, 2},
		{reward.Unchanged, reward.Unchanged, 0},
		{reward.Unchanged, reward.Worsened, -2},
		{reward.Worsened, reward.Improved, -1},
		{reward.Worsened, reward.Unchanged, -2},
		{reward.Worsened, reward.Worsened, -3},
	}
	for _, tt := range tests {
		t.Run(tt.cons.String()+"/"+tt.opt.String(), func(t *testing.T) {
			prevP, curP := level(tt.opt)
			prevC, curC := level(tt.cons)
			in := reward.Input{
				PrevPrimary: prevP, CurPrimary: curP,
				PrevConstraint: prevC, CurConstraint: curC,
				Threshold: 1, HasThreshold: true,
			}
			assert.Equal(t, tt.want, reward.Compute(reward.ShapeDual, in))
		})
	}
}

func TestCompute_DualWithoutThreshold(t *testing.T) {
	in := reward.Input{PrevPrimary: 10, CurPrimary: 8, PrevConstraint: 1, CurConstraint: 1}
	assert.Equal(t, 2.0, reward.Compute(reward.ShapeDual, in), "no threshold means unmet")
}

func TestCompute_ThresholdIsInclusive(t *testing.T) {
	in := reward.Input{PrevPrimary: 10, CurPrimary: 10, PrevConstraint: 7, CurConstraint: 5, Threshold: 5, HasThreshold: true}
	assert.Equal(t, 0.0, reward.Compute(reward.ShapeDual, in))
}

func TestCompute_Single(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur float64
		threshold float64
		has       bool
		iteration int
		want      float64
	}{
		{name: "met improved", prev: 10, cur: 4, threshold: 5, has: true, want: 3},
		{name: "met unchanged", prev: 4, cur: 4, threshold: 5, has: true, want: 0},
		{name: "met worsened", prev: 3, cur: 4, threshold: 5, has: true, want: -1},
		{name: "unmet improved", prev: 10, cur: 8, threshold: 5, has: true, want: 2},
		{name: "unmet worsened", prev: 8, cur: 10, threshold: 5, has: true, want: -2},
		{name: "unmet unchanged early", prev: 8, cur: 8, threshold: 5, has: true, iteration: 4, want: 1},
		{name: "unmet unchanged at half", prev: 8, cur: 8, threshold: 5, has: true, iteration: 5, want: -1},
		{name: "unmet unchanged late", prev: 8, cur: 8, threshold: 5, has: true, iteration: 9, want: -1},
		{name: "no threshold", prev: 1, cur: 1, iteration: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := reward.Input{
				PrevPrimary: tt.prev, CurPrimary: tt.cur,
				Threshold: tt.threshold, HasThreshold: tt.has,
				Iteration: tt.iteration, Horizon: 10,
			}
			assert.Equal(t, tt.want, reward.Compute(reward.ShapeSingle, in))
		})
	}
}

func TestCompute_OddHorizonDecay(t *testing.T) {
	in := reward.Input{PrevPrimary: 8, CurPrimary: 8, Horizon: 5}
	in.Iteration = 2
	assert.Equal(t, 1.0, reward.Compute(reward.ShapeSingle, in))
	in.Iteration = 3
	assert.Equal(t, -1.0, reward.Compute(reward.ShapeSingle, in))
}

func TestCompute_Pure(t *testing.T) {
	in := reward.Input{PrevPrimary: 10, CurPrimary: 9, PrevConstraint: 7, CurConstraint: 8, Threshold: 5, HasThreshold: true, Iteration: 2, Horizon: 4}
	first := reward.Compute(reward.ShapeDual, in)
	for range 10 {
		assert.Equal(t, first, reward.Compute(reward.ShapeDual, in))
	}
}

func TestParseShape(t *testing.T) {
	s, err := reward.ParseShape("Single")
	require.NoError(t, err)
	assert.Equal(t, reward.ShapeSingle, s)

	s, err = reward.ParseShape("")
	require.NoError(t, err)
	assert.Equal(t, reward.ShapeDual, s)

	_, err = reward.ParseShape("triple")
	assert.Error(t, err)
}
