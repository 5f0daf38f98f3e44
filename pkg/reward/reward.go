// Package reward shapes the scalar reward of a step from the metrics of the
// previous and current runs.
//
// Lower is better for every metric. Rewards are read from fixed-size tables
// indexed by Improvement, so every combination has exactly one entry.
package reward

import (
	"fmt"
	"strings"
)

// Improvement is the tri-state comparison of a metric against its previous value.
type Improvement int

const (
	Improved Improvement = iota
	Unchanged
	Worsened

	numImprovements
)

func (i Improvement) String() string {
	switch i {
	case Improved:
		return "improved"
	case Unchanged:
		return "unchanged"
	case Worsened:
		return "worsened"
	}
	return fmt.Sprintf("Improvement(%d)", int(i))
}

// Compare classifies cur against prev. Two infinities compare as Unchanged.
func Compare(prev, cur float64) Improvement {
	switch {
	case cur < prev:
		return Improved
	case cur > prev:
		return Worsened
	default:
		return Unchanged
	}
}

// Shape selects the reward table.
type Shape string

const (
	// ShapeDual weighs constraint recovery against optimization progress
	// while the constraint is unmet.
	ShapeDual Shape = "dual"
	// ShapeSingle keys only on whether the constraint is met, with a
	// time-decaying reward for stalling while it is unmet.
	ShapeSingle Shape = "single"
)

// ParseShape accepts the configuration spelling of a Shape.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeDual, "":
		return ShapeDual, nil
	case ShapeSingle:
		return ShapeSingle, nil
	}
	return "", fmt.Errorf("unknown reward shape %q", s)
}

// Input carries everything a reward depends on.
type Input struct {
	PrevPrimary    float64
	CurPrimary     float64
	PrevConstraint float64
	CurConstraint  float64

	// Threshold bounds CurConstraint under ShapeDual and CurPrimary under
	// ShapeSingle. With HasThreshold false the constraint is never met.
	Threshold    float64
	HasThreshold bool

	// Iteration is the index of the step being rewarded, starting at 0.
	Iteration int
	Horizon   int
}

var metTable = [numImprovements]float64{
	Improved:  3,
	Unchanged: 0,
	Worsened:  -1,
}

// dualUnmetTable is indexed [constraint][optimization].
var dualUnmetTable = [numImprovements][numImprovements]float64{
	Improved:  {Improved: 3, Unchanged: 2, Worsened: 1},
	Unchanged: {Improved: 2, Unchanged: 0, Worsened: -2},
	Worsened:  {Improved: -1, Unchanged: -2, Worsened: -3},
}

var singleUnmetTable = [numImprovements]float64{
	Improved:  2,
	Unchanged: 0, // replaced by decay
	Worsened:  -2,
}

// Compute returns the reward of one step. It has no side effects.
func Compute(shape Shape, in Input) float64 {
	opt := Compare(in.PrevPrimary, in.CurPrimary)

	if shape == ShapeSingle {
		if in.HasThreshold && in.CurPrimary <= in.Threshold {
			return metTable[opt]
		}
		if opt == Unchanged {
			return decay(in.Iteration, in.Horizon)
		}
		return singleUnmetTable[opt]
	}

	if in.HasThreshold && in.CurConstraint <= in.Threshold {
		return metTable[opt]
	}
	return dualUnmetTable[Compare(in.PrevConstraint, in.CurConstraint)][opt]
}

// decay rewards stalling early in the episode and penalizes it late.
func decay(iteration, horizon int) float64 {
	if float64(iteration) < float64(horizon)/2 {
		return 1
	}
	return -1
}
