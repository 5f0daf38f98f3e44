package session

import (
	"fmt"
	"slices"

	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/report"
	"github.com/aretw0/drills/pkg/reward"
	"github.com/aretw0/drills/pkg/tracker"
)

// Config holds everything a session needs besides its collaborators.
type Config struct {
	// ID names the session in events and in the record store.
	ID string

	Pipeline      process.Pipeline
	ABCBinary     string
	PlaygroundDir string

	// Optimizations is the transformation catalog, in action-index order.
	Optimizations []string
	// Horizon is the number of steps in an episode.
	Horizon int

	// Primary and Constraint name the report fields being optimized and bounded.
	Primary    string
	Constraint string

	// Threshold bounds the field named by Bounded. Without it no run meets
	// the constraint.
	Threshold    float64
	HasThreshold bool

	Shape reward.Shape
}

// Bounded names the field the threshold applies to. The single reward keys
// on the optimized field, the dual reward on the constrained one.
func (c Config) Bounded() string {
	if c.Shape == reward.ShapeSingle {
		return c.Primary
	}
	return c.Constraint
}

func (c Config) bound() tracker.Bound {
	if c.Shape == reward.ShapeSingle {
		return tracker.BoundPrimary
	}
	return tracker.BoundConstraint
}

func (c Config) validate() error {
	if c.ABCBinary == "" {
		return &domain.ConfigError{Field: "abc_binary", Reason: "must not be empty"}
	}
	if c.PlaygroundDir == "" {
		return &domain.ConfigError{Field: "playground_dir", Reason: "must not be empty"}
	}
	if c.Pipeline.DesignFile == "" {
		return &domain.ConfigError{Field: "design_file", Reason: "must not be empty"}
	}
	if c.Horizon <= 0 {
		return &domain.ConfigError{Field: "iterations", Reason: fmt.Sprintf("must be positive, got %d", c.Horizon)}
	}
	if c.Pipeline.Target != domain.TargetSCL && c.Pipeline.Target != domain.TargetFPGA {
		return &domain.ConfigError{Field: "target", Reason: fmt.Sprintf("unknown target %q", c.Pipeline.Target)}
	}
	fields := report.FlavorFor(c.Pipeline.Target).Fields()
	if !slices.Contains(fields, c.Primary) {
		return &domain.ConfigError{Field: "objective.optimize", Reason: fmt.Sprintf("%q is not reported for target %s", c.Primary, c.Pipeline.Target)}
	}
	if !slices.Contains(fields, c.Constraint) {
		return &domain.ConfigError{Field: "objective.constrain", Reason: fmt.Sprintf("%q is not reported for target %s", c.Constraint, c.Pipeline.Target)}
	}
	switch c.Shape {
	case reward.ShapeDual, reward.ShapeSingle:
	default:
		return &domain.ConfigError{Field: "reward", Reason: fmt.Sprintf("unknown shape %q", c.Shape)}
	}
	return nil
}
