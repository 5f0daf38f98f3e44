package ports

import (
	"context"

	"github.com/aretw0/drills/pkg/domain"
)

// Environment is the reset/step contract of an optimization session.
type Environment interface {
	// Reset starts a new episode and returns the initial observation.
	Reset(ctx context.Context) (domain.Observation, error)

	// Step applies the transformation at the given catalog index.
	Step(ctx context.Context, action int) (domain.StepResult, error)

	// ActionSpace returns the number of available transformations.
	ActionSpace() int
}
