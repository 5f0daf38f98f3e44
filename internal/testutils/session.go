package testutils

import (
	"context"
	"path/filepath"

	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/features"
	"github.com/aretw0/drills/pkg/reward"
	"github.com/aretw0/drills/pkg/session"
)

// Optimizations is the catalog used by test sessions.
var Optimizations = []string{"balance", "rewrite", "refactor"}

// SessionConfig returns a standard-cell session minimizing area under a
// delay bound of 100, with a horizon of 3.
func SessionConfig(id, playground string) session.Config {
	return session.Config{
		ID: id,
		Pipeline: process.Pipeline{
			Target:      domain.TargetSCL,
			DesignFile:  "design.v",
			LibraryFile: "lib.lib",
			ClockPeriod: 100,
		},
		ABCBinary:     ABCBinary,
		PlaygroundDir: playground,
		Optimizations: Optimizations,
		Horizon:       3,
		Primary:       "area",
		Constraint:    "delay",
		Threshold:     100,
		HasThreshold:  true,
		Shape:         reward.ShapeDual,
	}
}

// SessionFactory builds sessions backed by their own FakeSynthesis, each
// answering every run with a fixed report.
func SessionFactory(playground string, delay, area float64) func(context.Context, string) (*session.Session, error) {
	return func(ctx context.Context, id string) (*session.Session, error) {
		fake := &FakeSynthesis{Fallback: MappedReport(delay, area)}
		ex := features.NewExtractor(features.Default(fake, YosysBinary, ABCBinary))
		return session.New(ctx, SessionConfig(id, filepath.Join(playground, id)), fake, ex)
	}
}
