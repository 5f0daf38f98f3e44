package ports

import "context"

// ToolRunner executes an external binary and returns its standard output.
// Implementations must return a *domain.ToolExecutionError when the process
// cannot be started, exits non-zero, or exceeds its deadline.
type ToolRunner interface {
	Run(ctx context.Context, binary string, args ...string) (string, error)
}

// Analyzer extracts a named set of features from a design artifact.
// Analyzers must be free of side effects so that they can run concurrently.
type Analyzer interface {
	// Name identifies the analyzer in errors and logs.
	Name() string

	// Analyze returns the features keyed by domain feature name.
	Analyze(ctx context.Context, artifact string) (map[string]float64, error)
}
