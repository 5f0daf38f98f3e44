// Package baseline implements the greedy search used as a reference for the
// learned policies: at every iteration each transformation is tried on the
// current design in parallel and the best result becomes the next design.
package baseline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/episode"
	"github.com/aretw0/drills/pkg/ports"
	"github.com/aretw0/drills/pkg/report"
	"golang.org/x/sync/errgroup"
)

// ResultsFile collects the winning transformation of every iteration.
const ResultsFile = "results.csv"

// Config describes a greedy search.
type Config struct {
	Pipeline      process.Pipeline
	ABCBinary     string
	OutputDir     string
	Optimizations []string
	Iterations    int
	Primary       string
	Constraint    string
	// Parallelism bounds concurrent tool runs; zero means one per transformation.
	Parallelism int
}

// Candidate is the outcome of one transformation applied to the current design.
type Candidate struct {
	Index          int
	Transformation string
	Design         string
	Metrics        domain.Metrics
	Err            error
}

// Step is one greedy iteration.
type Step struct {
	Iteration  int
	Winner     Candidate
	Candidates []Candidate
	// Stalled is set when the winner did not improve the primary metric.
	Stalled bool
}

// Searcher runs the greedy search.
type Searcher struct {
	cfg     Config
	catalog domain.Catalog
	flavor  report.Flavor
	runner  ports.ToolRunner
	logger  *slog.Logger
}

// Option configures the Searcher.
type Option func(*Searcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// New validates cfg and creates a Searcher.
func New(cfg Config, runner ports.ToolRunner, opts ...Option) (*Searcher, error) {
	catalog, err := domain.NewCatalog(cfg.Optimizations)
	if err != nil {
		return nil, err
	}
	if cfg.Iterations <= 0 {
		return nil, &domain.ConfigError{Field: "iterations", Reason: "must be positive"}
	}
	if cfg.OutputDir == "" {
		return nil, &domain.ConfigError{Field: "output_dir", Reason: "must not be empty"}
	}
	s := &Searcher{
		cfg:     cfg,
		catalog: catalog,
		flavor:  report.FlavorFor(cfg.Pipeline.Target),
		runner:  runner,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run performs every iteration, appending each winner to results.csv.
// It fails when every candidate of an iteration fails.
func (s *Searcher) Run(ctx context.Context) ([]Step, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	results, err := os.Create(filepath.Join(s.cfg.OutputDir, ResultsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}
	defer results.Close()
	if _, err := fmt.Fprintf(results, "iteration, optimization, %s, %s\n", s.cfg.Primary, s.cfg.Constraint); err != nil {
		return nil, err
	}

	design := s.cfg.Pipeline.DesignFile
	previous := domain.WorstMetrics().Primary
	var steps []Step

	for i := 0; i < s.cfg.Iterations; i++ {
		candidates, err := s.evaluate(ctx, i, design)
		if err != nil {
			return steps, err
		}
		winner, ok := Best(candidates)
		if !ok {
			return steps, fmt.Errorf("iteration %d: every candidate failed: %w", i, candidates[0].Err)
		}

		step := Step{
			Iteration:  i,
			Winner:     winner,
			Candidates: candidates,
			Stalled:    winner.Metrics.Primary == previous,
		}
		steps = append(steps, step)
		if step.Stalled {
			s.logger.Info("best primary unchanged since last iteration", "iteration", i)
		}
		s.logger.Info("choosing optimization", "iteration", i, "transformation", winner.Transformation,
			"primary", winner.Metrics.Primary, "constraint", winner.Metrics.Constraint)

		line := strings.Join([]string{
			strconv.Itoa(i), winner.Transformation,
			episode.FormatFloat(winner.Metrics.Primary), episode.FormatFloat(winner.Metrics.Constraint),
		}, ", ")
		if _, err := fmt.Fprintln(results, line); err != nil {
			return steps, fmt.Errorf("failed to write results: %w", err)
		}

		design = winner.Design
		previous = winner.Metrics.Primary
	}
	return steps, nil
}

// evaluate runs every transformation on design concurrently. Candidate
// failures are recorded on the candidate; only cancellation aborts.
func (s *Searcher) evaluate(ctx context.Context, iteration int, design string) ([]Candidate, error) {
	transformations := s.catalog.Transformations()
	candidates := make([]Candidate, len(transformations))

	g, gCtx := errgroup.WithContext(ctx)
	limit := s.cfg.Parallelism
	if limit <= 0 {
		limit = len(transformations)
	}
	g.SetLimit(limit)

	for _, t := range transformations {
		g.Go(func() error {
			c := s.candidate(gCtx, iteration, design, t)
			candidates[t.Index] = c
			if c.Err != nil {
				s.logger.Warn("candidate failed", "iteration", iteration, "transformation", t.Name, "error", c.Err)
			} else {
				s.logger.Debug("candidate", "iteration", iteration, "transformation", t.Name,
					"primary", c.Metrics.Primary, "constraint", c.Metrics.Constraint)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (s *Searcher) candidate(ctx context.Context, iteration int, design string, t domain.Transformation) Candidate {
	dir := filepath.Join(s.cfg.OutputDir, strconv.Itoa(iteration), DirName(t.Name))
	c := Candidate{
		Index:          t.Index,
		Transformation: t.Name,
		Design:         filepath.Join(dir, "design.blif"),
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.Err = err
		return c
	}

	script, err := s.cfg.Pipeline.Candidate(design, t.Name, process.Artifacts{Design: c.Design})
	if err != nil {
		c.Err = err
		return c
	}
	out, err := s.runner.Run(ctx, s.cfg.ABCBinary, "-c", script)
	if err != nil {
		c.Err = err
		return c
	}
	fields, err := report.Parse(s.flavor, out)
	if err != nil {
		c.Err = err
		return c
	}
	c.Metrics, c.Err = report.Snapshot(fields, s.cfg.Primary, s.cfg.Constraint)
	return c
}

// Best returns the successful candidate with the lowest primary metric,
// breaking ties by the lower constraint metric and then by catalog order.
func Best(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if c.Err != nil {
			continue
		}
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

func better(a, b Candidate) bool {
	if a.Metrics.Primary != b.Metrics.Primary {
		return a.Metrics.Primary < b.Metrics.Primary
	}
	if a.Metrics.Constraint != b.Metrics.Constraint {
		return a.Metrics.Constraint < b.Metrics.Constraint
	}
	return a.Index < b.Index
}

// DirName turns a transformation such as "rewrite -z" into a directory name.
func DirName(transformation string) string {
	return strings.Join(strings.Fields(transformation), "_")
}
