package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/episode"
	"github.com/aretw0/drills/pkg/ports"
	"github.com/aretw0/drills/pkg/report"
	"github.com/aretw0/drills/pkg/reward"
	"github.com/aretw0/drills/pkg/tracker"
)

// Extractor derives the observation of a design artifact.
type Extractor interface {
	Extract(ctx context.Context, artifact string) (domain.Observation, error)
}

var _ ports.Environment = (*Session)(nil)

// Session is one design undergoing episodes of transformations.
// It is not safe for concurrent use.
type Session struct {
	cfg       Config
	catalog   domain.Catalog
	flavor    report.Flavor
	runner    ports.ToolRunner
	extractor Extractor

	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	store    ports.RecordStore
	storeKey string
	now      func() time.Time

	tracker   *tracker.Tracker
	log       *episode.Log
	status    domain.EpisodeStatus
	episode   int
	iteration int
	sequence  []string
	previous  domain.Metrics
}

// Option configures the Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithRecordStore persists the best-known records under key after every
// change. Records already saved under key seed the session, and saves merge
// with what other sessions stored so the saved records only improve.
func WithRecordStore(store ports.RecordStore, key string) Option {
	return func(s *Session) {
		s.store = store
		s.storeKey = key
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New validates cfg and creates an idle session. Call Reset to start the
// first episode.
func New(ctx context.Context, cfg Config, runner ports.ToolRunner, extractor Extractor, opts ...Option) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	catalog, err := domain.NewCatalog(cfg.Optimizations)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		catalog:   catalog,
		flavor:    report.FlavorFor(cfg.Pipeline.Target),
		runner:    runner,
		extractor: extractor,
		logger:    logging.NewNop(),
		now:       time.Now,
		tracker:   tracker.New(cfg.Threshold, cfg.HasThreshold, tracker.WithBound(cfg.bound())),
		status:    domain.StatusIdle,
		sequence:  []string{domain.InitialTransformation},
		previous:  domain.WorstMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store != nil {
		saved, err := s.store.Load(ctx, s.storeKey)
		switch {
		case err == nil:
			s.tracker.Restore(saved)
		case errors.Is(err, domain.ErrSessionNotFound):
		default:
			return nil, fmt.Errorf("failed to load best-known records: %w", err)
		}
	}
	return s, nil
}

// Reset closes the current episode and starts the next one with a single run
// of the initial transformation. The run sets the baseline for the first
// step's reward and does not touch the best-known records.
func (s *Session) Reset(ctx context.Context) (domain.Observation, error) {
	if err := s.closeLog(); err != nil {
		s.logger.Warn("failed to close episode log", "episode", s.episode, "error", err)
	}

	s.episode++
	s.iteration = 0
	s.sequence = []string{domain.InitialTransformation}
	s.previous = domain.WorstMetrics()
	s.status = domain.StatusIdle

	log, err := episode.Open(s.episodeDir(), s.cfg.Primary, s.cfg.Constraint)
	if err != nil {
		return domain.Observation{}, err
	}
	s.log = log

	metrics, obs, err := s.run(ctx)
	if err != nil {
		s.logger.Error("run failed", "episode", s.episode, "iteration", s.iteration, "error", err)
		return domain.Observation{}, err
	}
	s.previous = metrics

	if err := s.log.WriteInitial(s.iteration, domain.InitialTransformation, metrics); err != nil {
		return domain.Observation{}, err
	}
	s.status = domain.StatusActive

	s.logger.Info("reset", "episode", s.episode, "primary", metrics.Primary, "constraint", metrics.Constraint)
	if s.hooks.OnReset != nil {
		s.hooks.OnReset(ctx, &domain.StepEvent{
			EventBase:      s.event(domain.EventReset),
			Transformation: domain.InitialTransformation,
			Metrics:        metrics,
			Records:        s.tracker.Records(),
		})
	}
	return obs, nil
}

// Step applies the transformation at index action and replays the whole
// sequence. On failure, including a failed episode log write, the session is
// left exactly as it was.
func (s *Session) Step(ctx context.Context, action int) (domain.StepResult, error) {
	switch s.status {
	case domain.StatusIdle:
		return domain.StepResult{}, domain.ErrEpisodeNotStarted
	case domain.StatusDone:
		return domain.StepResult{}, domain.ErrEpisodeDone
	}

	t, err := s.catalog.At(action)
	if err != nil {
		return domain.StepResult{}, err
	}

	s.sequence = append(s.sequence, t.Name)
	next := s.iteration + 1

	metrics, obs, err := s.runAt(ctx, next)
	if err != nil {
		s.sequence = s.sequence[:len(s.sequence)-1]
		s.logger.Error("run failed", "episode", s.episode, "iteration", next, "transformation", t.Name, "error", err)
		return domain.StepResult{}, err
	}

	r := reward.Compute(s.cfg.Shape, reward.Input{
		PrevPrimary:    s.previous.Primary,
		CurPrimary:     metrics.Primary,
		PrevConstraint: s.previous.Constraint,
		CurConstraint:  metrics.Constraint,
		Threshold:      s.cfg.Threshold,
		HasThreshold:   s.cfg.HasThreshold,
		Iteration:      s.iteration,
		Horizon:        s.cfg.Horizon,
	})

	// The log line goes out before anything is committed.
	staged := *s.tracker
	improved := staged.Observe(metrics, s.episode, next)
	if err := s.log.WriteStep(next, t.Name, metrics, staged.Records()); err != nil {
		s.sequence = s.sequence[:len(s.sequence)-1]
		s.logger.Error("failed to write episode log", "episode", s.episode, "iteration", next, "error", err)
		return domain.StepResult{}, err
	}

	s.previous = metrics
	s.iteration = next
	*s.tracker = staged
	if improved {
		s.persist(ctx)
	}
	records := s.tracker.Records()

	done := s.iteration == s.cfg.Horizon
	if done {
		s.status = domain.StatusDone
	}

	s.logger.Debug("step", "episode", s.episode, "iteration", s.iteration,
		"transformation", t.Name, "reward", r, "primary", metrics.Primary, "constraint", metrics.Constraint)
	if s.hooks.OnStep != nil {
		ev := s.event(domain.EventStep)
		s.hooks.OnStep(ctx, &domain.StepEvent{
			EventBase:      ev,
			Transformation: t.Name,
			Reward:         r,
			Done:           done,
			Metrics:        metrics,
			Records:        records,
		})
	}

	return domain.StepResult{
		Observation:    obs,
		Reward:         r,
		Done:           done,
		Transformation: t.Name,
		Metrics:        metrics,
	}, nil
}

func (s *Session) run(ctx context.Context) (domain.Metrics, domain.Observation, error) {
	return s.runAt(ctx, s.iteration)
}

// runAt executes the current sequence, writing artifacts named after index.
func (s *Session) runAt(ctx context.Context, index int) (domain.Metrics, domain.Observation, error) {
	artifacts := s.Artifacts(index)
	script, err := s.cfg.Pipeline.Build(s.sequence, artifacts)
	if err != nil {
		return domain.Metrics{}, domain.Observation{}, err
	}

	ev := &domain.RunEvent{
		EventBase: s.event(domain.EventRunStart),
		Sequence:  s.Sequence(),
	}
	ev.Iteration = index
	if s.hooks.OnRunStart != nil {
		s.hooks.OnRunStart(ctx, ev)
	}

	start := s.now()
	metrics, obs, err := s.execute(ctx, script, artifacts)

	ev.Type = domain.EventRunFinish
	ev.Timestamp = s.now()
	ev.Duration = ev.Timestamp.Sub(start)
	ev.Metrics = metrics
	ev.Err = err
	if s.hooks.OnRunFinish != nil {
		s.hooks.OnRunFinish(ctx, ev)
	}
	return metrics, obs, err
}

func (s *Session) execute(ctx context.Context, script string, artifacts process.Artifacts) (domain.Metrics, domain.Observation, error) {
	out, err := s.runner.Run(ctx, s.cfg.ABCBinary, "-c", script)
	if err != nil {
		return domain.Metrics{}, domain.Observation{}, err
	}
	fields, err := report.Parse(s.flavor, out)
	if err != nil {
		return domain.Metrics{}, domain.Observation{}, err
	}
	metrics, err := report.Snapshot(fields, s.cfg.Primary, s.cfg.Constraint)
	if err != nil {
		return domain.Metrics{}, domain.Observation{}, err
	}
	obs, err := s.extractor.Extract(ctx, artifacts.Design)
	if err != nil {
		return domain.Metrics{}, domain.Observation{}, fmt.Errorf("failed to extract features: %w", err)
	}
	return metrics, obs, nil
}

// persist merges the records into the store. Other sessions on the same key
// may hold better records; the merged set replaces the local one.
func (s *Session) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	merged, err := s.store.Merge(ctx, s.storeKey, s.tracker.Records())
	if err != nil {
		s.logger.Warn("failed to save best-known records", "key", s.storeKey, "error", err)
		return
	}
	s.tracker.Restore(merged)
}

func (s *Session) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: s.now(),
		Type:      t,
		Session:   s.cfg.ID,
		Episode:   s.episode,
		Iteration: s.iteration,
	}
}

func (s *Session) episodeDir() string {
	return filepath.Join(s.cfg.PlaygroundDir, strconv.Itoa(s.episode))
}

// Artifacts returns the files written by the run at index of the current episode.
func (s *Session) Artifacts(index int) process.Artifacts {
	dir := s.episodeDir()
	return process.Artifacts{
		Design: filepath.Join(dir, strconv.Itoa(index)+".v"),
		Mapped: filepath.Join(dir, strconv.Itoa(index)+"-mapped.v"),
	}
}

func (s *Session) closeLog() error {
	if s.log == nil {
		return nil
	}
	err := s.log.Close()
	s.log = nil
	return err
}

// Close releases the episode log. The session can be Reset again afterwards.
func (s *Session) Close() error {
	s.status = domain.StatusIdle
	return s.closeLog()
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.cfg.ID }

// Episode returns the 1-based index of the current episode, 0 before the first Reset.
func (s *Session) Episode() int { return s.episode }

// Iteration returns the number of steps run in the current episode.
func (s *Session) Iteration() int { return s.iteration }

// Horizon returns the number of steps per episode.
func (s *Session) Horizon() int { return s.cfg.Horizon }

// Done reports whether the current episode reached its horizon.
func (s *Session) Done() bool { return s.status == domain.StatusDone }

// Status returns where the session is in its episode lifecycle.
func (s *Session) Status() domain.EpisodeStatus { return s.status }

// Sequence returns a copy of the transform sequence of the current episode.
func (s *Session) Sequence() []string {
	out := make([]string, len(s.sequence))
	copy(out, s.sequence)
	return out
}

// Records returns the best-known records.
func (s *Session) Records() domain.Records { return s.tracker.Records() }

// Metrics returns the snapshot of the latest successful run.
func (s *Session) Metrics() domain.Metrics { return s.previous }

// Catalog returns the transformation catalog.
func (s *Session) Catalog() domain.Catalog { return s.catalog }

// ActionSpace returns the number of transformations.
func (s *Session) ActionSpace() int { return s.catalog.Len() }

// ObservationSize returns the length of an observation vector.
func (s *Session) ObservationSize() int { return len(domain.FeatureNames) }

// State returns a snapshot for remote drivers.
func (s *Session) State() domain.SessionState {
	return domain.SessionState{
		ID:        s.cfg.ID,
		Status:    s.status,
		Episode:   s.episode,
		Iteration: s.iteration,
		Horizon:   s.cfg.Horizon,
		Sequence:  s.Sequence(),
		Metrics:   s.previous,
		Records:   s.tracker.Records(),
	}
}
