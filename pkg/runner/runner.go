package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/ports"
)

// Session is the environment a Runner drives.
type Session interface {
	ports.Environment
	Episode() int
	Sequence() []string
	Records() domain.Records
}

// EpisodeSummary describes one finished episode.
type EpisodeSummary struct {
	Episode     int
	Steps       int
	TotalReward float64
	Sequence    []string
	Records     domain.Records
	// Err is the failure that ended the episode early, if any.
	Err error
}

// Runner drives a Session through a number of episodes.
type Runner struct {
	session  Session
	policy   Policy
	episodes int
	logger   *slog.Logger
	observer func(EpisodeSummary)
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEpisodes sets how many episodes Run performs.
func WithEpisodes(n int) Option {
	return func(r *Runner) {
		r.episodes = n
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver is called after every episode.
func WithObserver(fn func(EpisodeSummary)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// New creates a Runner performing one episode unless configured otherwise.
func New(session Session, policy Policy, opts ...Option) *Runner {
	r := &Runner{
		session:  session,
		policy:   policy,
		episodes: 1,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs the configured episodes. A failed run ends its episode and
// the loop moves on to the next one; cancellation of ctx stops the loop and
// is returned together with the summaries gathered so far.
func (r *Runner) Run(ctx context.Context) ([]EpisodeSummary, error) {
	var summaries []EpisodeSummary
	for i := 0; i < r.episodes; i++ {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}

		summary := r.episode(ctx)
		summaries = append(summaries, summary)
		if r.observer != nil {
			r.observer(summary)
		}

		if summary.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summaries, ctxErr
			}
			r.logger.Warn("episode ended early", "episode", summary.Episode, "steps", summary.Steps, "error", summary.Err)
			continue
		}
		r.logger.Info("episode finished", "episode", summary.Episode, "steps", summary.Steps, "total_reward", summary.TotalReward)
	}
	return summaries, nil
}

func (r *Runner) episode(ctx context.Context) EpisodeSummary {
	obs, err := r.session.Reset(ctx)
	summary := EpisodeSummary{Episode: r.session.Episode()}
	if err != nil {
		summary.Err = fmt.Errorf("reset: %w", err)
		summary.Records = r.session.Records()
		return summary
	}
	r.policy.Begin(summary.Episode)

	for {
		action, err := r.policy.Act(ctx, obs, r.session.ActionSpace())
		if errors.Is(err, ErrPolicyExhausted) {
			break
		}
		if err != nil {
			summary.Err = fmt.Errorf("policy: %w", err)
			break
		}

		res, err := r.session.Step(ctx, action)
		if err != nil {
			summary.Err = fmt.Errorf("step %d: %w", summary.Steps+1, err)
			break
		}
		summary.Steps++
		summary.TotalReward += res.Reward
		obs = res.Observation
		if res.Done {
			break
		}
	}

	summary.Sequence = r.session.Sequence()
	summary.Records = r.session.Records()
	return summary
}
