package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/drills/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of drills_runs_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors fed by session hooks.
type Metrics struct {
	Runs         *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	StepReward   prometheus.Histogram
	BestPrimary  *prometheus.GaugeVec
	EpisodeSteps *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drills_runs_total",
				Help: "Total number of external tool runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "drills_run_duration_seconds",
				Help:    "Duration of external tool runs",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
			},
		),
		StepReward: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "drills_step_reward",
				Help:    "Distribution of step rewards",
				Buckets: []float64{-3, -2, -1, 0, 1, 2, 3},
			},
		),
		BestPrimary: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drills_best_primary",
				Help: "Best optimization metric seen by a session",
			},
			[]string{"session"},
		),
		EpisodeSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drills_steps_total",
				Help: "Total number of completed steps by session",
			},
			[]string{"session"},
		),
	}

	for _, c := range []prometheus.Collector{m.Runs, m.RunDuration, m.StepReward, m.BestPrimary, m.EpisodeSteps} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			outcome := OutcomeSuccess
			if e.Err != nil {
				outcome = OutcomeFailure
			}
			m.Runs.WithLabelValues(outcome).Inc()
			m.RunDuration.Observe(e.Duration.Seconds())
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.StepReward.Observe(e.Reward)
			m.EpisodeSteps.WithLabelValues(e.Session).Inc()
			if !e.Records.Primary.IsEmpty() {
				m.BestPrimary.WithLabelValues(e.Session).Set(e.Records.Primary.Optimization)
			}
		},
	}
}

// LogHooks returns lifecycle hooks writing one structured record per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "run_finish",
					"session", e.Session, "episode", e.Episode, "iteration", e.Iteration,
					"duration", e.Duration, "error", e.Err)
				return
			}
			logger.DebugContext(ctx, "run_finish",
				"session", e.Session, "episode", e.Episode, "iteration", e.Iteration,
				"duration", e.Duration, "primary", e.Metrics.Primary, "constraint", e.Metrics.Constraint)
		},
		OnReset: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "episode_start", "session", e.Session, "episode", e.Episode,
				"primary", e.Metrics.Primary, "constraint", e.Metrics.Constraint)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step", "session", e.Session, "episode", e.Episode, "iteration", e.Iteration,
				"transformation", e.Transformation, "reward", e.Reward, "done", e.Done)
		},
	}
}

// Combine calls every non-nil callback of each hook set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnRunStart = chainRun(out.OnRunStart, h.OnRunStart)
		out.OnRunFinish = chainRun(out.OnRunFinish, h.OnRunFinish)
		out.OnReset = chainStep(out.OnReset, h.OnReset)
		out.OnStep = chainStep(out.OnStep, h.OnStep)
	}
	return out
}

func chainRun(a, b func(context.Context, *domain.RunEvent)) func(context.Context, *domain.RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainStep(a, b func(context.Context, *domain.StepEvent)) func(context.Context, *domain.StepEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
