package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRunFinish(ctx, &domain.RunEvent{Duration: 2 * time.Second})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Err: errors.New("boom")})

	records := domain.EmptyRecords()
	records.Primary = domain.Record{Optimization: 42, Constraint: 3, Episode: 1, Iteration: 1}
	hooks.OnStep(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Session: "s1"},
		Reward:    3,
		Records:   records,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(observability.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(observability.OutcomeFailure)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.BestPrimary.WithLabelValues("s1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EpisodeSteps.WithLabelValues("s1")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StepReward))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnStep: func(context.Context, *domain.StepEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnStep:  func(context.Context, *domain.StepEvent) { order = append(order, "b") },
		OnReset: func(context.Context, *domain.StepEvent) { order = append(order, "reset") },
	}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	hooks.OnStep(context.Background(), &domain.StepEvent{})
	hooks.OnReset(context.Background(), &domain.StepEvent{})

	assert.Equal(t, []string{"a", "b", "reset"}, order)
	assert.Nil(t, hooks.OnRunStart)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(logging.NewWithWriter(&buf, slog.LevelDebug))
	ctx := context.Background()

	hooks.OnStep(ctx, &domain.StepEvent{Transformation: "balance", Reward: 2})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Err: errors.New("exit status 1")})

	out := buf.String()
	assert.Contains(t, out, "transformation=balance")
	assert.Contains(t, out, "err=\"exit status 1\"")
}
