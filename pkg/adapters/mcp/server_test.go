package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/drills/internal/testutils"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	factory := testutils.SessionFactory(t.TempDir(), 120, 10)
	sess, err := factory(context.Background(), "mcp")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return NewServer(sess)
}

func TestServer_ResetAndStep(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	reset, err := s.handleReset(ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reset.Episode)
	assert.Len(t, reset.Observation, len(domain.FeatureNames))
	assert.Equal(t, 120.0, reset.Metrics.Constraint)

	step, err := s.handleStep(ctx, req, map[string]any{"action": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, "refactor", step.Transformation)
	assert.Equal(t, 1, step.Iteration)
	// delay stays above the bound, both metrics unchanged
	assert.Equal(t, 0.0, step.Reward)

	step, err = s.handleStep(ctx, req, map[string]any{"transformation": "balance"})
	require.NoError(t, err)
	assert.Equal(t, "balance", step.Transformation)
	assert.Equal(t, 2, step.Iteration)

	step, err = s.handleStep(ctx, req, map[string]any{"action": "1"})
	require.NoError(t, err)
	assert.Equal(t, "rewrite", step.Transformation)
	assert.True(t, step.Done)

	_, err = s.handleStep(ctx, req, map[string]any{"action": 0})
	assert.ErrorIs(t, err, domain.ErrEpisodeDone)
}

func TestServer_StepArguments(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	_, err := s.handleReset(ctx, req, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		args map[string]any
		want error
	}{
		{"missing", map[string]any{}, domain.ErrConfiguration},
		{"both", map[string]any{"action": 0, "transformation": "balance"}, domain.ErrConfiguration},
		{"unknown key", map[string]any{"actoin": 0}, domain.ErrConfiguration},
		{"unknown transformation", map[string]any{"transformation": "dch"}, domain.ErrBounds},
		{"out of range", map[string]any{"action": 3}, domain.ErrBounds},
		{"negative", map[string]any{"action": -1}, domain.ErrBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleStep(ctx, req, tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, s.env.State().Iteration)
}

func TestServer_CatalogAndBest(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	cat, err := s.handleCatalog(ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, testutils.Optimizations, cat.Transformations)
	assert.Equal(t, domain.FeatureNames, cat.Features)

	best, err := s.handleBest(ctx, req, nil)
	require.NoError(t, err)
	assert.True(t, best.Primary.IsEmpty())

	_, err = s.handleReset(ctx, req, nil)
	require.NoError(t, err)
	_, err = s.handleStep(ctx, req, map[string]any{"action": 0})
	require.NoError(t, err)

	best, err = s.handleBest(ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, best.Primary.Optimization)
	// delay 120 never meets the bound of 100
	assert.True(t, best.MeetsConstraint.IsEmpty())
}

func TestServer_StepBeforeReset(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleStep(context.Background(), mcp.CallToolRequest{}, map[string]any{"action": 0})
	assert.ErrorIs(t, err, domain.ErrEpisodeNotStarted)
}
