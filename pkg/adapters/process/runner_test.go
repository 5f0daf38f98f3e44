package process_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tests rely on a POSIX shell")
	}

	runner := process.NewRunner()
	ctx := context.Background()

	t.Run("Returns Stdout", func(t *testing.T) {
		out, err := runner.Run(ctx, "sh", "-c", "echo 'and = 12  lev = 3'")
		require.NoError(t, err)
		assert.Equal(t, "and = 12  lev = 3", out)
	})

	t.Run("Non-Zero Exit Is A Tool Error", func(t *testing.T) {
		_, err := runner.Run(ctx, "sh", "-c", "echo boom >&2; exit 3")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrToolExecution)

		var execErr *domain.ToolExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, 3, execErr.ExitCode)
		assert.Equal(t, "boom", execErr.Stderr)
	})

	t.Run("Missing Binary Is A Tool Error", func(t *testing.T) {
		_, err := runner.Run(ctx, "drills-binary-that-does-not-exist")
		assert.ErrorIs(t, err, domain.ErrToolExecution)
	})

	t.Run("Passes Environment", func(t *testing.T) {
		r := process.NewRunner(process.WithEnv("DRILLS_TEST_VALUE=42"))
		out, err := r.Run(ctx, "sh", "-c", "echo $DRILLS_TEST_VALUE")
		require.NoError(t, err)
		assert.Equal(t, "42", out)
	})
}

func TestRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tests rely on a POSIX shell")
	}

	r := process.NewRunner(process.WithTimeout(100 * time.Millisecond))

	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", "5")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolExecution)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "expected deadline, got %v", err)
	assert.Less(t, elapsed, 3*time.Second)
}
