package process_test

import (
	"testing"

	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Build(t *testing.T) {
	out := process.Artifacts{Design: "/pg/1/2.v", Mapped: "/pg/1/2-mapped.v"}
	seq := []string{"strash", "balance", "rewrite -z"}

	t.Run("Standard Cell", func(t *testing.T) {
		p := process.Pipeline{
			Target:      domain.TargetSCL,
			DesignFile:  "design.v",
			LibraryFile: "lib.lib",
			ClockPeriod: 150,
		}
		script, err := p.Build(seq, out)
		require.NoError(t, err)
		assert.Equal(t,
			"read lib.lib; read design.v; strash; balance; rewrite -z; write /pg/1/2.v; map -D 150; write /pg/1/2-mapped.v; topo; stime;",
			script)
	})

	t.Run("FPGA", func(t *testing.T) {
		p := process.Pipeline{Target: domain.TargetFPGA, DesignFile: "design.v", LUTInputs: 6}
		script, err := p.Build(seq, out)
		require.NoError(t, err)
		assert.Equal(t,
			"read design.v; strash; balance; rewrite -z; write /pg/1/2.v; if -K 6; write /pg/1/2-mapped.v; print_stats;",
			script)
	})

	t.Run("Unknown Target", func(t *testing.T) {
		_, err := process.Pipeline{Target: "asic"}.Build(seq, out)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Empty Sequence", func(t *testing.T) {
		_, err := process.Pipeline{Target: domain.TargetFPGA}.Build(nil, out)
		assert.Error(t, err)
	})
}

func TestPipeline_Candidate(t *testing.T) {
	p := process.Pipeline{Target: domain.TargetSCL, LibraryFile: "lib.lib", ClockPeriod: 97.5}
	script, err := p.Candidate("/out/3/design.blif", "refactor -z", process.Artifacts{Design: "/out/4/refactor_-z/design.blif"})
	require.NoError(t, err)
	assert.Equal(t,
		"read lib.lib; read /out/3/design.blif; strash; refactor -z; write /out/4/refactor_-z/design.blif; map -D 97.5; topo; stime;",
		script)
}
