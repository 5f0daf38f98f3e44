package report_test

import (
	"testing"

	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Mapped(t *testing.T) {
	t.Run("Plain Summary", func(t *testing.T) {
		fields, err := report.Parse(report.FlavorMapped, "delay = 3.2 area = 150.0")
		require.NoError(t, err)

		m, err := report.Snapshot(fields, report.FieldDelay, report.FieldArea)
		require.NoError(t, err)
		assert.Equal(t, 3.2, m.Primary)
		assert.Equal(t, 150.0, m.Constraint)
	})

	t.Run("Stime Output", func(t *testing.T) {
		raw := "ABC command line: \"read lib.lib; ...\".\n\n" +
			"[1] Library read.\n" +
			"top   : WireLoad = \"none\"  Gates =    120 ( 10.0 %)   Cap =  1.2 ff (  5.0 %)   Area =   300.50 ( 90.0 %)   Delay =   405.30 ps  ( 11.7 %)\n"
		fields, err := report.Parse(report.FlavorMapped, raw)
		require.NoError(t, err)
		assert.Equal(t, 405.30, fields[report.FieldDelay])
		assert.Equal(t, 300.50, fields[report.FieldArea])
	})

	t.Run("Missing Area", func(t *testing.T) {
		_, err := report.Parse(report.FlavorMapped, "delay = 3.2")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrParse)

		var pe *domain.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, report.FieldArea, pe.Label)
	})

	t.Run("Non-Numeric Value", func(t *testing.T) {
		_, err := report.Parse(report.FlavorMapped, "delay = fast area = 150.0")
		assert.ErrorIs(t, err, domain.ErrParse)
	})

	t.Run("Anchor Is Last Line", func(t *testing.T) {
		// Labels on earlier lines are ignored.
		_, err := report.Parse(report.FlavorMapped, "delay = 3.2 area = 150.0\nsomething else entirely\n")
		assert.ErrorIs(t, err, domain.ErrParse)
	})

	t.Run("Empty Report", func(t *testing.T) {
		_, err := report.Parse(report.FlavorMapped, "\n\n")
		assert.ErrorIs(t, err, domain.ErrParse)
	})
}

func TestParse_Structural(t *testing.T) {
	raw := "top                           : i/o =    5/    3  lat =    0  nd =    14  edge =     40  cube =    56  lev = 4"

	fields, err := report.Parse(report.FlavorStructural, raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		report.FieldNodes:   14,
		report.FieldEdges:   40,
		report.FieldLevels:  4,
		report.FieldLatches: 0,
		report.FieldInputs:  5,
		report.FieldOutputs: 3,
	}, fields)

	t.Run("Word Boundary", func(t *testing.T) {
		// "and = 12" must not satisfy the "nd" label.
		_, err := report.Parse(report.FlavorStructural, "i/o = 1/1 lat = 0 and = 12 edge = 3 lev = 2")
		var pe *domain.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, report.FieldNodes, pe.Label)
	})

	t.Run("Missing Pins", func(t *testing.T) {
		_, err := report.Parse(report.FlavorStructural, "lat = 0 nd = 14 edge = 40 lev = 4")
		assert.ErrorIs(t, err, domain.ErrParse)
	})
}

func TestSnapshot_UnknownField(t *testing.T) {
	_, err := report.Snapshot(map[string]float64{"delay": 1}, "delay", "area")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestFlavorFor(t *testing.T) {
	assert.Equal(t, report.FlavorMapped, report.FlavorFor(domain.TargetSCL))
	assert.Equal(t, report.FlavorStructural, report.FlavorFor(domain.TargetFPGA))
	assert.Contains(t, report.FlavorStructural.Fields(), report.FieldInputs)
}
