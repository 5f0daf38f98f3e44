package report_test

import (
	"testing"

	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yosysStat = `
2. Printing statistics.

=== top ===

   Number of wires:                 42
   Number of wire bits:             58
   Number of public wires:           9
   Number of public wire bits:      25
   Number of memories:               0
   Number of memory bits:            0
   Number of processes:              0
   Number of cells:                 37
     $_AND_                         20
     $_NOT_                         11
     $_OR_                           6
`

func TestParseYosysStat(t *testing.T) {
	features, err := report.ParseYosysStat(yosysStat)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		domain.FeatureWires:       42,
		domain.FeaturePublicWires: 9,
		domain.FeatureCells:       37,
		domain.FeatureAnds:        20,
		domain.FeatureOrs:         6,
		domain.FeatureNots:        11,
	}, features)
}

func TestParseYosysStat_MissingTotals(t *testing.T) {
	_, err := report.ParseYosysStat("   Number of cells: 3\n   $and 3\n")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestParseYosysStat_GatesDefaultToZero(t *testing.T) {
	raw := "Number of wires: 3\nNumber of public wires: 3\nNumber of cells: 0\n"
	features, err := report.ParseYosysStat(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.0, features[domain.FeatureAnds])
}

const yosysHierarchyStat = `
=== half_adder ===

   Number of wires:                  4
   Number of public wires:           4
   Number of cells:                  3
     $_AND_                          1
     $_NOT_                          2

=== top ===

   Number of wires:                 10
   Number of public wires:           6
   Number of cells:                  5
     $_AND_                          2
     $_OR_                           1
     half_adder                      2

=== design hierarchy ===

   top                               1
     half_adder                      2

   Number of wires:                 18
   Number of public wires:          14
   Number of cells:                  9
     $_AND_                          4
     $_NOT_                          4
     $_OR_                           1
`

func TestParseYosysStat_HierarchyUsesTotals(t *testing.T) {
	features, err := report.ParseYosysStat(yosysHierarchyStat)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		domain.FeatureWires:       18,
		domain.FeaturePublicWires: 14,
		domain.FeatureCells:       9,
		domain.FeatureAnds:        4,
		domain.FeatureOrs:         1,
		domain.FeatureNots:        4,
	}, features)
}

func TestParseYosysStat_LastModuleWithoutHierarchy(t *testing.T) {
	raw := "=== a ===\nNumber of wires: 2\nNumber of public wires: 2\nNumber of cells: 1\n$_OR_ 1\n" +
		"=== b ===\nNumber of wires: 7\nNumber of public wires: 3\nNumber of cells: 4\n$_AND_ 4\n"
	features, err := report.ParseYosysStat(raw)
	require.NoError(t, err)
	assert.Equal(t, 7.0, features[domain.FeatureWires])
	assert.Equal(t, 4.0, features[domain.FeatureCells])
	assert.Equal(t, 4.0, features[domain.FeatureAnds])
	assert.Equal(t, 0.0, features[domain.FeatureOrs])
}
