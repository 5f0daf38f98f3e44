package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/drills/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantErr bool
	}{
		{name: "Valid", input: []string{"balance", "rewrite", "refactor"}},
		{name: "Empty", input: nil, wantErr: true},
		{name: "Blank Entry", input: []string{"balance", "  "}, wantErr: true},
		{name: "Duplicate", input: []string{"rewrite", "rewrite"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := domain.NewCatalog(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), c.Len())
		})
	}
}

func TestCatalog_At(t *testing.T) {
	c, err := domain.NewCatalog([]string{"balance", "rewrite", "refactor"})
	require.NoError(t, err)

	tr, err := c.At(1)
	require.NoError(t, err)
	assert.Equal(t, domain.Transformation{Index: 1, Name: "rewrite"}, tr)

	for _, idx := range []int{-1, 3, 100} {
		_, err := c.At(idx)
		var bounds *domain.BoundsError
		require.ErrorAs(t, err, &bounds)
		assert.Equal(t, idx, bounds.Index)
		assert.Equal(t, 3, bounds.Size)
		assert.ErrorIs(t, err, domain.ErrBounds)
	}

	i, ok := c.IndexOf("refactor")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = c.IndexOf("resub")
	assert.False(t, ok)
}

func TestCatalog_NamesIsCopy(t *testing.T) {
	c, err := domain.NewCatalog([]string{"balance"})
	require.NoError(t, err)

	names := c.Names()
	names[0] = "mutated"

	tr, _ := c.At(0)
	assert.Equal(t, "balance", tr.Name)
}
