package indexcache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/lattice-tok/pkg/indexcache"
)

func TestOpenTable_GetOnMissingKey_ReturnsZeroFalse(t *testing.T) {
	t.Parallel()

	tbl := indexcache.NewOpenTable(16, 0)

	v, ok := tbl.Get(42)
	assert.False(t, ok)
	assert.Equal(t, uint32(0), v)
}

func TestOpenTable_Add_AccumulatesPerKey(t *testing.T) {
	t.Parallel()

	tbl := indexcache.NewOpenTable(16, 0)

	total, err := tbl.Add(7, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), total)

	total, err = tbl.Add(7, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), total)

	other, err := tbl.Add(8, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), other)

	assert.Equal(t, 2, tbl.Len())
}

func TestOpenTable_GrowsPastInitialCapacity(t *testing.T) {
	t.Parallel()

	tbl := indexcache.NewOpenTable(16, 0)

	for i := uint64(0); i < 500; i++ {
		_, err := tbl.Add(i, 1)
		require.NoError(t, err)
	}

	assert.Equal(t, 500, tbl.Len())

	for i := uint64(0); i < 500; i++ {
		v, ok := tbl.Get(i)
		require.True(t, ok)
		assert.Equal(t, uint32(1), v)
	}
}

func TestOpenTable_RefusesToGrowPastCap(t *testing.T) {
	t.Parallel()

	tbl := indexcache.NewOpenTable(16, 8)

	var lastErr error

	for i := uint64(0); i < 64; i++ {
		_, err := tbl.Add(i, 1)
		if err != nil {
			lastErr = err

			break
		}
	}

	require.ErrorIs(t, lastErr, indexcache.ErrCapacityExceeded)
}

func TestOpenTable_ZeroKey_IsNotConfusedWithEmptySlot(t *testing.T) {
	t.Parallel()

	tbl := indexcache.NewOpenTable(16, 0)

	_, err := tbl.Add(0, 5)
	require.NoError(t, err)

	v, ok := tbl.Get(0)
	require.True(t, ok)
	assert.Equal(t, uint32(5), v)
}
