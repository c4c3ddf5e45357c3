package jobindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForLane(t *testing.T) {
	t.Run("position maps to itself", func(t *testing.T) {
		idx, err := ForLane(3)
		require.NoError(t, err)
		assert.Equal(t, Index(3), idx)
	})

	t.Run("zero position is rejected", func(t *testing.T) {
		_, err := ForLane(0)
		assert.ErrorContains(t, err, "not a valid lane position")
	})

	t.Run("negative position is rejected", func(t *testing.T) {
		_, err := ForLane(-1)
		assert.Error(t, err)
	})
}

func TestForPlex(t *testing.T) {
	t.Run("encodes position and tag", func(t *testing.T) {
		idx, err := ForPlex(3, 1)
		require.NoError(t, err)
		assert.Equal(t, Index(30001), idx)

		idx, err = ForPlex(3, 2)
		require.NoError(t, err)
		assert.Equal(t, Index(30002), idx)
	})

	t.Run("tag zero is valid", func(t *testing.T) {
		idx, err := ForPlex(8, 0)
		require.NoError(t, err)
		assert.Equal(t, Index(80000), idx)
	})

	t.Run("tag outside four digits is rejected", func(t *testing.T) {
		_, err := ForPlex(1, 10000)
		assert.ErrorContains(t, err, "encodable range")
	})

	t.Run("zero position is rejected", func(t *testing.T) {
		_, err := ForPlex(0, 5)
		assert.Error(t, err)
	})
}

func TestDeterminismAndDisjointness(t *testing.T) {
	// Lane indices occupy [1,9999]; plex indices start at 10000. The same
	// input must always produce the same index.
	seen := map[Index]bool{}
	for pos := 1; pos <= 8; pos++ {
		idx, err := ForLane(pos)
		require.NoError(t, err)
		again, err := ForLane(pos)
		require.NoError(t, err)
		assert.Equal(t, idx, again)
		assert.False(t, seen[idx])
		seen[idx] = true

		for tag := 0; tag < 20; tag++ {
			pidx, err := ForPlex(pos, tag)
			require.NoError(t, err)
			assert.False(t, seen[pidx], "plex index %d collided", pidx)
			seen[pidx] = true
		}
	}
}

func TestPosition(t *testing.T) {
	assert.Equal(t, 3, Index(3).Position())
	assert.Equal(t, 3, Index(30002).Position())
	assert.Equal(t, 8, Index(89999).Position())
}

func TestString(t *testing.T) {
	assert.Equal(t, "30001", Index(30001).String())
}
