package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena(t *testing.T) {
	t.Run("Append", func(t *testing.T) {
		a := New(2, 4)

		h0, err := a.Append(10, []float64{1, 2})
		require.NoError(t, err)
		h1, err := a.Append(20, []float64{3, 4})
		require.NoError(t, err)

		assert.Equal(t, Handle(0), h0)
		assert.Equal(t, Handle(1), h1)
		assert.Equal(t, 2, a.Len())
		assert.Equal(t, 2, a.Dim())
		assert.Equal(t, []float64{1, 2}, a.Vector(h0))
		assert.Equal(t, []float64{3, 4}, a.Vector(h1))
		assert.Equal(t, uint64(20), a.ID(h1))
	})

	t.Run("Lookup", func(t *testing.T) {
		a := New(1, 0)
		_, _ = a.Append(7, []float64{1})

		h, ok := a.Lookup(7)
		require.True(t, ok)
		assert.Equal(t, Handle(0), h)
		assert.True(t, a.Contains(7))

		_, ok = a.Lookup(8)
		assert.False(t, ok)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		a := New(1, 0)
		_, err := a.Append(1, []float64{1})
		require.NoError(t, err)

		_, err = a.Append(1, []float64{2})
		assert.ErrorIs(t, err, ErrDuplicateID)
		assert.Equal(t, 1, a.Len())
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		a := New(3, 0)
		_, err := a.Append(1, []float64{1, 2})
		assert.ErrorIs(t, err, ErrDimension)
		assert.Equal(t, 0, a.Len())
	})

	t.Run("ViewsSurviveGrowth", func(t *testing.T) {
		a := New(2, 1)
		h, _ := a.Append(0, []float64{5, 6})
		view := a.Vector(h)

		for i := uint64(1); i < 100; i++ {
			_, err := a.Append(i, []float64{float64(i), float64(i)})
			require.NoError(t, err)
		}

		assert.Equal(t, []float64{5, 6}, view)
		assert.Equal(t, []float64{99, 99}, a.Vector(99))
	})

	t.Run("AppendCopies", func(t *testing.T) {
		a := New(2, 0)
		src := []float64{1, 1}
		h, _ := a.Append(0, src)
		src[0] = 42

		assert.Equal(t, []float64{1, 1}, a.Vector(h))
	})
}
