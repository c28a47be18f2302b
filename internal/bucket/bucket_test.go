package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	t.Run("AddGet", func(t *testing.T) {
		tbl := NewTable()
		tbl.Add([]int64{1, 2}, 0)
		tbl.Add([]int64{1, 2}, 5)
		tbl.Add([]int64{2, 1}, 3)

		got, _ := tbl.Get([]int64{1, 2}, nil)
		assert.Equal(t, []uint32{0, 5}, got)

		got, _ = tbl.Get([]int64{2, 1}, nil)
		assert.Equal(t, []uint32{3}, got)

		got, _ = tbl.Get([]int64{9, 9}, nil)
		assert.Empty(t, got)
	})

	t.Run("NegativeComponents", func(t *testing.T) {
		tbl := NewTable()
		tbl.Add([]int64{-1, 0}, 1)
		tbl.Add([]int64{1, 0}, 2)

		got, _ := tbl.Get([]int64{-1, 0}, nil)
		assert.Equal(t, []uint32{1}, got)
	})

	t.Run("ScratchReuse", func(t *testing.T) {
		tbl := NewTable()
		tbl.Add([]int64{7}, 1)

		scratch := make([]byte, 0, 16)
		got, scratch := tbl.Get([]int64{7}, scratch)
		assert.Equal(t, []uint32{1}, got)
		got, _ = tbl.Get([]int64{8}, scratch)
		assert.Empty(t, got)
	})

	t.Run("Stats", func(t *testing.T) {
		tbl := NewTable()
		tbl.Add([]int64{1}, 0)
		tbl.Add([]int64{1}, 1)
		tbl.Add([]int64{1}, 2)
		tbl.Add([]int64{2}, 3)

		assert.Equal(t, Stats{Buckets: 2, References: 4, MaxBucket: 3}, tbl.Stats())
	})
}

func TestAppendKey(t *testing.T) {
	a := AppendKey(nil, []int64{1, 23})
	b := AppendKey(nil, []int64{12, 3})
	assert.NotEqual(t, a, b, "encoding must not be ambiguous")

	assert.Equal(t, AppendKey(nil, []int64{-5, 300}), AppendKey(nil, []int64{-5, 300}))
}
