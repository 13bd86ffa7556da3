package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceAndMeta(t *testing.T) {
	items := make([]int, 19)
	for i := range items {
		items[i] = i
	}

	p := New(3, 8)
	assert.Equal(t, []int{16, 17, 18}, Slice(items, p))

	meta := GetMeta(p, int64(len(items)))
	assert.Equal(t, 3, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	assert.Empty(t, Slice(items, New(4, 8)))
}

func TestNewClamps(t *testing.T) {
	p := New(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, MaxLimit, New(1, 1000).Limit)
}
