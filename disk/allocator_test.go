package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageAllocator(t *testing.T) {
	t.Run("single instance mints sequential ids", func(t *testing.T) {
		assert := assert.New(t)
		a, err := NewPageAllocator(1, 0)
		require.NoError(t, err)

		for want := 0; want < 5; want++ {
			assert.Equal(PageID(want), a.NextID())
		}
	})

	t.Run("instances partition the identifier space", func(t *testing.T) {
		assert := assert.New(t)

		for index := 0; index < 3; index++ {
			a, err := NewPageAllocator(3, index)
			require.NoError(t, err)
			for i := 0; i < 4; i++ {
				id := a.NextID()
				assert.Equalf(index, int(id)%3, "id %s must belong to instance %d's stride", id, index)
			}
		}
	})

	t.Run("deallocate is bookkeeping only", func(t *testing.T) {
		assert := assert.New(t)
		a, err := NewPageAllocator(1, 0)
		require.NoError(t, err)

		id := a.NextID()
		a.Deallocate(id)
		a.Deallocate(id) // repeated deallocation is harmless
		a.Deallocate(PageID(500))
		a.Deallocate(InvalidPageID) // ignored

		assert.Equal(2, a.Deallocated())
		assert.Equal(PageID(1), a.NextID(), "deallocation never rewinds the counter")
	})

	t.Run("invalid configuration is rejected", func(t *testing.T) {
		assert := assert.New(t)

		_, err := NewPageAllocator(0, 0)
		assert.Error(err)
		_, err = NewPageAllocator(2, 2)
		assert.Error(err)
		_, err = NewPageAllocator(2, -1)
		assert.Error(err)
	})
}
