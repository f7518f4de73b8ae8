package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUReplacer(t *testing.T) {
	t.Run("victim on empty replacer", func(t *testing.T) {
		assert := assert.New(t)
		r := NewLRUReplacer(4)

		_, ok := r.Victim()
		assert.False(ok, "empty replacer should have no victim")
		assert.Equal(0, r.Size())
	})

	t.Run("victims come out least recently unpinned first", func(t *testing.T) {
		assert := assert.New(t)
		r := NewLRUReplacer(4)

		r.Unpin(1)
		r.Unpin(2)
		r.Unpin(3)
		assert.Equal(3, r.Size())

		for _, want := range []FrameID{1, 2, 3} {
			got, ok := r.Victim()
			assert.True(ok)
			assert.Equal(want, got)
		}
		assert.Equal(0, r.Size())
	})

	t.Run("duplicate unpin refreshes recency", func(t *testing.T) {
		assert := assert.New(t)
		r := NewLRUReplacer(4)

		r.Unpin(1)
		r.Unpin(2)
		r.Unpin(1) // frame 1 becomes the most recently unpinned
		assert.Equal(2, r.Size(), "duplicate unpin must not add a second entry")

		got, ok := r.Victim()
		assert.True(ok)
		assert.Equal(FrameID(2), got, "frame 2 is now the least recently unpinned")

		got, ok = r.Victim()
		assert.True(ok)
		assert.Equal(FrameID(1), got)
	})

	t.Run("pin removes a frame from the eligible set", func(t *testing.T) {
		assert := assert.New(t)
		r := NewLRUReplacer(4)

		r.Unpin(1)
		r.Unpin(2)
		r.Unpin(3)
		r.Pin(2)
		assert.Equal(2, r.Size())

		got, ok := r.Victim()
		assert.True(ok)
		assert.Equal(FrameID(1), got)

		got, ok = r.Victim()
		assert.True(ok)
		assert.Equal(FrameID(3), got, "pinned frame must never be the victim")
	})

	t.Run("pin of an untracked frame is a no-op", func(t *testing.T) {
		assert := assert.New(t)
		r := NewLRUReplacer(4)

		r.Pin(7)
		assert.Equal(0, r.Size())

		r.Unpin(1)
		r.Pin(7)
		assert.Equal(1, r.Size())
	})

	t.Run("capacity bounds the eligible set", func(t *testing.T) {
		assert := assert.New(t)
		r := NewLRUReplacer(2)

		r.Unpin(1)
		r.Unpin(2)
		r.Unpin(3) // beyond capacity, dropped
		assert.Equal(2, r.Size())

		got, ok := r.Victim()
		assert.True(ok)
		assert.Equal(FrameID(1), got)

		got, ok = r.Victim()
		assert.True(ok)
		assert.Equal(FrameID(2), got)

		_, ok = r.Victim()
		assert.False(ok)
	})
}
