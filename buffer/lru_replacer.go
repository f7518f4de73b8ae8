package buffer

import (
	"container/list"
	"sync"
)

// LRUReplacer selects eviction victims in least-recently-unpinned order. The
// recency timeline is the eligibility timeline: a frame earns recency only
// when its pin count drops to zero, not while it is being used under a pin.
//
// The replacer carries its own lock. The Manager already serializes every
// call behind its coarse lock, so this one is defense in depth for a future
// caller with finer-grained locking.
type LRUReplacer struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently eligible, back = next victim
	frames   map[FrameID]*list.Element
}

// NewLRUReplacer creates a replacer tracking at most capacity frames, which
// should equal the pool size.
func NewLRUReplacer(capacity int) *LRUReplacer {
	return &LRUReplacer{
		capacity: capacity,
		order:    list.New(),
		frames:   make(map[FrameID]*list.Element, capacity),
	}
}

// Pin removes the frame from the eligible set. Frames the replacer is not
// tracking are left alone.
func (r *LRUReplacer) Pin(frame FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	element, ok := r.frames[frame]
	if !ok {
		return
	}
	r.order.Remove(element)
	delete(r.frames, frame)
}

// Unpin adds the frame to the eligible set as the most recently eligible
// entry. An already-tracked frame has its recency refreshed. A caller that
// respects the capacity never fills the replacer beyond it; if that happens
// anyway the frame is dropped rather than tracked twice.
func (r *LRUReplacer) Unpin(frame FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if element, ok := r.frames[frame]; ok {
		r.order.MoveToFront(element)
		return
	}
	if len(r.frames) >= r.capacity {
		return
	}
	r.frames[frame] = r.order.PushFront(frame)
}

// Victim removes and returns the least recently eligible frame, or false if
// nothing is eligible.
func (r *LRUReplacer) Victim() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	element := r.order.Back()
	if element == nil {
		return 0, false
	}
	frame := element.Value.(FrameID)
	r.order.Remove(element)
	delete(r.frames, frame)
	return frame, true
}

// Size returns the number of frames currently eligible for eviction.
func (r *LRUReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.frames)
}
