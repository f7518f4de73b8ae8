package buffer

// FrameID indexes a slot in the buffer pool's frame array.
type FrameID int

// Replacer tracks which frames are eligible for eviction and selects a victim
// among them. It sees only frame indices; page contents and pin counts are the
// Manager's business, and the Manager reports just the pin-count zero
// crossings here.
type Replacer interface {
	// Pin marks a frame as ineligible for eviction because its page gained
	// a pin. Pinning a frame the replacer is not tracking is a no-op.
	Pin(frame FrameID)
	// Unpin marks a frame as eligible for eviction because its page's pin
	// count reached zero. Unpinning an already-eligible frame refreshes
	// its recency instead of duplicating it.
	Unpin(frame FrameID)
	// Victim removes and returns the least recently eligible frame.
	// Returns false if no frame is eligible.
	Victim() (FrameID, bool)
	// Size returns the number of frames currently eligible for eviction.
	Size() int
}
