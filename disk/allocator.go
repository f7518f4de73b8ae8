package disk

import (
	"fmt"
	"sync"
)

// PageAllocator mints page identifiers for one buffer pool instance. When
// several pool instances share one data file, each is constructed with the
// same numInstances and a distinct instanceIndex; every id it produces is
// congruent to instanceIndex mod numInstances, so the instances partition
// the identifier space without coordinating.
//
// Deallocate is bookkeeping only: the database file never shrinks here, the
// allocator just records that the id was logically discarded.
type PageAllocator struct {
	mu            sync.Mutex
	numInstances  int
	instanceIndex int
	nextID        PageID
	deallocated   map[PageID]struct{}
}

func NewPageAllocator(numInstances, instanceIndex int) (*PageAllocator, error) {
	if numInstances <= 0 {
		return nil, fmt.Errorf("invalid instance count %d", numInstances)
	}
	if instanceIndex < 0 || instanceIndex >= numInstances {
		return nil, fmt.Errorf("instance index %d out of range for %d instances", instanceIndex, numInstances)
	}
	return &PageAllocator{
		numInstances:  numInstances,
		instanceIndex: instanceIndex,
		nextID:        PageID(instanceIndex),
		deallocated:   make(map[PageID]struct{}),
	}, nil
}

// NextID mints a fresh page identifier belonging to this instance's stride.
func (a *PageAllocator) NextID() PageID {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID += PageID(a.numInstances)
	return id
}

// Deallocate records that the given id was logically discarded. It never
// fails; deallocating an id twice, or one this instance never minted, is
// harmless.
func (a *PageAllocator) Deallocate(id PageID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id.IsValid() {
		a.deallocated[id] = struct{}{}
	}
}

// Deallocated returns the number of distinct ids recorded as discarded.
func (a *PageAllocator) Deallocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.deallocated)
}
