package buffer

import (
	"errors"
	"fmt"
	"sync"

	"pagedb/disk"
	"pagedb/log"
)

// Manager is the buffer pool manager: the only entry point through which
// upper layers obtain, release, create, and destroy pages. It owns a fixed
// array of slots, a page-id-to-frame table, a free list, and one Replacer,
// and it is the sole caller of the disk manager and the replacer.
//
// Every operation is serialized behind one mutex held for the duration of the
// call, including any disk I/O triggered by eviction. That bounds throughput
// but means no caller can ever observe a partially updated pool. Operations
// never block waiting for a frame: when everything is pinned they fail with
// ErrPoolExhausted and the caller decides whether to retry.
type Manager struct {
	diskManager *disk.Manager
	logManager  *log.Manager
	allocator   *disk.PageAllocator
	bufferPool  []*Buffer
	pageTable   map[disk.PageID]FrameID
	freeList    []FrameID
	replacer    Replacer
	mu          sync.Mutex
}

// NewManager creates a buffer pool for a single instance that owns the whole
// page identifier space. The log manager may be nil; without one, dirty pages
// are written back with no write-ahead ordering.
func NewManager(diskManager *disk.Manager, logManager *log.Manager, numBuffers int) (*Manager, error) {
	return NewPartitionedManager(diskManager, logManager, numBuffers, 1, 0)
}

// NewPartitionedManager creates one of numInstances buffer pools cooperating
// over a shared data file. Each instance mints page identifiers congruent to
// its instanceIndex modulo numInstances, so the instances never collide.
func NewPartitionedManager(diskManager *disk.Manager, logManager *log.Manager, numBuffers, numInstances, instanceIndex int) (*Manager, error) {
	allocator, err := disk.NewPageAllocator(numInstances, instanceIndex)
	if err != nil {
		return nil, fmt.Errorf("cannot create page allocator: %v", err)
	}
	return newManager(diskManager, logManager, allocator, numBuffers, NewLRUReplacer(numBuffers))
}

// NewManagerWithReplacer creates a single-instance pool with a caller-chosen
// replacement policy.
func NewManagerWithReplacer(diskManager *disk.Manager, logManager *log.Manager, numBuffers int, replacer Replacer) (*Manager, error) {
	allocator, err := disk.NewPageAllocator(1, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot create page allocator: %v", err)
	}
	return newManager(diskManager, logManager, allocator, numBuffers, replacer)
}

func newManager(diskManager *disk.Manager, logManager *log.Manager, allocator *disk.PageAllocator, numBuffers int, replacer Replacer) (*Manager, error) {
	if numBuffers <= 0 {
		return nil, fmt.Errorf("invalid buffer pool size %d", numBuffers)
	}
	m := &Manager{
		diskManager: diskManager,
		logManager:  logManager,
		allocator:   allocator,
		bufferPool:  make([]*Buffer, numBuffers),
		pageTable:   make(map[disk.PageID]FrameID, numBuffers),
		freeList:    make([]FrameID, numBuffers),
		replacer:    replacer,
	}
	// Initially, every frame is free.
	for i := 0; i < numBuffers; i++ {
		m.bufferPool[i] = newBuffer(diskManager.PageSize())
		m.freeList[i] = FrameID(i)
	}
	return m, nil
}

// FetchPage returns the slot holding the specified page, pinned once for the
// caller. A page already resident is pinned in place; otherwise its contents
// are read from disk into a free frame, or into an evicted one when no frame
// is free. The caller owns one pin and must release it with UnpinPage.
func (m *Manager) FetchPage(id disk.PageID) (*Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !id.IsValid() {
		return nil, fmt.Errorf("cannot fetch %s: %w", id, ErrInvalidPageID)
	}

	if frame, ok := m.pageTable[id]; ok {
		buff := m.bufferPool[frame]
		buff.pin()
		if buff.pins == 1 {
			m.replacer.Pin(frame)
		}
		return buff, nil
	}

	frame, buff, err := m.acquireFrame()
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", id, err)
	}

	if err := m.diskManager.ReadPage(id, buff.contents); err != nil {
		// The frame must not be left half-bound: hand it back to the
		// free list and report the failure.
		m.returnFrameToFreeList(frame, buff)
		return nil, fmt.Errorf("cannot fetch %s: %w", id, err)
	}

	m.bindFrame(frame, buff, id)
	return buff, nil
}

// NewPage allocates a brand-new page and returns its slot, pinned once for
// the caller and zero-filled; nothing exists on disk for it yet. The page's
// identifier is available from the returned slot's ID method.
func (m *Manager) NewPage() (*Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, buff, err := m.acquireFrame()
	if err != nil {
		return nil, fmt.Errorf("cannot allocate new page: %w", err)
	}

	id := m.allocator.NextID()
	buff.contents.Reset()
	m.bindFrame(frame, buff, id)
	return buff, nil
}

// UnpinPage releases one pin the caller holds on the page, recording whether
// the caller modified its contents. When the last pin is released the page
// becomes eligible for eviction. Unpinning a page that is not resident, or
// one with no outstanding pins, is a caller bug and fails explicitly.
func (m *Manager) UnpinPage(id disk.PageID, modified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, ok := m.pageTable[id]
	if !ok {
		return fmt.Errorf("cannot unpin %s: %w", id, ErrPageNotResident)
	}
	buff := m.bufferPool[frame]
	if buff.pins <= 0 {
		return fmt.Errorf("cannot unpin %s: %w", id, ErrPageNotPinned)
	}
	if modified {
		buff.dirty = true
	}
	buff.unpin()
	if buff.pins == 0 {
		m.replacer.Unpin(frame)
	}
	return nil
}

// SetModified records that the caller mutated the page's contents under its
// pin, along with the LSN of the log record covering the change. Pass a
// negative lsn if no log record was generated for the update.
func (m *Manager) SetModified(id disk.PageID, lsn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, ok := m.pageTable[id]
	if !ok {
		return fmt.Errorf("cannot mark %s modified: %w", id, ErrPageNotResident)
	}
	buff := m.bufferPool[frame]
	if buff.pins <= 0 {
		return fmt.Errorf("cannot mark %s modified: %w", id, ErrPageNotPinned)
	}
	buff.dirty = true
	if lsn >= 0 {
		buff.lsn = lsn
	}
	return nil
}

// FlushPage writes the specified page back to disk if it is dirty. Flushing a
// clean resident page succeeds without touching disk; flushing a page that is
// not resident fails.
func (m *Manager) FlushPage(id disk.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, ok := m.pageTable[id]
	if !ok {
		return fmt.Errorf("cannot flush %s: %w", id, ErrPageNotResident)
	}
	return m.writeBack(m.bufferPool[frame])
}

// FlushAll writes back every resident dirty page. One page's failure does not
// stop the sweep; all failures encountered are aggregated into the returned
// error.
func (m *Manager) FlushAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, buff := range m.bufferPool {
		if buff.id == disk.InvalidPageID || !buff.dirty {
			continue
		}
		if err := m.writeBack(buff); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeletePage discards the specified page from the pool and tells the
// allocator the identifier is free for bookkeeping. Deleting a page that is
// not resident succeeds trivially; deleting a pinned page fails and leaves
// all state unchanged. The freed frame goes to the front of the free list so
// it is reused before any replacer victim.
func (m *Manager) DeletePage(id disk.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocator.Deallocate(id)

	frame, ok := m.pageTable[id]
	if !ok {
		return nil
	}
	buff := m.bufferPool[frame]
	if buff.pins > 0 {
		return fmt.Errorf("cannot delete %s: %w", id, ErrPagePinned)
	}

	m.replacer.Pin(frame)
	delete(m.pageTable, id)
	m.returnFrameToFreeList(frame, buff)
	return nil
}

// Available returns the number of frames that could service a fetch miss
// right now: free frames plus evictable ones. Callers hitting
// ErrPoolExhausted can poll it to decide when to retry.
func (m *Manager) Available() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.freeList) + m.replacer.Size()
}

// PoolSize returns the fixed number of frames in the pool.
func (m *Manager) PoolSize() int {
	return len(m.bufferPool)
}

// acquireFrame produces an unbound frame for a new page image, preferring the
// free list over eviction so a resident, possibly useful page is never evicted
// while a genuinely empty frame exists. An evicted frame's old contents are
// written back first if dirty; on write-back failure the victim is restored
// to the replacer and the operation aborts. Callers get a frame that is no
// longer in the page table. The lock must be held.
func (m *Manager) acquireFrame() (FrameID, *Buffer, error) {
	if len(m.freeList) > 0 {
		frame := m.freeList[0]
		m.freeList = m.freeList[1:]
		return frame, m.bufferPool[frame], nil
	}

	frame, ok := m.replacer.Victim()
	if !ok {
		return 0, nil, ErrPoolExhausted
	}
	buff := m.bufferPool[frame]
	if err := m.writeBack(buff); err != nil {
		// The victim keeps its frame; make it evictable again.
		m.replacer.Unpin(frame)
		return 0, nil, err
	}
	delete(m.pageTable, buff.id)
	buff.reset()
	return frame, buff, nil
}

// bindFrame commits a frame to a page identifier with a single fresh pin.
// The lock must be held.
func (m *Manager) bindFrame(frame FrameID, buff *Buffer, id disk.PageID) {
	buff.id = id
	buff.pins = 1
	buff.dirty = false
	buff.lsn = -1
	m.pageTable[id] = frame
	m.replacer.Pin(frame)
}

// returnFrameToFreeList resets a slot and pushes its frame on the front of
// the free list. The lock must be held.
func (m *Manager) returnFrameToFreeList(frame FrameID, buff *Buffer) {
	buff.reset()
	m.freeList = append([]FrameID{frame}, m.freeList...)
}

// writeBack writes a slot's contents to disk if dirty and clears the dirty
// flag. When a log manager is present, the log is flushed up to the slot's
// recorded LSN first, so the log record covering a change is always durable
// before the data page that carries it. The lock must be held.
func (m *Manager) writeBack(buff *Buffer) error {
	if !buff.dirty {
		return nil
	}
	if m.logManager != nil && buff.lsn >= 0 {
		if err := m.logManager.Flush(buff.lsn); err != nil {
			return fmt.Errorf("failed to flush log record for %s: %v", buff.id, err)
		}
	}
	if err := m.diskManager.WritePage(buff.id, buff.contents); err != nil {
		return fmt.Errorf("failed to write back %s: %v", buff.id, err)
	}
	buff.dirty = false
	return nil
}
