package buffer

import (
	"pagedb/disk"
)

/*
Buffer represents an individual buffer pool slot. A slot wraps one page-sized
byte buffer and stores information about its status: the identifier of the
page currently occupying it, the number of times the slot has been pinned,
whether its contents have been modified since the last write-back, and if so
the LSN of the log record covering the modification.

A slot's contents are only valid to a caller between a successful
Manager.FetchPage/NewPage and the matching Manager.UnpinPage; every state
transition happens inside the Manager under its lock.
*/
type Buffer struct {
	contents *disk.Page
	id       disk.PageID
	pins     int
	dirty    bool
	lsn      int
}

func newBuffer(pageSize int) *Buffer {
	return &Buffer{
		contents: disk.NewPage(pageSize),
		id:       disk.InvalidPageID,
		pins:     0,
		dirty:    false,
		lsn:      -1,
	}
}

func (b *Buffer) Contents() *disk.Page {
	return b.contents
}

// ID returns the identifier of the page occupying the slot, or
// disk.InvalidPageID if the slot is free.
func (b *Buffer) ID() disk.PageID {
	return b.id
}

// IsPinned returns true if the slot is currently pinned (that is, if it has a nonzero pin count)
func (b *Buffer) IsPinned() bool {
	return b.pins > 0
}

// pin increases the slot's pin count
func (b *Buffer) pin() { b.pins++ }

// unpin decreases the slot's pin count
func (b *Buffer) unpin() { b.pins-- }

// reset returns the slot to its unbound state. The byte buffer itself is
// reused; whoever binds the slot next either reads over it or zeroes it.
func (b *Buffer) reset() {
	b.id = disk.InvalidPageID
	b.pins = 0
	b.dirty = false
	b.lsn = -1
}
