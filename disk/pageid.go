package disk

import "fmt"

// PageID identifies a fixed-size page within the database file.
type PageID int

// InvalidPageID marks a buffer slot that is not bound to any page.
const InvalidPageID PageID = -1

func (id PageID) String() string {
	if id == InvalidPageID {
		return "[page invalid]"
	}
	return fmt.Sprintf("[page %d]", int(id))
}

// IsValid returns true if the id refers to an allocatable page.
func (id PageID) IsValid() bool {
	return id >= 0
}
