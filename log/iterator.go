package log

import (
	"errors"
	"fmt"
	"os"

	"pagedb/disk"
)

// Iterator provides the ability to move through the records of the log file in
// reverse order, verifying each record's checksum as it goes.
type Iterator struct {
	logFile         *os.File
	pageSize        int
	block           int
	page            *disk.Page
	currentPosition int
	boundary        int
}

// newIterator creates an iterator for the records in the log file, positioned
// after the last log record.
func newIterator(logFile *os.File, pageSize, block int) (*Iterator, error) {
	iterator := &Iterator{
		logFile:  logFile,
		pageSize: pageSize,
		page:     disk.NewPage(pageSize),
	}
	if err := iterator.moveToBlock(block); err != nil {
		return nil, fmt.Errorf("failed to move to block: %v", err)
	}

	return iterator, nil
}

// HasNext determines if the current log record is the earliest record in the
// log file. Returns true if there is an earlier record.
func (it *Iterator) HasNext() bool {
	return it.currentPosition < it.pageSize || it.block > 0
}

// Next moves to the next log record in the page.
// If there are no more log records in the page, then move to the previous
// page and return the log record from there.
// Returns the next earliest log record's payload, with its checksum verified
// and stripped.
func (it *Iterator) Next() ([]byte, error) {
	if it.currentPosition == it.pageSize {
		if it.block == 0 {
			return nil, errors.New("no more log records")
		}
		if err := it.moveToBlock(it.block - 1); err != nil {
			return nil, fmt.Errorf("failed to move to block :%v", err)
		}
	}
	sealed := it.page.GetBytes(it.currentPosition)
	it.currentPosition += intSize + len(sealed) // (size of record) + (length of record)

	record, err := openRecord(sealed)
	if err != nil {
		return nil, fmt.Errorf("log record at block %d is corrupt: %v", it.block, err)
	}
	return record, nil
}

func (it *Iterator) moveToBlock(block int) error {
	if err := readBlock(it.logFile, it.pageSize, block, it.page); err != nil {
		return fmt.Errorf("failed to read block: %v", err)
	}

	it.block = block
	it.boundary = it.page.GetInt(0)
	it.currentPosition = it.boundary
	return nil
}
