package log

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	"pagedb/disk"
)

// intSize is the number of bytes the log page uses to encode an integer.
const intSize = 8

// checksumSize is the size of the per-record checksum.
const checksumSize = 8

// recordOverhead is the number of bytes stored alongside each record payload:
// an 8-byte length prefix and the checksum.
const recordOverhead = intSize + checksumSize

// Manager manages the write-ahead log file. It provides methods to append log
// records and to iterate over them, and it is the durability hook the buffer
// pool consults before writing a data page back to disk: Flush(lsn) forces
// every record up to lsn into the log file first.
//
// The log file is processed in pages. Records accumulate in an in-memory log
// page and are written backwards within it, which makes reading them in
// reverse order easy; when the page fills up, a new page is appended to the
// file. Each record carries a checksum that the iterator verifies, so a torn
// or corrupted record is detected rather than handed back to the caller.
// The Manager is thread-safe.
type Manager struct {
	logFile      *os.File
	logFileName  string
	pageSize     int
	logPage      *disk.Page
	currentBlock int
	latestLSN    int
	lastSavedLSN int
	mu           sync.Mutex
}

func NewManager(dbDirectory, logFileName string, pageSize int) (*Manager, error) {
	if pageSize <= recordOverhead+intSize {
		return nil, fmt.Errorf("page size %d too small for log records", pageSize)
	}
	if err := os.MkdirAll(dbDirectory, 0755); err != nil {
		return nil, fmt.Errorf("cannot create directory %s: %v", dbDirectory, err)
	}
	logPath := filepath.Join(dbDirectory, logFileName)
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %v", logPath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat log file: %v", err)
	}
	logSize := int(info.Size()) / pageSize

	m := &Manager{
		logFile:     f,
		logFileName: logFileName,
		pageSize:    pageSize,
		logPage:     disk.NewPage(pageSize),
		latestLSN:   0,
	}

	if logSize == 0 {
		// If the log file is empty, append a new empty page to it.
		if err := m.appendNewBlock(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to append a new block: %v", err)
		}
	} else {
		// If the log file is not empty, read the last page into the buffer
		m.currentBlock = logSize - 1
		if err := readBlock(f, pageSize, m.currentBlock, m.logPage); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read log page: %v", err)
		}
	}
	return m, nil
}

// Flush ensures that every log record up to and including the one identified
// by lsn is durable. Records already saved make this a no-op.
func (m *Manager) Flush(lsn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logFile == nil {
		return fmt.Errorf("cannot flush lsn %d: log manager is closed", lsn)
	}
	if lsn >= m.lastSavedLSN {
		return m.flush()
	}
	return nil
}

// Iterator returns an iterator over the log records, newest first. The log is
// flushed first so the iterator sees every appended record.
func (m *Manager) Iterator() (*Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logFile == nil {
		return nil, fmt.Errorf("cannot create log iterator: log manager is closed")
	}
	if err := m.flush(); err != nil {
		return nil, fmt.Errorf("failed to flush log: %v", err)
	}
	return newIterator(m.logFile, m.pageSize, m.currentBlock)
}

// Append adds a record to the log and returns its LSN.
// The beginning of the log page contains the location of the last-written
// record (the "boundary"). Records are stored backwards from the end of the
// page, each sealed with a checksum of its payload.
func (m *Manager) Append(logRecord []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logFile == nil {
		return 0, fmt.Errorf("cannot append log record: log manager is closed")
	}

	// Get the current boundary
	boundary := m.logPage.GetInt(0)

	bytesNeeded := len(logRecord) + recordOverhead
	if boundary-bytesNeeded < intSize {
		if bytesNeeded > m.pageSize-intSize {
			return 0, fmt.Errorf("log record of %d bytes does not fit in a %d byte page", len(logRecord), m.pageSize)
		}
		if err := m.flush(); err != nil {
			return 0, fmt.Errorf("failed to flush log: %v", err)
		}

		if err := m.appendNewBlock(); err != nil {
			return 0, fmt.Errorf("failed to append new block: %v", err)
		}

		boundary = m.logPage.GetInt(0)
	}

	recordPosition := boundary - bytesNeeded

	m.logPage.SetBytes(recordPosition, sealRecord(logRecord))
	m.logPage.SetInt(0, recordPosition)

	m.latestLSN++
	return m.latestLSN, nil
}

// LatestLSN returns the LSN of the most recently appended record.
func (m *Manager) LatestLSN() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.latestLSN
}

// FlushedLSN returns the LSN of the most recent record known to be durable.
// Every record with an LSN at or below it has been written to the log file.
func (m *Manager) FlushedLSN() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastSavedLSN
}

// Close flushes the buffered log page and releases the file handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logFile == nil {
		return nil
	}
	if err := m.flush(); err != nil {
		return err
	}
	f := m.logFile
	m.logFile = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close log file %s: %v", m.logFileName, err)
	}
	return nil
}

// appendNewBlock extends the log file with a fresh page and makes it current.
// This method is not thread-safe.
func (m *Manager) appendNewBlock() error {
	info, err := m.logFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %v", err)
	}
	m.currentBlock = int(info.Size()) / m.pageSize
	m.logPage.Reset()
	m.logPage.SetInt(0, m.pageSize)

	if err := m.writeBlock(m.currentBlock, m.logPage); err != nil {
		return fmt.Errorf("failed to write new block: %v", err)
	}
	return nil
}

// flush writes the buffered log page to the log file. This method is not thread-safe.
func (m *Manager) flush() error {
	if err := m.writeBlock(m.currentBlock, m.logPage); err != nil {
		return fmt.Errorf("failed to write log page:%v", err)
	}
	m.lastSavedLSN = m.latestLSN
	return nil
}

func (m *Manager) writeBlock(block int, page *disk.Page) error {
	offset := int64(block) * int64(m.pageSize)
	if _, err := m.logFile.WriteAt(page.Contents(), offset); err != nil {
		return fmt.Errorf("cannot write log block %d: %v", block, err)
	}
	if err := m.logFile.Sync(); err != nil {
		return fmt.Errorf("cannot sync log file %s: %v", m.logFileName, err)
	}
	return nil
}

func readBlock(f *os.File, pageSize, block int, page *disk.Page) error {
	offset := int64(block) * int64(pageSize)
	if _, err := f.ReadAt(page.Contents(), offset); err != nil {
		return fmt.Errorf("cannot read log block %d: %v", block, err)
	}
	return nil
}

// sealRecord prefixes the payload with an xxhash64 checksum of its bytes.
func sealRecord(payload []byte) []byte {
	sealed := make([]byte, checksumSize+len(payload))
	binary.BigEndian.PutUint64(sealed, xxhash.Sum64(payload))
	copy(sealed[checksumSize:], payload)
	return sealed
}

// openRecord verifies a sealed record's checksum and returns the payload.
func openRecord(sealed []byte) ([]byte, error) {
	if len(sealed) < checksumSize {
		return nil, fmt.Errorf("log record of %d bytes is too short to carry a checksum", len(sealed))
	}
	want := binary.BigEndian.Uint64(sealed)
	payload := sealed[checksumSize:]
	if got := xxhash.Sum64(payload); got != want {
		return nil, fmt.Errorf("log record checksum mismatch: got %x, want %x", got, want)
	}
	return payload, nil
}
