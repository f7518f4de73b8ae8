package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager is the disk collaborator of the buffer pool. It reads and writes
// fixed-size pages of a single database file, addressed by PageID. All I/O is
// synchronous: WritePage does not return until the bytes are flushed to disk.
// The Manager is thread-safe.
type Manager struct {
	dbDirectory  string
	dataFileName string
	pageSize     int
	isNew        bool
	mu           sync.Mutex
	dataFile     *os.File
	pagesRead    int
	pagesWritten int
}

func NewManager(dbDirectory, dataFileName string, pageSize int) (*Manager, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}
	isNew := false
	if _, err := os.Stat(dbDirectory); os.IsNotExist(err) {
		isNew = true
		if err := os.MkdirAll(dbDirectory, 0755); err != nil {
			return nil, fmt.Errorf("cannot create directory %s: %v", dbDirectory, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("cannot access directory %s: %v", dbDirectory, err)
	}

	entries, err := os.ReadDir(dbDirectory)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s : %v", dbDirectory, err)
	}

	// Leftover temp files from a previous run are garbage.
	for _, entry := range entries {
		if !entry.IsDir() {
			name := entry.Name()
			if len(name) >= 4 && name[:4] == "temp" {
				tempFilePath := filepath.Join(dbDirectory, name)
				if err := os.Remove(tempFilePath); err != nil {
					return nil, fmt.Errorf("cannot remove file %s: %v", tempFilePath, err)
				}
			}
		}
	}

	return &Manager{
		dbDirectory:  dbDirectory,
		dataFileName: dataFileName,
		pageSize:     pageSize,
		isNew:        isNew,
	}, nil
}

// ReadPage reads the durable image of the specified page into the given Page
// buffer. A page that has been allocated but never written has no bytes on
// disk yet; reading it yields a zeroed buffer.
func (m *Manager) ReadPage(id PageID, page *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !id.IsValid() {
		return fmt.Errorf("cannot read %s: invalid page id", id)
	}
	f, err := m.getFile()
	if err != nil {
		return fmt.Errorf("cannot read %s : %v", id, err)
	}

	buf := page.Contents()
	if len(buf) != m.pageSize {
		return fmt.Errorf("cannot read %s: page buffer is %d bytes, expected %d", id, len(buf), m.pageSize)
	}
	offset := int64(id) * int64(m.pageSize)
	n, err := f.ReadAt(buf, offset)

	// Handle successful read
	if err == nil && n == len(buf) {
		m.pagesRead++
		return nil
	}

	// Handle EOF case
	if errors.Is(err, io.EOF) {
		// Nothing durable at this offset yet
		if n == 0 {
			clear(buf)
			m.pagesRead++
			return nil
		}

		// Page image exists but is truncated
		return fmt.Errorf("partial read at EOF: expected %d bytes, got %d", len(buf), n)
	}

	if err != nil {
		return fmt.Errorf("cannot read data :%v", err)
	}

	return fmt.Errorf("short read: expected %d bytes, got %d", len(buf), n)
}

// WritePage writes the given Page buffer to the durable image of the
// specified page and syncs the file.
func (m *Manager) WritePage(id PageID, page *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !id.IsValid() {
		return fmt.Errorf("cannot write %s: invalid page id", id)
	}
	f, err := m.getFile()
	if err != nil {
		return fmt.Errorf("cannot write %s : %v", id, err)
	}

	buf := page.Contents()
	if len(buf) != m.pageSize {
		return fmt.Errorf("cannot write %s: page buffer is %d bytes, expected %d", id, len(buf), m.pageSize)
	}
	offset := int64(id) * int64(m.pageSize)
	n, err := f.WriteAt(buf, offset)
	if err != nil {
		if n != len(buf) {
			return fmt.Errorf("short write : expected %d bytes, wrote %d, %v", len(buf), n, err)
		}
		return fmt.Errorf("cannot write data :%v", err)
	}

	// Ensure the data is flushed to disk.
	if err := f.Sync(); err != nil {
		return fmt.Errorf("cannot flush file %s to disk : %v", m.dataFileName, err)
	}
	m.pagesWritten++
	return nil
}

func (m *Manager) getFile() (*os.File, error) {
	if m.dataFile != nil {
		return m.dataFile, nil
	}

	dataPath := filepath.Join(m.dbDirectory, m.dataFileName)
	f, err := os.OpenFile(dataPath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("cannot open file %s: %v", dataPath, err)
	}
	m.dataFile = f
	return f, nil
}

// Length returns the number of pages currently materialized in the data file.
func (m *Manager) Length() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.getFile()
	if err != nil {
		return 0, fmt.Errorf("cannot access %s : %v", m.dataFileName, err)
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("cannot stat %s:%v", m.dataFileName, err)
	}

	fileSizeInBytes := fileInfo.Size()
	return int(fileSizeInBytes / int64(m.pageSize)), nil
}

// Close releases the underlying file handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dataFile == nil {
		return nil
	}
	f := m.dataFile
	m.dataFile = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close file %s: %v", m.dataFileName, err)
	}
	return nil
}

// IsNew returns true if the database directory is newly created.
func (m *Manager) IsNew() bool {
	return m.isNew
}

// PageSize returns the page size used by the Manager.
func (m *Manager) PageSize() int {
	return m.pageSize
}

func (m *Manager) PagesRead() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pagesRead
}

func (m *Manager) PagesWritten() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pagesWritten
}
