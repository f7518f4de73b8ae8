package disk

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// intSize is the number of bytes used to encode an integer in a page.
const intSize = 8

// Page represents one page's worth of data in memory.
// A page is a fixed-size block of bytes that is read from or written to disk as a unit;
// its size is chosen at construction and shared by every collaborator.
// The accessors interpret the buffer at caller-chosen offsets; the buffer itself is
// opaque to the disk and buffer layers.
type Page struct {
	buffer []byte
}

// NewPage creates a Page with a zeroed buffer of the given page size.
func NewPage(pageSize int) *Page {
	return &Page{buffer: make([]byte, pageSize)}
}

// NewPageFromBytes creates a Page by wrapping the provided byte slice.
func NewPageFromBytes(bytes []byte) *Page {
	return &Page{buffer: bytes}
}

// GetInt retrieves an integer from the buffer at the specified offset.
func (p *Page) GetInt(offset int) int {
	return int(binary.BigEndian.Uint64(p.buffer[offset:]))
}

// SetInt writes an integer to the buffer at the specified offset.
func (p *Page) SetInt(offset int, n int) {
	binary.BigEndian.PutUint64(p.buffer[offset:], uint64(n))
}

// GetShort retrieves a 16 bit integer from the buffer at the specified offset.
func (p *Page) GetShort(offset int) int16 {
	return int16(binary.BigEndian.Uint16(p.buffer[offset:]))
}

func (p *Page) SetShort(offset int, n int16) {
	binary.BigEndian.PutUint16(p.buffer[offset:], uint16(n))
}

func (p *Page) GetBool(offset int) bool {
	return p.buffer[offset] != 0
}

func (p *Page) SetBool(offset int, b bool) {
	if b {
		p.buffer[offset] = 1
	} else {
		p.buffer[offset] = 0
	}
}

// GetBytes retrieves a byte slice from the buffer starting at the specified offset.
func (p *Page) GetBytes(offset int) []byte {
	length := p.GetInt(offset)
	start := offset + intSize
	end := start + length
	b := make([]byte, length)
	copy(b, p.buffer[start:end])
	return b
}

// SetBytes writes a byte slice to the buffer starting at the specified offset.
func (p *Page) SetBytes(offset int, b []byte) {
	p.SetInt(offset, len(b))
	start := offset + intSize
	copy(p.buffer[start:], b)
}

// GetString retrieves a string from the buffer at the specified offset.
func (p *Page) GetString(offset int) (string, error) {
	b := p.GetBytes(offset)
	if !utf8.Valid(b) {
		return "", errors.New("invalid UTF-8 encoding")
	}
	return string(b), nil
}

// SetString writes a string to the buffer at the specified offset.
func (p *Page) SetString(offset int, s string) error {
	if !utf8.ValidString(s) {
		return errors.New("string contains invalid UTF-8 characters")
	}
	p.SetBytes(offset, []byte(s))
	return nil
}

// MaxLength calculates the maximum number of bytes required to store a string of a given length.
func MaxLength(strlen int) int {
	return intSize + strlen*utf8.UTFMax
}

// Contents returns the byte buffer maintained by the Page.
func (p *Page) Contents() []byte {
	return p.buffer
}

// Reset zero-fills the buffer. A freshly allocated page must start from
// all-zero contents because nothing durable exists for it yet.
func (p *Page) Reset() {
	clear(p.buffer)
}
