package flush

import "errors"

// ErrScratchUnavailable is returned when the scratch buffer cannot serve a request.
var ErrScratchUnavailable = errors.New("flush: scratch buffer unavailable")

// Allocator hands out the conversion buffer for one flush and takes it back
// before the flush returns.
type Allocator interface {
	Get(n int) ([]byte, error)
	Put(b []byte)
}

// Scratch is an Allocator over one buffer allocated up front.
// It serves a single request at a time.
type Scratch struct {
	buf   []byte
	inUse bool
}

// NewScratch returns a Scratch holding up to size bytes.
func NewScratch(size int) *Scratch {
	return &Scratch{buf: make([]byte, size)}
}

// Get returns the first n bytes of the buffer.
func (s *Scratch) Get(n int) ([]byte, error) {
	if s.inUse || n < 0 || n > len(s.buf) {
		return nil, ErrScratchUnavailable
	}
	s.inUse = true
	return s.buf[:n], nil
}

// Put releases the buffer.
func (s *Scratch) Put([]byte) {
	s.inUse = false
}

// Cap returns the largest request Get can serve.
func (s *Scratch) Cap() int {
	return len(s.buf)
}
