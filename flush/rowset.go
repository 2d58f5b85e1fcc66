package flush

import "math/bits"

// RowSet is a fixed-size bitmap with one bit per panel row.
// Row y lives in bit y%8 of byte y/8.
type RowSet struct {
	bits []byte
	n    int
}

// NewRowSet returns an empty RowSet over rows 0..n-1.
func NewRowSet(n int) *RowSet {
	if n < 0 {
		n = 0
	}
	return &RowSet{bits: make([]byte, (n+7)/8), n: n}
}

// Len returns the number of rows tracked.
func (s *RowSet) Len() int {
	return s.n
}

// Mark sets rows y1..y2 inclusive. The span is clamped to the tracked rows.
func (s *RowSet) Mark(y1, y2 int) {
	if y1 < 0 {
		y1 = 0
	}
	if y2 >= s.n {
		y2 = s.n - 1
	}
	for y := y1; y <= y2; y++ {
		s.bits[y>>3] |= 1 << uint(y&7)
	}
}

// Has reports whether row y is set.
func (s *RowSet) Has(y int) bool {
	if y < 0 || y >= s.n {
		return false
	}
	return s.bits[y>>3]&(1<<uint(y&7)) != 0
}

// Full reports whether every row is set.
func (s *RowSet) Full() bool {
	if s.n == 0 {
		return false
	}
	whole := s.n / 8
	for _, b := range s.bits[:whole] {
		if b != 0xFF {
			return false
		}
	}
	if rem := s.n % 8; rem != 0 {
		mask := byte(1)<<uint(rem) - 1
		return s.bits[whole]&mask == mask
	}
	return true
}

// Count returns the number of rows set.
func (s *RowSet) Count() int {
	n := 0
	for _, b := range s.bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// Clear unsets every row.
func (s *RowSet) Clear() {
	for i := range s.bits {
		s.bits[i] = 0
	}
}
